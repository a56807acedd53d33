package audit

import (
	"context"
	"errors"

	"github.com/goliatone/go-consent/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed consent log repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*LogEntry]
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type logStore interface {
	repository.Repository[*LogEntry]
}

// Repository persists consent log entries and exposes the read side. The log
// is append-only: there are no update or delete paths.
type Repository struct {
	logStore
	db    *bun.DB
	clock types.Clock
	idGen types.IDGenerator
}

// NewRepository constructs a repository implementing both AuditSink and
// AuditRepository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("audit: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*LogEntry]{
			NewRecord: func() *LogEntry { return &LogEntry{} },
			GetID: func(entry *LogEntry) uuid.UUID {
				if entry == nil {
					return uuid.Nil
				}
				return entry.ID
			},
			SetID: func(entry *LogEntry, id uuid.UUID) {
				if entry != nil {
					entry.ID = id
				}
			},
		})
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}

	return &Repository{
		logStore: repo,
		db:       cfg.DB,
		clock:    clock,
		idGen:    idGen,
	}, nil
}

var (
	_ repository.Repository[*LogEntry] = (*Repository)(nil)
	_ types.AuditSink                  = (*Repository)(nil)
	_ types.AuditRepository            = (*Repository)(nil)
)

// Log persists a consent audit record.
func (r *Repository) Log(ctx context.Context, record types.AuditRecord) error {
	entry := toLogEntry(record)
	if entry.ID == uuid.Nil {
		entry.ID = r.idGen.UUID()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = r.clock.Now()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.clock.Now()
	}
	_, err := r.Create(ctx, entry)
	return err
}

// ListConsentLog returns a paginated feed filtered by the supplied criteria.
func (r *Repository) ListConsentLog(ctx context.Context, filter types.AuditFilter) (types.AuditPage, error) {
	pagination := normalizePagination(filter.Pagination, 50, 200)
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.OrderExpr("occurred_at DESC").
				Limit(pagination.Limit).
				Offset(pagination.Offset)
			return applyAuditFilter(q, filter)
		},
	}

	rows, total, err := r.List(ctx, criteria...)
	if err != nil {
		return types.AuditPage{}, err
	}
	records := make([]types.AuditRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toAuditRecord(row))
	}
	return types.AuditPage{
		Records:    records,
		Total:      total,
		NextOffset: pagination.Offset + pagination.Limit,
		HasMore:    pagination.Offset+pagination.Limit < total,
	}, nil
}

// ConsentLogStats aggregates counts grouped by action for one student.
func (r *Repository) ConsentLogStats(ctx context.Context, studentID uuid.UUID) (types.AuditStats, error) {
	stats := types.AuditStats{
		ByAction: make(map[types.ConsentAction]int),
	}
	if r.db == nil {
		return stats, errors.New("audit: stats requires bun DB")
	}
	query := r.db.NewSelect().
		Table("consent_log").
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("action").
		Group("action")
	if studentID != uuid.Nil {
		query = query.Where("student_id = ?", studentID)
	}

	type row struct {
		Action string `bun:"action"`
		Total  int    `bun:"total"`
	}
	var rows []row
	if err := query.Scan(ctx, &rows); err != nil {
		return stats, err
	}
	total := 0
	for _, rec := range rows {
		stats.ByAction[types.ConsentAction(rec.Action)] = rec.Total
		total += rec.Total
	}
	stats.Total = total
	return stats, nil
}

func applyAuditFilter(q *bun.SelectQuery, filter types.AuditFilter) *bun.SelectQuery {
	if filter.StudentID != uuid.Nil {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	if len(filter.Actions) > 0 {
		actions := make([]string, 0, len(filter.Actions))
		for _, action := range filter.Actions {
			actions = append(actions, string(action))
		}
		q = q.Where("action IN (?)", bun.In(actions))
	}
	if !filter.Since.IsZero() {
		q = q.Where("occurred_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("occurred_at <= ?", filter.Until)
	}
	return q
}

func normalizePagination(p types.Pagination, defaultLimit, maxLimit int) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

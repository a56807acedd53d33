package audit

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-consent/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuditCursor defines the cursor shape for consent log feeds.
type AuditCursor struct {
	OccurredAt time.Time
	ID         uuid.UUID
}

// ApplyCursorPagination applies cursor pagination using occurred_at/id
// ordering. Results are ordered by occurred_at DESC, id DESC, and filtered to
// entries older than the supplied cursor.
func ApplyCursorPagination(q *bun.SelectQuery, cursor *AuditCursor, limit int) *bun.SelectQuery {
	if q == nil {
		return nil
	}
	q = q.OrderExpr("occurred_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if cursor == nil || cursor.OccurredAt.IsZero() {
		return q
	}
	if cursor.ID == uuid.Nil {
		return q.Where("occurred_at < ?", cursor.OccurredAt)
	}
	return q.Where("(occurred_at < ?) OR (occurred_at = ? AND id < ?)", cursor.OccurredAt, cursor.OccurredAt, cursor.ID)
}

// ListConsentLogAfter walks the consent log for one student from the supplied
// cursor. It returns the next cursor, or nil when the feed is exhausted.
// Exports and deletion jobs use this instead of offset pagination so a growing
// log cannot shift pages under them.
func (r *Repository) ListConsentLogAfter(ctx context.Context, studentID uuid.UUID, cursor *AuditCursor, limit int) ([]types.AuditRecord, *AuditCursor, error) {
	if r.db == nil {
		return nil, nil, errors.New("audit: cursor listing requires bun DB")
	}
	if limit <= 0 {
		limit = 50
	}

	var rows []LogEntry
	q := r.db.NewSelect().Model(&rows)
	if studentID != uuid.Nil {
		q = q.Where("student_id = ?", studentID)
	}
	if err := ApplyCursorPagination(q, cursor, limit).Scan(ctx); err != nil {
		return nil, nil, err
	}

	records := make([]types.AuditRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toAuditRecord(&row))
	}
	if len(rows) < limit {
		return records, nil, nil
	}
	last := rows[len(rows)-1]
	return records, &AuditCursor{OccurredAt: last.OccurredAt, ID: last.ID}, nil
}

package tokens

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-consent/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed consent token repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
}

// Repository implements types.ConsentTokenRepository using Bun.
type Repository struct {
	store repository.Repository[*Record]
	clock types.Clock
	db    *bun.DB
}

// NewRepository constructs the default token repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("tokens: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Record]{
			NewRecord: func() *Record { return &Record{} },
			GetID: func(rec *Record) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.ID
			},
			SetID: func(rec *Record, id uuid.UUID) {
				if rec != nil {
					rec.ID = id
				}
			},
		})
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	db := cfg.DB
	if db == nil {
		if withDB, ok := repo.(interface{ DB() *bun.DB }); ok {
			db = withDB.DB()
		}
	}
	return &Repository{store: repo, clock: clock, db: db}, nil
}

var _ types.ConsentTokenRepository = (*Repository)(nil)

// CreateToken persists a consent token record.
func (r *Repository) CreateToken(ctx context.Context, token types.ConsentToken) (*types.ConsentToken, error) {
	if token.StudentID == uuid.Nil {
		return nil, types.ErrStudentIDRequired
	}
	if strings.TrimSpace(token.TokenHash) == "" {
		return nil, errors.New("tokens: token hash required")
	}
	rec := fromDomain(token)
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := r.clock.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.IssuedAt == nil {
		rec.IssuedAt = timePtr(now)
	}
	created, err := r.store.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return toDomain(created), nil
}

// GetTokenByHash returns the token matching the digest, scoped to the
// student. Used and expired rows come back too; usability is judged by the
// caller so lookups stay a pure read.
func (r *Repository) GetTokenByHash(ctx context.Context, studentID uuid.UUID, tokenHash string) (*types.ConsentToken, error) {
	rec, err := r.store.Get(ctx, selectByHash(studentID, tokenHash))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(rec), nil
}

// ConsumeToken marks the token used with a compare-and-set guard. Only a row
// that is still unused and unexpired matches; concurrent redeemers race on
// the same guard and exactly one wins.
func (r *Repository) ConsumeToken(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("tokens: db required for updates")
	}
	if id == uuid.Nil {
		return errors.New("tokens: token id required")
	}
	rec := &Record{
		UsedAt:    timePtr(usedAt),
		UpdatedAt: r.clock.Now(),
	}
	res, err := r.db.NewUpdate().Model(rec).
		Column("used_at", "updated_at").
		Where("id = ?", id).
		Where("used_at IS NULL").
		Where("expires_at > ?", usedAt).
		Exec(ctx)
	if err != nil {
		return repository.MapDatabaseError(err, repository.DetectDriver(r.db))
	}
	return repository.SQLExpectedCount(res, 1)
}

// InvalidateTokens retires every usable token for the student and reports how
// many rows changed. Zero is not an error; a resend with nothing outstanding
// is legitimate.
func (r *Repository) InvalidateTokens(ctx context.Context, studentID uuid.UUID, usedAt time.Time) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("tokens: db required for updates")
	}
	if studentID == uuid.Nil {
		return 0, types.ErrStudentIDRequired
	}
	rec := &Record{
		UsedAt:    timePtr(usedAt),
		UpdatedAt: r.clock.Now(),
	}
	res, err := r.db.NewUpdate().Model(rec).
		Column("used_at", "updated_at").
		Where("student_id = ?", studentID).
		Where("used_at IS NULL").
		Where("expires_at > ?", usedAt).
		Exec(ctx)
	if err != nil {
		return 0, repository.MapDatabaseError(err, repository.DetectDriver(r.db))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// GetLatestUsable returns the newest unused, unexpired token for the student.
func (r *Repository) GetLatestUsable(ctx context.Context, studentID uuid.UUID, at time.Time) (*types.ConsentToken, error) {
	rec, err := r.store.Get(ctx, selectLatestUsable(studentID, at))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(rec), nil
}

func selectByHash(studentID uuid.UUID, tokenHash string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("student_id = ?", studentID).
			Where("token_hash = ?", strings.TrimSpace(tokenHash))
	}
}

func selectLatestUsable(studentID uuid.UUID, at time.Time) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("student_id = ?", studentID).
			Where("used_at IS NULL").
			Where("expires_at > ?", at).
			OrderExpr("issued_at DESC").
			Limit(1)
	}
}

func fromDomain(token types.ConsentToken) *Record {
	return &Record{
		ID:        token.ID,
		StudentID: token.StudentID,
		TokenHash: token.TokenHash,
		IssuedAt:  timePtr(token.IssuedAt),
		ExpiresAt: timePtr(token.ExpiresAt),
		UsedAt:    timePtr(token.UsedAt),
		CreatedAt: token.CreatedAt,
		UpdatedAt: token.UpdatedAt,
	}
}

func toDomain(rec *Record) *types.ConsentToken {
	if rec == nil {
		return nil
	}
	return &types.ConsentToken{
		ID:        rec.ID,
		StudentID: rec.StudentID,
		TokenHash: rec.TokenHash,
		IssuedAt:  timeFromPtr(rec.IssuedAt),
		ExpiresAt: timeFromPtr(rec.ExpiresAt),
		UsedAt:    timeFromPtr(rec.UsedAt),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func timePtr(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	copy := value
	return &copy
}

func timeFromPtr(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return *value
}

package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-consent/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed account repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
}

type accountStore interface {
	repository.Repository[*Record]
}

// Repository implements types.AccountRepository using Bun.
type Repository struct {
	accountStore
	clock types.Clock
}

// NewRepository constructs the default account repository.
func NewRepository(cfg RepositoryConfig, opts ...RepositoryOption) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("accounts: db or repository required")
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

	options := applyRepositoryOptions(opts)
	if options.CacheEnabled {
		if _, ok := repo.(*repositorycache.CachedRepository[*Record]); !ok {
			cacheConfig := cache.DefaultConfig()
			if options.CacheConfig != nil {
				cacheConfig = *options.CacheConfig
			}
			cacheService, err := cache.NewCacheService(cacheConfig)
			if err != nil {
				return nil, err
			}
			repo = repositorycache.New(repo, cacheService, cache.NewDefaultKeySerializer())
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}

	return &Repository{
		accountStore: repo,
		clock:        clock,
	}, nil
}

var (
	_ repository.Repository[*Record] = (*Repository)(nil)
	_ types.AccountRepository        = (*Repository)(nil)
)

// CreateAccount persists a new account row. Hosts that own their user table
// adapt it instead; this helper serves tests and standalone deployments.
func (r *Repository) CreateAccount(ctx context.Context, account types.Account) (*types.Account, error) {
	if account.ID == uuid.Nil {
		return nil, types.ErrStudentIDRequired
	}
	rec := fromDomain(account)
	now := r.clock.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.Status == "" {
		rec.Status = string(types.AccountStatusPendingConsent)
	}
	created, err := r.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return toDomain(created), nil
}

// GetAccount returns the account or nil when no row exists.
func (r *Repository) GetAccount(ctx context.Context, id uuid.UUID) (*types.Account, error) {
	if id == uuid.Nil {
		return nil, types.ErrStudentIDRequired
	}
	rec, err := r.Get(ctx, selectID(id))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(rec), nil
}

// MarkVerified activates the account and clears revocation and deletion
// state. Verification after a revoke is the sanctioned undo path, so the
// deletion schedule goes away with it. The write goes through the wrapped
// store so a caching decoration stays coherent with the row.
func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) (*types.Account, error) {
	if id == uuid.Nil {
		return nil, types.ErrStudentIDRequired
	}
	rec, err := r.Get(ctx, selectID(id))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	rec.Status = string(types.AccountStatusActive)
	rec.ConsentVerifiedAt = timePtr(verifiedAt)
	rec.ConsentRevokedAt = nil
	rec.DeletionRequestedAt = nil
	rec.DeletionScheduledAt = nil
	rec.UpdatedAt = r.clock.Now()
	updated, err := r.Update(ctx, rec)
	if err != nil {
		return nil, err
	}
	return toDomain(updated), nil
}

// MarkRevoked suspends the account and stamps the deletion schedule. Calling
// it on an already suspended account re-stamps the timestamps.
func (r *Repository) MarkRevoked(ctx context.Context, id uuid.UUID, revokedAt, deletionScheduledAt time.Time) (*types.Account, error) {
	if id == uuid.Nil {
		return nil, types.ErrStudentIDRequired
	}
	rec, err := r.Get(ctx, selectID(id))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	rec.Status = string(types.AccountStatusSuspendedDeletion)
	rec.ConsentRevokedAt = timePtr(revokedAt)
	rec.DeletionRequestedAt = timePtr(revokedAt)
	rec.DeletionScheduledAt = timePtr(deletionScheduledAt)
	rec.UpdatedAt = r.clock.Now()
	updated, err := r.Update(ctx, rec)
	if err != nil {
		return nil, err
	}
	return toDomain(updated), nil
}

func selectID(id uuid.UUID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	}
}

func fromDomain(account types.Account) *Record {
	return &Record{
		ID:                  account.ID,
		IsUnder13:           account.IsUnder13,
		ParentEmail:         account.ParentEmail,
		Status:              string(account.Status),
		ConsentVerifiedAt:   timePtr(account.ConsentVerifiedAt),
		ConsentRevokedAt:    timePtr(account.ConsentRevokedAt),
		DeletionRequestedAt: timePtr(account.DeletionRequestedAt),
		DeletionScheduledAt: timePtr(account.DeletionScheduledAt),
		CreatedAt:           account.CreatedAt,
		UpdatedAt:           account.UpdatedAt,
	}
}

func toDomain(rec *Record) *types.Account {
	if rec == nil {
		return nil
	}
	return &types.Account{
		ID:                  rec.ID,
		IsUnder13:           rec.IsUnder13,
		ParentEmail:         rec.ParentEmail,
		Status:              types.AccountStatus(rec.Status),
		ConsentVerifiedAt:   timeFromPtr(rec.ConsentVerifiedAt),
		ConsentRevokedAt:    timeFromPtr(rec.ConsentRevokedAt),
		DeletionRequestedAt: timeFromPtr(rec.DeletionRequestedAt),
		DeletionScheduledAt: timeFromPtr(rec.DeletionScheduledAt),
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
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

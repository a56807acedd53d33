package goauth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-consent/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// AccountsAdapter wraps a go-auth Users repository so the host's user table
// doubles as the consent account store. Consent lifecycle fields live in the
// user metadata payload under the Meta* keys.
type AccountsAdapter struct {
	repo       auth.Users
	isNotFound func(error) bool
}

// AccountsAdapterOption customizes adapter construction.
type AccountsAdapterOption func(*AccountsAdapter)

// WithNotFound overrides how missing-row errors from the underlying
// repository are recognized.
func WithNotFound(fn func(error) bool) AccountsAdapterOption {
	return func(adapter *AccountsAdapter) {
		if fn != nil {
			adapter.isNotFound = fn
		}
	}
}

// NewAccountsAdapter builds an AccountsAdapter over the go-auth repository.
func NewAccountsAdapter(repo auth.Users, opts ...AccountsAdapterOption) *AccountsAdapter {
	adapter := &AccountsAdapter{
		repo:       repo,
		isNotFound: defaultIsNotFound,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	return adapter
}

var _ types.AccountRepository = (*AccountsAdapter)(nil)

// GetAccount loads the user and projects it onto the account model. A
// missing user maps to nil, not an error.
func (a *AccountsAdapter) GetAccount(ctx context.Context, id uuid.UUID) (*types.Account, error) {
	if a == nil || a.repo == nil {
		return nil, errors.New("goauth: users repository required")
	}
	if id == uuid.Nil {
		return nil, types.ErrStudentIDRequired
	}
	user, err := a.repo.GetByID(ctx, id.String())
	if err != nil {
		if a.isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return AccountFromUser(user), nil
}

// MarkVerified activates the user and clears revocation and deletion state.
func (a *AccountsAdapter) MarkVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) (*types.Account, error) {
	return a.mutate(ctx, id, func(account *types.Account) {
		account.Status = types.AccountStatusActive
		account.ConsentVerifiedAt = verifiedAt
		account.ConsentRevokedAt = time.Time{}
		account.DeletionRequestedAt = time.Time{}
		account.DeletionScheduledAt = time.Time{}
	})
}

// MarkRevoked suspends the user and stamps the deletion schedule.
func (a *AccountsAdapter) MarkRevoked(ctx context.Context, id uuid.UUID, revokedAt, deletionScheduledAt time.Time) (*types.Account, error) {
	return a.mutate(ctx, id, func(account *types.Account) {
		account.Status = types.AccountStatusSuspendedDeletion
		account.ConsentRevokedAt = revokedAt
		account.DeletionRequestedAt = revokedAt
		account.DeletionScheduledAt = deletionScheduledAt
	})
}

func (a *AccountsAdapter) mutate(ctx context.Context, id uuid.UUID, apply func(*types.Account)) (*types.Account, error) {
	if a == nil || a.repo == nil {
		return nil, errors.New("goauth: users repository required")
	}
	if id == uuid.Nil {
		return nil, types.ErrStudentIDRequired
	}
	user, err := a.repo.GetByID(ctx, id.String())
	if err != nil {
		if a.isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	account := AccountFromUser(user)
	apply(account)
	applyConsentState(user, account)
	updated, err := a.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	return AccountFromUser(updated), nil
}

func defaultIsNotFound(err error) bool {
	return repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows)
}

package types

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStatus tracks the coarse lifecycle state of a minor's account.
type AccountStatus string

const (
	AccountStatusActive            AccountStatus = "active"
	AccountStatusPendingConsent    AccountStatus = "pending_consent"
	AccountStatusSuspendedDeletion AccountStatus = "suspended_deletion"
)

// Account captures the subset of account fields the consent core reads or
// writes. Accounts are created elsewhere; under-13 accounts start in
// pending_consent. Zero time values mean "not set".
type Account struct {
	ID                  uuid.UUID
	IsUnder13           bool
	ParentEmail         string
	Status              AccountStatus
	ConsentVerifiedAt   time.Time
	ConsentRevokedAt    time.Time
	DeletionRequestedAt time.Time
	DeletionScheduledAt time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ConsentVerified reports whether the account currently holds a verified
// guardian consent. Revocation after verification clears the claim.
func (a *Account) ConsentVerified() bool {
	if a == nil || a.ConsentVerifiedAt.IsZero() {
		return false
	}
	if a.ConsentRevokedAt.IsZero() {
		return true
	}
	return a.ConsentVerifiedAt.After(a.ConsentRevokedAt)
}

// NeedsConsent reports whether the account is gated on guardian approval.
func (a *Account) NeedsConsent() bool {
	if a == nil {
		return false
	}
	return a.IsUnder13 && a.ConsentVerifiedAt.IsZero()
}

// AccountRepository persists consent-relevant account state. MarkVerified and
// MarkRevoked are full state assertions, not deltas: each stamps every field
// the transition owns so repeated calls stay idempotent.
type AccountRepository interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)

	// MarkVerified activates the account: status becomes active,
	// consent_verified_at is stamped, and revocation/deletion fields clear.
	MarkVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) (*Account, error)

	// MarkRevoked suspends the account pending deletion: status becomes
	// suspended_deletion and the revocation/deletion timestamps are stamped.
	MarkRevoked(ctx context.Context, id uuid.UUID, revokedAt, deletionScheduledAt time.Time) (*Account, error)
}

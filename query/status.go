package query

import (
	"context"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-consent/authz"
	"github.com/goliatone/go-consent/pkg/types"
	"github.com/google/uuid"
)

// ConsentStatusInput scopes consent status lookups.
type ConsentStatusInput struct {
	StudentID uuid.UUID
	Actor     types.ActorRef
}

// Type implements gocommand.Message for query inputs.
func (ConsentStatusInput) Type() string {
	return "query.consent.status"
}

// Validate implements gocommand.Message.
func (input ConsentStatusInput) Validate() error {
	if input.StudentID == uuid.Nil {
		return types.ErrStudentIDRequired
	}
	return nil
}

// ConsentStatus is the read model gating hosts consult before granting
// access. Blocked is not a field: a caller treats any Status other than
// active as blocked, and NeedsConsent says whether consent is the reason.
type ConsentStatus struct {
	StudentID           uuid.UUID
	Status              types.AccountStatus
	NeedsConsent        bool
	ConsentVerified     bool
	ParentEmail         string
	ConsentVerifiedAt   time.Time
	ConsentRevokedAt    time.Time
	DeletionScheduledAt time.Time
}

// ConsentStatusQuery resolves the consent state of a single account.
type ConsentStatusQuery struct {
	accounts types.AccountRepository
	gate     authz.Gate
}

// NewConsentStatusQuery constructs the status reader.
func NewConsentStatusQuery(accounts types.AccountRepository, gate authz.Gate) *ConsentStatusQuery {
	return &ConsentStatusQuery{
		accounts: accounts,
		gate:     authz.Ensure(gate),
	}
}

var _ gocommand.Querier[ConsentStatusInput, ConsentStatus] = (*ConsentStatusQuery)(nil)

// Query returns the consent status for the supplied student.
func (q *ConsentStatusQuery) Query(ctx context.Context, input ConsentStatusInput) (ConsentStatus, error) {
	if q.accounts == nil {
		return ConsentStatus{}, types.ErrMissingAccountRepository
	}
	if err := input.Validate(); err != nil {
		return ConsentStatus{}, err
	}
	if err := q.gate.Authorize(ctx, input.Actor, input.StudentID); err != nil {
		return ConsentStatus{}, err
	}

	account, err := q.accounts.GetAccount(ctx, input.StudentID)
	if err != nil {
		return ConsentStatus{}, types.WrapStorage(err, "consent status: account lookup failed")
	}
	if account == nil {
		return ConsentStatus{}, types.ErrAccountNotFound
	}

	return ConsentStatus{
		StudentID:           account.ID,
		Status:              account.Status,
		NeedsConsent:        account.NeedsConsent(),
		ConsentVerified:     account.ConsentVerified(),
		ParentEmail:         account.ParentEmail,
		ConsentVerifiedAt:   account.ConsentVerifiedAt,
		ConsentRevokedAt:    account.ConsentRevokedAt,
		DeletionScheduledAt: account.DeletionScheduledAt,
	}, nil
}

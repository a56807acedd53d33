package query

import (
	"context"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-consent/authz"
	"github.com/goliatone/go-consent/pkg/types"
	"github.com/google/uuid"
)

// PendingRequestInput scopes pending verification lookups.
type PendingRequestInput struct {
	StudentID uuid.UUID
	Actor     types.ActorRef
}

// Type implements gocommand.Message for query inputs.
func (PendingRequestInput) Type() string {
	return "query.consent.pending"
}

// Validate implements gocommand.Message.
func (input PendingRequestInput) Validate() error {
	if input.StudentID == uuid.Nil {
		return types.ErrStudentIDRequired
	}
	return nil
}

// PendingRequest reports whether an unexpired, unused verification link is
// outstanding. The raw token is gone by now; only lifecycle metadata is
// readable.
type PendingRequest struct {
	Pending   bool
	TokenID   uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// PendingRequestQuery reports on outstanding verification tokens.
type PendingRequestQuery struct {
	tokens types.ConsentTokenRepository
	gate   authz.Gate
	clock  types.Clock
}

// NewPendingRequestQuery constructs the pending request reader.
func NewPendingRequestQuery(tokens types.ConsentTokenRepository, gate authz.Gate, clock types.Clock) *PendingRequestQuery {
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &PendingRequestQuery{
		tokens: tokens,
		gate:   authz.Ensure(gate),
		clock:  clock,
	}
}

var _ gocommand.Querier[PendingRequestInput, PendingRequest] = (*PendingRequestQuery)(nil)

// Query reports the newest usable token for the student, if any.
func (q *PendingRequestQuery) Query(ctx context.Context, input PendingRequestInput) (PendingRequest, error) {
	if q.tokens == nil {
		return PendingRequest{}, types.ErrMissingTokenRepository
	}
	if err := input.Validate(); err != nil {
		return PendingRequest{}, err
	}
	if err := q.gate.Authorize(ctx, input.Actor, input.StudentID); err != nil {
		return PendingRequest{}, err
	}

	token, err := q.tokens.GetLatestUsable(ctx, input.StudentID, q.clock.Now())
	if err != nil {
		return PendingRequest{}, types.WrapStorage(err, "consent pending: token lookup failed")
	}
	if token == nil {
		return PendingRequest{}, nil
	}
	return PendingRequest{
		Pending:   true,
		TokenID:   token.ID,
		IssuedAt:  token.IssuedAt,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

package command

import (
	"context"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-consent/authz"
	"github.com/goliatone/go-consent/pkg/types"
	"github.com/google/uuid"
)

const defaultDeletionGracePeriod = 30 * 24 * time.Hour

// ConsentRevokeInput withdraws guardian consent for a student account.
type ConsentRevokeInput struct {
	StudentID uuid.UUID
	Actor     types.ActorRef
	Reason    string
	Metadata  map[string]any
	Result    *ConsentRevokeResult
}

// Type implements gocommand.Message.
func (ConsentRevokeInput) Type() string {
	return "command.consent.revoke"
}

// Validate implements gocommand.Message.
func (input ConsentRevokeInput) Validate() error {
	switch {
	case input.StudentID == uuid.Nil:
		return ErrStudentIDRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// ConsentRevokeResult carries the suspended account.
type ConsentRevokeResult struct {
	Account *types.Account
}

// ConsentRevokeCommand suspends the account and schedules deletion. The
// command is a state assertion, not a transition guard: revoking an already
// suspended account re-stamps the timestamps instead of erroring. Deletion
// execution belongs to an external job; only the schedule is written here.
type ConsentRevokeCommand struct {
	accounts    types.AccountRepository
	gate        authz.Gate
	clock       types.Clock
	sink        types.AuditSink
	hooks       types.Hooks
	logger      types.Logger
	gracePeriod time.Duration
}

// ConsentRevokeConfig holds dependencies for revocation.
type ConsentRevokeConfig struct {
	Accounts types.AccountRepository
	// Gate defaults to the trusted gate: guardian proof-of-authorization
	// for revocation is an external concern.
	Gate        authz.Gate
	Clock       types.Clock
	Audit       types.AuditSink
	Hooks       types.Hooks
	Logger      types.Logger
	GracePeriod time.Duration
}

// NewConsentRevokeCommand constructs the revocation handler.
func NewConsentRevokeCommand(cfg ConsentRevokeConfig) *ConsentRevokeCommand {
	grace := cfg.GracePeriod
	if grace <= 0 {
		grace = defaultDeletionGracePeriod
	}
	gate := cfg.Gate
	if gate == nil {
		gate = authz.Trusted()
	}
	return &ConsentRevokeCommand{
		accounts:    cfg.Accounts,
		gate:        gate,
		clock:       safeClock(cfg.Clock),
		sink:        cfg.Audit,
		hooks:       safeHooks(cfg.Hooks),
		logger:      safeLogger(cfg.Logger),
		gracePeriod: grace,
	}
}

var _ gocommand.Commander[ConsentRevokeInput] = (*ConsentRevokeCommand)(nil)

// Execute suspends the account and stamps the deletion schedule.
func (c *ConsentRevokeCommand) Execute(ctx context.Context, input ConsentRevokeInput) error {
	if c.accounts == nil {
		return types.ErrMissingAccountRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	if err := c.gate.Authorize(ctx, input.Actor, input.StudentID); err != nil {
		return err
	}

	revokedAt := now(c.clock)
	scheduledAt := revokedAt.Add(c.gracePeriod)
	account, err := c.accounts.MarkRevoked(ctx, input.StudentID, revokedAt, scheduledAt)
	if err != nil {
		return types.WrapStorage(err, "consent revoke: account suspension failed")
	}
	if account == nil {
		return types.ErrAccountNotFound
	}

	data := map[string]any{
		"deletion_scheduled_at": scheduledAt,
	}
	if input.Reason != "" {
		data["reason"] = input.Reason
	}
	if len(input.Metadata) > 0 {
		data["metadata"] = cloneMap(input.Metadata)
	}
	logAudit(ctx, c.sink, c.logger, types.AuditRecord{
		StudentID:   input.StudentID,
		ParentEmail: account.ParentEmail,
		Action:      types.ConsentActionRevoked,
		Data:        data,
		OccurredAt:  revokedAt,
	})
	emitConsentHook(ctx, c.hooks, types.ConsentEvent{
		StudentID:  input.StudentID,
		ActorID:    input.Actor.ID,
		Action:     types.ConsentActionRevoked,
		OccurredAt: revokedAt,
		Metadata:   input.Metadata,
	})

	if input.Result != nil {
		input.Result.Account = account
	}
	return nil
}

package command

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-consent/authz"
	"github.com/goliatone/go-consent/pkg/types"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

// ConsentResendInput invalidates outstanding links and issues a fresh one.
type ConsentResendInput struct {
	StudentID uuid.UUID
	Actor     types.ActorRef
	Metadata  map[string]any
	Result    *ConsentResendResult
}

// Type implements gocommand.Message.
func (ConsentResendInput) Type() string {
	return "command.consent.resend"
}

// Validate implements gocommand.Message.
func (input ConsentResendInput) Validate() error {
	switch {
	case input.StudentID == uuid.Nil:
		return ErrStudentIDRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// ConsentResendResult exposes the replacement verification reference and how
// many stale tokens were invalidated.
type ConsentResendResult struct {
	Ref         types.VerificationRef
	ParentEmail string
	Invalidated int
}

// ConsentResendCommand retires every usable token for a student before
// delegating to the request command, so at most one live link exists after a
// resend and older emailed copies silently stop working.
type ConsentResendCommand struct {
	accounts types.AccountRepository
	tokens   types.ConsentTokenRepository
	request  *ConsentRequestCommand
	gate     authz.Gate
	features featuregate.FeatureGate
	clock    types.Clock
	logger   types.Logger
}

// ConsentResendConfig holds dependencies for resend.
type ConsentResendConfig struct {
	Accounts types.AccountRepository
	Tokens   types.ConsentTokenRepository
	Request  *ConsentRequestCommand
	Gate     authz.Gate
	Features featuregate.FeatureGate
	Clock    types.Clock
	Logger   types.Logger
}

// NewConsentResendCommand constructs the resend handler.
func NewConsentResendCommand(cfg ConsentResendConfig) *ConsentResendCommand {
	return &ConsentResendCommand{
		accounts: cfg.Accounts,
		tokens:   cfg.Tokens,
		request:  cfg.Request,
		gate:     authz.Ensure(cfg.Gate),
		features: cfg.Features,
		clock:    safeClock(cfg.Clock),
		logger:   safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[ConsentResendInput] = (*ConsentResendCommand)(nil)

// Execute invalidates usable tokens and issues a replacement.
func (c *ConsentResendCommand) Execute(ctx context.Context, input ConsentResendInput) error {
	if c.accounts == nil {
		return types.ErrMissingAccountRepository
	}
	if c.tokens == nil {
		return types.ErrMissingTokenRepository
	}
	if c.request == nil {
		return ErrRequestCommandRequired
	}
	if err := input.Validate(); err != nil {
		return err
	}
	if err := c.gate.Authorize(ctx, input.Actor, input.StudentID); err != nil {
		return err
	}
	enabled, err := featureEnabled(ctx, c.features, featureConsentResend, input.StudentID)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrConsentResendDisabled
	}

	account, err := c.accounts.GetAccount(ctx, input.StudentID)
	if err != nil {
		return types.WrapStorage(err, "consent resend: account lookup failed")
	}
	if account == nil {
		return types.ErrAccountNotFound
	}
	if strings.TrimSpace(account.ParentEmail) == "" {
		return types.ErrNoParentEmailOnFile
	}

	invalidated, err := c.tokens.InvalidateTokens(ctx, input.StudentID, now(c.clock))
	if err != nil {
		return types.WrapStorage(err, "consent resend: token invalidation failed")
	}
	if invalidated > 0 {
		c.logger.Debug("go-consent: invalidated outstanding tokens",
			"student_id", input.StudentID.String(),
			"count", invalidated)
	}

	requestResult := &ConsentRequestResult{}
	if err := c.request.Execute(ctx, ConsentRequestInput{
		StudentID:   input.StudentID,
		ParentEmail: account.ParentEmail,
		Actor:       input.Actor,
		Metadata:    input.Metadata,
		Result:      requestResult,
	}); err != nil {
		return err
	}

	if input.Result != nil {
		*input.Result = ConsentResendResult{
			Ref:         requestResult.Ref,
			ParentEmail: requestResult.ParentEmail,
			Invalidated: invalidated,
		}
	}
	return nil
}

package command

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-consent/codec"
	"github.com/goliatone/go-consent/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// ConsentVerifyInput redeems the raw token a guardian received by email.
type ConsentVerifyInput struct {
	StudentID uuid.UUID
	Token     string
	Result    *ConsentVerifyResult
}

// Type implements gocommand.Message.
func (ConsentVerifyInput) Type() string {
	return "command.consent.verify"
}

// Validate implements gocommand.Message.
func (input ConsentVerifyInput) Validate() error {
	switch {
	case input.StudentID == uuid.Nil:
		return ErrStudentIDRequired
	case strings.TrimSpace(input.Token) == "":
		return ErrTokenRequired
	default:
		return nil
	}
}

// ConsentVerifyResult carries the activated account.
type ConsentVerifyResult struct {
	Account *types.Account
}

// ConsentVerifyCommand validates a consent token, consumes it, and activates
// the account. There is no actor authorization on this command: guardians act
// through an emailed link without holding an account, so possession of the
// token is the proof of authorization.
//
// Token consumption and account activation are two independent writes against
// pluggable repositories, so a crash between them can leave a consumed token
// with a still-pending account. The state is recoverable: the guardian
// requests a fresh link via resend and verifies again.
type ConsentVerifyCommand struct {
	accounts types.AccountRepository
	tokens   types.ConsentTokenRepository
	hasher   types.TokenHasher
	clock    types.Clock
	sink     types.AuditSink
	hooks    types.Hooks
	logger   types.Logger
}

// ConsentVerifyConfig holds dependencies for verification.
type ConsentVerifyConfig struct {
	Accounts    types.AccountRepository
	Tokens      types.ConsentTokenRepository
	TokenHasher types.TokenHasher
	Clock       types.Clock
	Audit       types.AuditSink
	Hooks       types.Hooks
	Logger      types.Logger
}

// NewConsentVerifyCommand constructs the verification handler.
func NewConsentVerifyCommand(cfg ConsentVerifyConfig) *ConsentVerifyCommand {
	hasher := cfg.TokenHasher
	if hasher == nil {
		hasher = codec.Hasher{}
	}
	return &ConsentVerifyCommand{
		accounts: cfg.Accounts,
		tokens:   cfg.Tokens,
		hasher:   hasher,
		clock:    safeClock(cfg.Clock),
		sink:     cfg.Audit,
		hooks:    safeHooks(cfg.Hooks),
		logger:   safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[ConsentVerifyInput] = (*ConsentVerifyCommand)(nil)

// Execute redeems the token. Every token-shaped failure (missing, already
// used, expired, wrong student) collapses into ErrInvalidOrExpiredToken so
// callers cannot probe which condition failed or whether the student exists.
func (c *ConsentVerifyCommand) Execute(ctx context.Context, input ConsentVerifyInput) error {
	if c.accounts == nil {
		return types.ErrMissingAccountRepository
	}
	if c.tokens == nil {
		return types.ErrMissingTokenRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	digest := c.hasher.Hash(strings.TrimSpace(input.Token))
	record, err := c.tokens.GetTokenByHash(ctx, input.StudentID, digest)
	if err != nil {
		return types.WrapStorage(err, "consent verify: token lookup failed")
	}
	verifiedAt := now(c.clock)
	if record == nil {
		return types.ErrInvalidOrExpiredToken
	}
	if !record.Usable(verifiedAt) {
		// The caller sees one generic error; the distinction stays internal.
		if !record.UsedAt.IsZero() {
			c.logger.Debug("go-consent: verification hit a consumed token",
				"student_id", input.StudentID.String())
		} else {
			c.logger.Debug("go-consent: verification hit an expired token",
				"student_id", input.StudentID.String())
		}
		return types.ErrInvalidOrExpiredToken
	}

	// Token consumption is the first mutation so a concurrent duplicate
	// attempt loses the compare-and-set race and fails here.
	if err := c.tokens.ConsumeToken(ctx, record.ID, verifiedAt); err != nil {
		if errors.Is(err, types.ErrTokenNotUsable) ||
			repository.IsSQLExpectedCountViolation(err) ||
			repository.IsRecordNotFound(err) {
			return types.ErrInvalidOrExpiredToken
		}
		return types.WrapStorage(err, "consent verify: token consume failed")
	}

	account, err := c.accounts.MarkVerified(ctx, input.StudentID, verifiedAt)
	if err != nil {
		// The token is spent but the account never activated. Surface the
		// storage failure; a resend issues a fresh token.
		return types.WrapStorage(err, "consent verify: account activation failed")
	}
	if account == nil {
		return types.ErrAccountNotFound
	}

	record.UsedAt = verifiedAt
	logAudit(ctx, c.sink, c.logger, types.AuditRecord{
		StudentID:   input.StudentID,
		ParentEmail: account.ParentEmail,
		Action:      types.ConsentActionVerified,
		Data: map[string]any{
			"token_id": record.ID.String(),
		},
		OccurredAt: verifiedAt,
	})
	emitConsentHook(ctx, c.hooks, types.ConsentEvent{
		StudentID:  input.StudentID,
		ActorID:    input.StudentID,
		Action:     types.ConsentActionVerified,
		OccurredAt: verifiedAt,
	})

	if input.Result != nil {
		input.Result.Account = account
	}
	return nil
}

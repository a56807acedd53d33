package command

import (
	"context"
	"strings"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-consent/authz"
	"github.com/goliatone/go-consent/codec"
	"github.com/goliatone/go-consent/pkg/types"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

const defaultConsentTokenTTL = 7 * 24 * time.Hour

// ConsentRequestInput asks for a new guardian verification link.
type ConsentRequestInput struct {
	StudentID   uuid.UUID
	ParentEmail string
	Actor       types.ActorRef
	Metadata    map[string]any
	Result      *ConsentRequestResult
}

// Type implements gocommand.Message.
func (ConsentRequestInput) Type() string {
	return "command.consent.request"
}

// Validate implements gocommand.Message.
func (input ConsentRequestInput) Validate() error {
	switch {
	case input.StudentID == uuid.Nil:
		return ErrStudentIDRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// ConsentRequestResult exposes the created verification reference. Ref.Token
// holds the only copy of the raw token; callers hand it to the email
// collaborator and drop it.
type ConsentRequestResult struct {
	Ref         types.VerificationRef
	ParentEmail string
}

// ConsentRequestCommand issues consent tokens and records lifecycle metadata.
type ConsentRequestCommand struct {
	accounts types.AccountRepository
	tokens   types.ConsentTokenRepository
	builder  types.ReferenceBuilder
	source   types.TokenSource
	hasher   types.TokenHasher
	gate     authz.Gate
	features featuregate.FeatureGate
	clock    types.Clock
	idGen    types.IDGenerator
	sink     types.AuditSink
	hooks    types.Hooks
	logger   types.Logger
	tokenTTL time.Duration
}

// ConsentRequestConfig holds dependencies for token issuance.
type ConsentRequestConfig struct {
	Accounts    types.AccountRepository
	Tokens      types.ConsentTokenRepository
	Builder     types.ReferenceBuilder
	TokenSource types.TokenSource
	TokenHasher types.TokenHasher
	Gate        authz.Gate
	Features    featuregate.FeatureGate
	Clock       types.Clock
	IDGen       types.IDGenerator
	Audit       types.AuditSink
	Hooks       types.Hooks
	Logger      types.Logger
	TokenTTL    time.Duration
}

// NewConsentRequestCommand constructs the issuance handler.
func NewConsentRequestCommand(cfg ConsentRequestConfig) *ConsentRequestCommand {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultConsentTokenTTL
	}
	source := cfg.TokenSource
	if source == nil {
		source = codec.Source{}
	}
	hasher := cfg.TokenHasher
	if hasher == nil {
		hasher = codec.Hasher{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	return &ConsentRequestCommand{
		accounts: cfg.Accounts,
		tokens:   cfg.Tokens,
		builder:  cfg.Builder,
		source:   source,
		hasher:   hasher,
		gate:     authz.Ensure(cfg.Gate),
		features: cfg.Features,
		clock:    safeClock(cfg.Clock),
		idGen:    idGen,
		sink:     cfg.Audit,
		hooks:    safeHooks(cfg.Hooks),
		logger:   safeLogger(cfg.Logger),
		tokenTTL: ttl,
	}
}

var _ gocommand.Commander[ConsentRequestInput] = (*ConsentRequestCommand)(nil)

// Execute issues a consent token for the student and returns the verification
// reference. The raw token is exposed here and nowhere else.
func (c *ConsentRequestCommand) Execute(ctx context.Context, input ConsentRequestInput) error {
	if c.accounts == nil {
		return types.ErrMissingAccountRepository
	}
	if c.tokens == nil {
		return types.ErrMissingTokenRepository
	}
	if c.builder == nil {
		return types.ErrMissingReferenceBuilder
	}
	if err := input.Validate(); err != nil {
		return err
	}
	if err := c.gate.Authorize(ctx, input.Actor, input.StudentID); err != nil {
		return err
	}
	enabled, err := featureEnabled(ctx, c.features, featureConsentRequest, input.StudentID)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrConsentRequestDisabled
	}

	account, err := c.accounts.GetAccount(ctx, input.StudentID)
	if err != nil {
		return types.WrapStorage(err, "consent request: account lookup failed")
	}
	if account == nil {
		return types.ErrAccountNotFound
	}

	parentEmail := strings.TrimSpace(input.ParentEmail)
	if parentEmail == "" {
		parentEmail = strings.TrimSpace(account.ParentEmail)
	}
	if parentEmail == "" {
		return types.ErrNoParentEmailOnFile
	}

	raw, err := c.source.Generate()
	if err != nil {
		return err
	}

	issuedAt := now(c.clock)
	expiresAt := issuedAt.Add(c.tokenTTL)
	token := types.ConsentToken{
		ID:        c.idGen.UUID(),
		StudentID: input.StudentID,
		TokenHash: c.hasher.Hash(raw),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}
	created, err := c.tokens.CreateToken(ctx, token)
	if err != nil {
		return types.WrapStorage(err, "consent request: token create failed")
	}

	url, err := c.builder.Build(input.StudentID, raw, expiresAt)
	if err != nil {
		return err
	}

	data := map[string]any{
		"token_id":   created.ID.String(),
		"expires_at": expiresAt,
	}
	if len(input.Metadata) > 0 {
		data["metadata"] = cloneMap(input.Metadata)
	}
	record := types.AuditRecord{
		StudentID:   input.StudentID,
		ParentEmail: parentEmail,
		Action:      types.ConsentActionRequested,
		Data:        data,
		OccurredAt:  issuedAt,
	}
	logAudit(ctx, c.sink, c.logger, record)
	emitConsentHook(ctx, c.hooks, types.ConsentEvent{
		StudentID:  input.StudentID,
		ActorID:    input.Actor.ID,
		Action:     types.ConsentActionRequested,
		OccurredAt: issuedAt,
		ExpiresAt:  expiresAt,
		Metadata:   input.Metadata,
	})

	if input.Result != nil {
		*input.Result = ConsentRequestResult{
			Ref: types.VerificationRef{
				URL:       url,
				Token:     raw,
				StudentID: input.StudentID,
				ExpiresAt: expiresAt,
			},
			ParentEmail: parentEmail,
		}
	}
	return nil
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

package service

import (
	"context"
	"time"

	"github.com/goliatone/go-consent/authz"
	"github.com/goliatone/go-consent/command"
	"github.com/goliatone/go-consent/pkg/types"
	"github.com/goliatone/go-consent/query"
	featuregate "github.com/goliatone/go-featuregate/gate"
)

// Service is the entry point for go-consent. It wires repositories, hooks,
// and command/query facades supplied by the host application.
type Service struct {
	cfg       Config
	commands  Commands
	queries   Queries
	auditRepo types.AuditRepository
	gate      authz.Gate
}

// Commands exposes the consent lifecycle command handlers.
type Commands struct {
	Request *command.ConsentRequestCommand
	Verify  *command.ConsentVerifyCommand
	Resend  *command.ConsentResendCommand
	Revoke  *command.ConsentRevokeCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	Status     *query.ConsentStatusQuery
	Pending    *query.PendingRequestQuery
	AuditFeed  *query.AuditFeedQuery
	AuditStats *query.AuditStatsQuery
}

// Config captures all required dependencies so callers can provide their own
// instances (bun.DB-backed repositories, adapters, hooks, etc.).
type Config struct {
	AccountRepository types.AccountRepository
	TokenRepository   types.ConsentTokenRepository
	ReferenceBuilder  types.ReferenceBuilder
	AuditSink         types.AuditSink
	// AuditRepository defaults to the sink when it also implements the read
	// side, as the bun-backed repository does.
	AuditRepository types.AuditRepository
	TokenSource     types.TokenSource
	TokenHasher     types.TokenHasher
	Gate            authz.Gate
	RevokeGate      authz.Gate
	Features        featuregate.FeatureGate
	Sanitizer       query.RecordSanitizer
	Hooks           types.Hooks
	Clock           types.Clock
	IDGenerator     types.IDGenerator
	Logger          types.Logger
	TokenTTL        time.Duration
	GracePeriod     time.Duration
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)
	auditRepo := norm.AuditRepository
	if auditRepo == nil {
		if sinkRepo, ok := norm.AuditSink.(types.AuditRepository); ok {
			auditRepo = sinkRepo
		}
	}

	s := &Service{
		cfg:       norm,
		auditRepo: auditRepo,
		gate:      authz.Ensure(norm.Gate),
	}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	return cfg
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// AuditSink returns the configured sink so hosts can emit supplemental
// entries (e.g. export or deletion jobs) into the same log.
func (s *Service) AuditSink() types.AuditSink {
	if s == nil {
		return nil
	}
	return s.cfg.AuditSink
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil &&
		s.cfg.AccountRepository != nil &&
		s.cfg.TokenRepository != nil &&
		s.cfg.ReferenceBuilder != nil
}

// HealthCheck surfaces missing configuration for upstream transports
// (REST/jobs) before they accept traffic.
func (s *Service) HealthCheck(ctx context.Context) error {
	if !s.Ready() {
		return types.ErrServiceNotReady
	}
	if s.cfg.AccountRepository == nil {
		return types.ErrMissingAccountRepository
	}
	if s.cfg.TokenRepository == nil {
		return types.ErrMissingTokenRepository
	}
	if s.cfg.ReferenceBuilder == nil {
		return types.ErrMissingReferenceBuilder
	}
	return nil
}

func (s *Service) buildCommands() Commands {
	request := command.NewConsentRequestCommand(command.ConsentRequestConfig{
		Accounts:    s.cfg.AccountRepository,
		Tokens:      s.cfg.TokenRepository,
		Builder:     s.cfg.ReferenceBuilder,
		TokenSource: s.cfg.TokenSource,
		TokenHasher: s.cfg.TokenHasher,
		Gate:        s.gate,
		Features:    s.cfg.Features,
		Clock:       s.cfg.Clock,
		IDGen:       s.cfg.IDGenerator,
		Audit:       s.cfg.AuditSink,
		Hooks:       s.cfg.Hooks,
		Logger:      s.cfg.Logger,
		TokenTTL:    s.cfg.TokenTTL,
	})
	return Commands{
		Request: request,
		Verify: command.NewConsentVerifyCommand(command.ConsentVerifyConfig{
			Accounts:    s.cfg.AccountRepository,
			Tokens:      s.cfg.TokenRepository,
			TokenHasher: s.cfg.TokenHasher,
			Clock:       s.cfg.Clock,
			Audit:       s.cfg.AuditSink,
			Hooks:       s.cfg.Hooks,
			Logger:      s.cfg.Logger,
		}),
		Resend: command.NewConsentResendCommand(command.ConsentResendConfig{
			Accounts: s.cfg.AccountRepository,
			Tokens:   s.cfg.TokenRepository,
			Request:  request,
			Gate:     s.gate,
			Features: s.cfg.Features,
			Clock:    s.cfg.Clock,
			Logger:   s.cfg.Logger,
		}),
		Revoke: command.NewConsentRevokeCommand(command.ConsentRevokeConfig{
			Accounts:    s.cfg.AccountRepository,
			Gate:        s.cfg.RevokeGate,
			Clock:       s.cfg.Clock,
			Audit:       s.cfg.AuditSink,
			Hooks:       s.cfg.Hooks,
			Logger:      s.cfg.Logger,
			GracePeriod: s.cfg.GracePeriod,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	return Queries{
		Status:     query.NewConsentStatusQuery(s.cfg.AccountRepository, s.gate),
		Pending:    query.NewPendingRequestQuery(s.cfg.TokenRepository, s.gate, s.cfg.Clock),
		AuditFeed:  query.NewAuditFeedQuery(s.auditRepo, s.gate, s.cfg.Sanitizer),
		AuditStats: query.NewAuditStatsQuery(s.auditRepo, s.gate),
	}
}

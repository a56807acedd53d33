package types

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConsentAction enumerates the auditable consent lifecycle actions.
type ConsentAction string

const (
	ConsentActionRequested ConsentAction = "requested"
	ConsentActionVerified  ConsentAction = "verified"
	ConsentActionRevoked   ConsentAction = "revoked"
)

// ActorRef identifies who triggered a command. For self-service consent flows
// the actor is the student; operators use Type "system" or "admin".
type ActorRef struct {
	ID   uuid.UUID
	Type string
}

// Pagination supports audit feed pagination.
type Pagination struct {
	Limit  int
	Offset int
}

// ConsentEvent is emitted after a consent lifecycle action completes.
type ConsentEvent struct {
	StudentID  uuid.UUID
	ActorID    uuid.UUID
	Action     ConsentAction
	OccurredAt time.Time
	ExpiresAt  time.Time
	Metadata   map[string]any
}

// Hooks groups optional callbacks invoked after key workflows complete. The
// audit sink always runs before hooks.
type Hooks struct {
	AfterConsent func(context.Context, ConsentEvent)
}

// AuditRecord describes a consent_log entry. Entries are append-only: once
// written they are never updated or deleted.
type AuditRecord struct {
	ID          uuid.UUID
	StudentID   uuid.UUID
	ParentEmail string
	Action      ConsentAction
	Data        map[string]any
	OccurredAt  time.Time
}

// AuditSink is the minimal DI contract for emitting consent audit entries.
// Writes are advisory: callers must not fail their primary operation when a
// sink write errors.
type AuditSink interface {
	Log(context.Context, AuditRecord) error
}

// AuditFilter narrows audit feed queries. Feeds are per student; compliance
// review walks one account's history at a time.
type AuditFilter struct {
	Actor      ActorRef
	StudentID  uuid.UUID
	Actions    []ConsentAction
	Since      time.Time
	Until      time.Time
	Pagination Pagination
}

// Type implements gocommand.Message for query inputs.
func (AuditFilter) Type() string {
	return "query.consent.audit"
}

// Validate implements gocommand.Message.
func (filter AuditFilter) Validate() error {
	if filter.StudentID == uuid.Nil {
		return ErrStudentIDRequired
	}
	return nil
}

// AuditPage is a paginated slice of audit records.
type AuditPage struct {
	Records    []AuditRecord
	Total      int
	NextOffset int
	HasMore    bool
}

// AuditStats aggregates audit entries by action.
type AuditStats struct {
	Total    int
	ByAction map[ConsentAction]int
}

// AuditRepository exposes read-side access to the consent log.
type AuditRepository interface {
	ListConsentLog(ctx context.Context, filter AuditFilter) (AuditPage, error)
	ConsentLogStats(ctx context.Context, studentID uuid.UUID) (AuditStats, error)
}

// Clock abstracts time retrieval so expiry logic is testable with simulated
// time rather than real sleeps.
type Clock interface {
	Now() time.Time
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID returns a randomly generated UUID.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// Logger captures basic logging hooks used by the library.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

// TokenSource produces raw consent tokens. Implementations must draw from a
// cryptographically secure random source with at least 128 bits of entropy.
// The raw value is handed to the guardian inside the verification reference
// and is never persisted; only its digest reaches storage.
type TokenSource interface {
	Generate() (string, error)
}

// TokenHasher digests raw tokens for storage. Hashing is deterministic and
// one-way; the store never sees raw secret material.
type TokenHasher interface {
	Hash(raw string) string
}

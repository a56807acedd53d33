package types

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConsentToken captures persisted consent token metadata. The raw token never
// reaches this struct; TokenHash is the one-way digest computed before
// storage. A token is usable while UsedAt is zero and ExpiresAt is in the
// future. UsedAt is set exactly once, on verification or invalidation, and is
// never cleared.
type ConsentToken struct {
	ID        uuid.UUID
	StudentID uuid.UUID
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	UsedAt    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether the token can still be consumed at the given time.
func (t *ConsentToken) Usable(now time.Time) bool {
	if t == nil {
		return false
	}
	return t.UsedAt.IsZero() && now.Before(t.ExpiresAt)
}

// ConsentTokenRepository persists consent tokens. Rows are never physically
// deleted; they age out logically via used_at and expires_at.
type ConsentTokenRepository interface {
	CreateToken(ctx context.Context, token ConsentToken) (*ConsentToken, error)

	// GetTokenByHash returns the token matching the student and digest, or
	// nil when no row matches. Expired and used rows are still returned so
	// callers can log the distinction internally.
	GetTokenByHash(ctx context.Context, studentID uuid.UUID, tokenHash string) (*ConsentToken, error)

	// ConsumeToken marks the token used, compare-and-set style: the update
	// only applies while used_at is unset and expires_at is still in the
	// future. A concurrent duplicate attempt loses the race and receives
	// an expected-count error.
	ConsumeToken(ctx context.Context, id uuid.UUID, usedAt time.Time) error

	// InvalidateTokens stamps used_at on every still-unused token for the
	// student and reports how many rows were touched.
	InvalidateTokens(ctx context.Context, studentID uuid.UUID, usedAt time.Time) (int, error)

	// GetLatestUsable returns the most recently issued token that is still
	// unused and unexpired, or nil when none exists.
	GetLatestUsable(ctx context.Context, studentID uuid.UUID, now time.Time) (*ConsentToken, error)
}

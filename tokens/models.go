package tokens

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the persisted consent_tokens row. The raw token never reaches
// this table; token_hash holds its one-way digest.
type Record struct {
	bun.BaseModel `bun:"table:consent_tokens"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid"`
	StudentID uuid.UUID  `bun:"student_id,notnull,type:uuid"`
	TokenHash string     `bun:"token_hash,notnull"`
	IssuedAt  *time.Time `bun:"issued_at,nullzero"`
	ExpiresAt *time.Time `bun:"expires_at,nullzero"`
	UsedAt    *time.Time `bun:"used_at,nullzero"`
	CreatedAt time.Time  `bun:"created_at"`
	UpdatedAt time.Time  `bun:"updated_at"`
}

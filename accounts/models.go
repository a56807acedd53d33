package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the persisted accounts row.
type Record struct {
	bun.BaseModel `bun:"table:accounts"`

	ID                  uuid.UUID  `bun:"id,pk,type:uuid"`
	IsUnder13           bool       `bun:"is_under13,notnull"`
	ParentEmail         string     `bun:"parent_email,nullzero"`
	Status              string     `bun:"status,notnull"`
	ConsentVerifiedAt   *time.Time `bun:"consent_verified_at,nullzero"`
	ConsentRevokedAt    *time.Time `bun:"consent_revoked_at,nullzero"`
	DeletionRequestedAt *time.Time `bun:"deletion_requested_at,nullzero"`
	DeletionScheduledAt *time.Time `bun:"deletion_scheduled_at,nullzero"`
	CreatedAt           time.Time  `bun:"created_at"`
	UpdatedAt           time.Time  `bun:"updated_at"`
}

package audit

import (
	"time"

	"github.com/goliatone/go-consent/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LogEntry models the persisted row in consent_log.
type LogEntry struct {
	bun.BaseModel `bun:"table:consent_log"`

	ID          uuid.UUID      `bun:",pk,type:uuid"`
	StudentID   uuid.UUID      `bun:"student_id,type:uuid"`
	ParentEmail string         `bun:"parent_email"`
	Action      string         `bun:"action"`
	Data        map[string]any `bun:"data,type:jsonb"`
	OccurredAt  time.Time      `bun:"occurred_at"`
	CreatedAt   time.Time      `bun:"created_at"`
}

func toLogEntry(record types.AuditRecord) *LogEntry {
	return &LogEntry{
		ID:          record.ID,
		StudentID:   record.StudentID,
		ParentEmail: record.ParentEmail,
		Action:      string(record.Action),
		Data:        record.Data,
		OccurredAt:  record.OccurredAt,
	}
}

func toAuditRecord(entry *LogEntry) types.AuditRecord {
	if entry == nil {
		return types.AuditRecord{}
	}
	return types.AuditRecord{
		ID:          entry.ID,
		StudentID:   entry.StudentID,
		ParentEmail: entry.ParentEmail,
		Action:      types.ConsentAction(entry.Action),
		Data:        entry.Data,
		OccurredAt:  entry.OccurredAt,
	}
}

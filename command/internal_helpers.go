package command

import (
	"context"
	"time"

	"github.com/goliatone/go-consent/pkg/types"
)

func safeClock(clock types.Clock) types.Clock {
	if clock != nil {
		return clock
	}
	return types.SystemClock{}
}

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func safeHooks(hooks types.Hooks) types.Hooks {
	return hooks
}

func now(clock types.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now()
}

// logAudit writes the audit entry best-effort. The consent log is advisory:
// a failed write must never roll back the state transition it documents, so
// errors surface through the logger only.
func logAudit(ctx context.Context, sink types.AuditSink, logger types.Logger, record types.AuditRecord) {
	if sink == nil {
		return
	}
	if err := sink.Log(ctx, record); err != nil {
		safeLogger(logger).Error("go-consent: audit write failed", err,
			"student_id", record.StudentID.String(),
			"action", string(record.Action))
	}
}

func emitConsentHook(ctx context.Context, hooks types.Hooks, event types.ConsentEvent) {
	if hooks.AfterConsent == nil {
		return
	}
	hooks.AfterConsent(ctx, event)
}

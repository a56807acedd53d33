package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-consent/authz"
	"github.com/goliatone/go-consent/pkg/types"
	"github.com/google/uuid"
)

// RecordSanitizer redacts sensitive values before audit records leave the
// library. The canonical implementation lives in the audit package and masks
// guardian contact details.
type RecordSanitizer interface {
	Sanitize(types.AuditRecord) types.AuditRecord
}

// AuditFeedQuery renders paginated consent history for compliance review.
type AuditFeedQuery struct {
	repo      types.AuditRepository
	gate      authz.Gate
	sanitizer RecordSanitizer
}

// NewAuditFeedQuery constructs the feed reader. A nil sanitizer returns
// records verbatim; hosts exposing feeds beyond trusted operators should
// supply one.
func NewAuditFeedQuery(repo types.AuditRepository, gate authz.Gate, sanitizer RecordSanitizer) *AuditFeedQuery {
	return &AuditFeedQuery{
		repo:      repo,
		gate:      authz.Ensure(gate),
		sanitizer: sanitizer,
	}
}

var _ gocommand.Querier[types.AuditFilter, types.AuditPage] = (*AuditFeedQuery)(nil)

// Query fetches a page of consent log entries via the injected repository.
func (q *AuditFeedQuery) Query(ctx context.Context, filter types.AuditFilter) (types.AuditPage, error) {
	if q.repo == nil {
		return types.AuditPage{}, types.ErrMissingAuditRepository
	}
	if err := filter.Validate(); err != nil {
		return types.AuditPage{}, err
	}
	if err := q.gate.Authorize(ctx, filter.Actor, filter.StudentID); err != nil {
		return types.AuditPage{}, err
	}

	page, err := q.repo.ListConsentLog(ctx, filter)
	if err != nil {
		return types.AuditPage{}, types.WrapStorage(err, "consent audit: feed query failed")
	}
	if q.sanitizer != nil {
		for i := range page.Records {
			page.Records[i] = q.sanitizer.Sanitize(page.Records[i])
		}
	}
	return page, nil
}

// AuditStatsInput scopes aggregate consent log counts.
type AuditStatsInput struct {
	StudentID uuid.UUID
	Actor     types.ActorRef
}

// Type implements gocommand.Message for query inputs.
func (AuditStatsInput) Type() string {
	return "query.consent.audit.stats"
}

// Validate implements gocommand.Message.
func (input AuditStatsInput) Validate() error {
	if input.StudentID == uuid.Nil {
		return types.ErrStudentIDRequired
	}
	return nil
}

// AuditStatsQuery aggregates consent log entries per action.
type AuditStatsQuery struct {
	repo types.AuditRepository
	gate authz.Gate
}

// NewAuditStatsQuery constructs the stats reader.
func NewAuditStatsQuery(repo types.AuditRepository, gate authz.Gate) *AuditStatsQuery {
	return &AuditStatsQuery{
		repo: repo,
		gate: authz.Ensure(gate),
	}
}

var _ gocommand.Querier[AuditStatsInput, types.AuditStats] = (*AuditStatsQuery)(nil)

// Query returns aggregate counts for the student's consent history.
func (q *AuditStatsQuery) Query(ctx context.Context, input AuditStatsInput) (types.AuditStats, error) {
	if q.repo == nil {
		return types.AuditStats{}, types.ErrMissingAuditRepository
	}
	if err := input.Validate(); err != nil {
		return types.AuditStats{}, err
	}
	if err := q.gate.Authorize(ctx, input.Actor, input.StudentID); err != nil {
		return types.AuditStats{}, err
	}

	stats, err := q.repo.ConsentLogStats(ctx, input.StudentID)
	if err != nil {
		return types.AuditStats{}, types.WrapStorage(err, "consent audit: stats query failed")
	}
	return stats, nil
}

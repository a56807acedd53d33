package command

import (
	"errors"

	"github.com/goliatone/go-consent/pkg/types"
)

var (
	// ErrStudentIDRequired indicates a command was invoked without a student id.
	ErrStudentIDRequired = types.ErrStudentIDRequired
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = errors.New("go-consent: actor reference required")
	// ErrParentEmailRequired indicates an issue request omitted the guardian email.
	ErrParentEmailRequired = errors.New("go-consent: parent email required")
	// ErrTokenRequired indicates a verification was attempted without a raw token.
	ErrTokenRequired = errors.New("go-consent: token required")
	// ErrRequestCommandRequired indicates the resend handler is missing its
	// delegate issuer.
	ErrRequestCommandRequired = errors.New("go-consent: consent request command required")
	// ErrConsentRequestDisabled indicates issuance is disabled via feature gate.
	ErrConsentRequestDisabled = errors.New("go-consent: consent request disabled")
	// ErrConsentResendDisabled indicates resend is disabled via feature gate.
	ErrConsentResendDisabled = errors.New("go-consent: consent resend disabled")
)

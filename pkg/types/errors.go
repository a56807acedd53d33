package types

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const textCodeStorage = "STORAGE_ERROR"

var (
	// ErrUnauthorized indicates the caller is not the subject account.
	ErrUnauthorized = errors.New("go-consent: caller not authorized for student account")
	// ErrInvalidOrExpiredToken covers token not found, already used, wrong
	// student, and past expiry. The cases are deliberately conflated so the
	// error never reveals which condition failed.
	ErrInvalidOrExpiredToken = errors.New("go-consent: invalid or expired consent token")
	// ErrNoParentEmailOnFile indicates a resend was attempted with no
	// guardian destination on the account.
	ErrNoParentEmailOnFile = errors.New("go-consent: no parent email on file")
	// ErrAccountNotFound indicates the student account does not exist.
	ErrAccountNotFound = errors.New("go-consent: account not found")
	// ErrTokenNotUsable signals a consume attempt on a token that is already
	// used or expired. Repositories return it (or an expected-count error)
	// when the compare-and-set update touches zero rows.
	ErrTokenNotUsable = errors.New("go-consent: token not usable")

	// ErrMissingAccountRepository occurs when account persistence is unavailable.
	ErrMissingAccountRepository = errors.New("go-consent: missing account repository")
	// ErrMissingTokenRepository occurs when token persistence is unavailable.
	ErrMissingTokenRepository = errors.New("go-consent: missing consent token repository")
	// ErrMissingReferenceBuilder occurs when no reference builder is configured.
	ErrMissingReferenceBuilder = errors.New("go-consent: missing reference builder")
	// ErrMissingAuditRepository occurs when the audit read side is unavailable.
	ErrMissingAuditRepository = errors.New("go-consent: missing audit repository")
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("go-consent: service not ready")
	// ErrStudentIDRequired indicates a student identifier was omitted.
	ErrStudentIDRequired = errors.New("go-consent: student id required")
)

// WrapStorage tags a persistence failure so transports can map it without
// string-matching on messages.
func WrapStorage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithCode(goerrors.CodeInternal).
		WithTextCode(textCodeStorage)
}

// IsStorageError reports whether err carries the storage failure envelope.
func IsStorageError(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == textCodeStorage
}

// Package reference renders the verification links handed to guardians.
package reference

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-consent/pkg/types"
	"github.com/google/uuid"
)

const (
	defaultVerifyPath   = "/consent/verify"
	defaultTokenParam   = "token"
	defaultStudentParam = "student"
)

// Config controls the shape of generated verification URLs.
type Config struct {
	// BaseURL is the host-facing origin, e.g. https://app.example.com.
	BaseURL string
	// VerifyPath defaults to /consent/verify.
	VerifyPath string
	// TokenParam defaults to token.
	TokenParam string
	// StudentParam defaults to student.
	StudentParam string
}

// Builder renders plain verification URLs with the raw token carried as a
// query parameter. Hosts wanting tamper-evident links use the securelink
// adapter instead.
type Builder struct {
	base         *url.URL
	verifyPath   string
	tokenParam   string
	studentParam string
}

// NewBuilder constructs the default verification link builder.
func NewBuilder(cfg Config) (*Builder, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("reference: base url required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.New("reference: base url must be absolute")
	}
	verifyPath := cfg.VerifyPath
	if verifyPath == "" {
		verifyPath = defaultVerifyPath
	}
	tokenParam := cfg.TokenParam
	if tokenParam == "" {
		tokenParam = defaultTokenParam
	}
	studentParam := cfg.StudentParam
	if studentParam == "" {
		studentParam = defaultStudentParam
	}
	return &Builder{
		base:         base,
		verifyPath:   verifyPath,
		tokenParam:   tokenParam,
		studentParam: studentParam,
	}, nil
}

var _ types.ReferenceBuilder = (*Builder)(nil)

// Build renders the verification URL for the supplied token.
func (b *Builder) Build(studentID uuid.UUID, rawToken string, _ time.Time) (string, error) {
	if b == nil || b.base == nil {
		return "", errors.New("reference: builder not configured")
	}
	if studentID == uuid.Nil {
		return "", types.ErrStudentIDRequired
	}
	if strings.TrimSpace(rawToken) == "" {
		return "", errors.New("reference: raw token required")
	}
	target := *b.base
	target.Path = strings.TrimSuffix(target.Path, "/") + b.verifyPath
	query := target.Query()
	query.Set(b.tokenParam, rawToken)
	query.Set(b.studentParam, studentID.String())
	target.RawQuery = query.Encode()
	return target.String(), nil
}

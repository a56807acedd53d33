package reference

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBuilder_RendersVerificationURL(t *testing.T) {
	builder, err := NewBuilder(Config{BaseURL: "https://app.example.com"})
	require.NoError(t, err)

	studentID := uuid.New()
	link, err := builder.Build(studentID, "raw-token", time.Now())
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	require.Equal(t, "https", parsed.Scheme)
	require.Equal(t, "app.example.com", parsed.Host)
	require.Equal(t, "/consent/verify", parsed.Path)
	require.Equal(t, "raw-token", parsed.Query().Get("token"))
	require.Equal(t, studentID.String(), parsed.Query().Get("student"))
}

func TestBuilder_CustomPathAndParams(t *testing.T) {
	builder, err := NewBuilder(Config{
		BaseURL:      "https://app.example.com/portal",
		VerifyPath:   "/guardian/confirm",
		TokenParam:   "t",
		StudentParam: "sid",
	})
	require.NoError(t, err)

	studentID := uuid.New()
	link, err := builder.Build(studentID, "raw-token", time.Now())
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	require.Equal(t, "/portal/guardian/confirm", parsed.Path)
	require.Equal(t, "raw-token", parsed.Query().Get("t"))
	require.Equal(t, studentID.String(), parsed.Query().Get("sid"))
}

func TestBuilder_RejectsBadInput(t *testing.T) {
	_, err := NewBuilder(Config{})
	require.Error(t, err)

	_, err = NewBuilder(Config{BaseURL: "app.example.com/no-scheme"})
	require.Error(t, err)

	builder, err := NewBuilder(Config{BaseURL: "https://app.example.com"})
	require.NoError(t, err)

	_, err = builder.Build(uuid.Nil, "raw-token", time.Now())
	require.Error(t, err)

	_, err = builder.Build(uuid.New(), "  ", time.Now())
	require.Error(t, err)
}

package audit

import (
	"sync"

	"github.com/goliatone/go-consent/pkg/types"
	"github.com/goliatone/go-masker"
)

// SanitizerConfig controls the masker used for consent log sanitization.
type SanitizerConfig struct {
	Masker *masker.Masker
}

var defaultMaskerOnce sync.Once

// DefaultMasker returns a configured masker instance with the default
// denylist for guardian contact details.
func DefaultMasker() *masker.Masker {
	defaultMaskerOnce.Do(func() {
		if masker.Default == nil {
			return
		}
		registerDefaultMaskFields(masker.Default)
	})
	return masker.Default
}

// Sanitizer redacts guardian contact details before records leave trusted
// surfaces. It satisfies the feed query's sanitizer contract.
type Sanitizer struct {
	masker *masker.Masker
}

// NewSanitizer constructs a sanitizer. A nil config falls back to the
// default masker.
func NewSanitizer(cfg SanitizerConfig) *Sanitizer {
	mask := cfg.Masker
	if mask == nil {
		mask = DefaultMasker()
	}
	return &Sanitizer{masker: mask}
}

// Sanitize masks the guardian email and any sensitive data payload values.
func (s *Sanitizer) Sanitize(record types.AuditRecord) types.AuditRecord {
	mask := s.masker
	if mask == nil {
		mask = DefaultMasker()
	}
	if mask == nil {
		record.ParentEmail = ""
		record.Data = map[string]any{}
		return record
	}

	payload := cloneStringMap(record.Data)
	payload["parent_email"] = record.ParentEmail
	masked, err := mask.Mask(payload)
	if err != nil {
		record.ParentEmail = ""
		record.Data = map[string]any{}
		return record
	}

	switch masked := masked.(type) {
	case map[string]any:
		if email, ok := masked["parent_email"].(string); ok {
			record.ParentEmail = email
		}
		delete(masked, "parent_email")
		record.Data = masked
	default:
		record.ParentEmail = ""
		record.Data = map[string]any{}
	}
	return record
}

func registerDefaultMaskFields(mask *masker.Masker) {
	if mask == nil {
		return
	}
	mask.RegisterMaskField("parent_email", "filled4")
	mask.RegisterMaskField("email", "filled4")
	mask.RegisterMaskField("secret", "filled4")
}

func cloneStringMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

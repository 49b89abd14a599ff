// Package i18n localizes user-facing messages. Burmese and Thai locale
// files are embedded; unknown languages fall back to Burmese.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	payment "mahabote-web/internal/payment/domain"
)

//go:embed locales/*.json
var localeFS embed.FS

// Message ids used by the HTTP layer.
const (
	MsgDuplicateSlip      = "errorDuplicateSlip"
	MsgAmountMismatch     = "errorAmountMismatch"
	MsgInvalidSlipImage   = "errorInvalidSlipImage"
	MsgVerificationFailed = "errorVerificationFailed"
	MsgPaymentRequired    = "errorPaymentRequired"
	MsgPaymentVerified    = "paymentVerified"
)

// Messages translates message ids for a requested language.
type Messages struct {
	bundle *goi18n.Bundle
}

// Load parses the embedded locale files.
func Load() (*Messages, error) {
	bundle := goi18n.NewBundle(language.Burmese)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	paths, err := fs.Glob(localeFS, "locales/active.*.json")
	if err != nil {
		return nil, fmt.Errorf("i18n: list locales: %w", err)
	}
	for _, path := range paths {
		if _, err := bundle.LoadMessageFileFS(localeFS, path); err != nil {
			return nil, fmt.Errorf("i18n: load %s: %w", path, err)
		}
	}
	return &Messages{bundle: bundle}, nil
}

// Get translates a message id, falling back to the id itself when no
// translation exists.
func (m *Messages) Get(lang, id string) string {
	if m == nil || m.bundle == nil {
		return id
	}
	localizer := goi18n.NewLocalizer(m.bundle, lang)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{MessageID: id})
	if err != nil {
		return id
	}
	return msg
}

// FailureMessage maps a verification failure to a localized message.
func (m *Messages) FailureMessage(lang string, kind payment.FailureKind) string {
	switch kind {
	case payment.FailureDuplicateSlip:
		return m.Get(lang, MsgDuplicateSlip)
	case payment.FailureAmountMismatch:
		return m.Get(lang, MsgAmountMismatch)
	case payment.FailureInvalidSlipImage:
		return m.Get(lang, MsgInvalidSlipImage)
	default:
		return m.Get(lang, MsgVerificationFailed)
	}
}

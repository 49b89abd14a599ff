// Package audit records payment and chat activity for later review.
package audit

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Actions recorded by the service.
const (
	ActionPaymentStarted   = "payment.started"
	ActionPaymentCancelled = "payment.cancelled"
	ActionSlipVerified     = "payment.slip_verified"
	ActionQuestionAsked    = "chat.question_asked"
)

// Entry represents an audit log entry.
type Entry struct {
	ID            string
	SessionID     string
	Actor         string
	Role          string
	Action        string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NewID generates a random audit id.
func NewID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "audit-" + hex.EncodeToString(buf)
}

// DigestJSON computes a SHA256 hex digest for metadata payloads.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Package application orchestrates the payment-gated chat flow.
package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"mahabote-web/internal/observability/metrics"
	payment "mahabote-web/internal/payment/domain"
)

// SessionRepository persists gate sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *payment.GateSession) error
	Get(ctx context.Context, id string) (*payment.GateSession, error)
	Update(ctx context.Context, session *payment.GateSession) error
	ListAwaitingBefore(ctx context.Context, cutoff time.Time) ([]*payment.GateSession, error)
}

// AttemptRepository records verification attempts for the export trail.
type AttemptRepository interface {
	Record(ctx context.Context, attempt payment.Attempt) error
	List(ctx context.Context, limit int) ([]payment.Attempt, error)
}

// SlipVerifier checks a slip image against the expected amount. All
// outcomes resolve to a typed result, never an error.
type SlipVerifier interface {
	Verify(ctx context.Context, slip payment.SlipImage, expected payment.Amount) payment.VerificationResult
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// GateService drives the payment gate of chat sessions: fresh amount and
// QR payload per cycle, slip verification, unlock for exactly one
// question.
type GateService struct {
	sessions SessionRepository
	attempts AttemptRepository
	verifier SlipVerifier
	walletID string
	clock    Clock
	logger   *log.Logger
}

// NewGateService constructs a GateService. walletID is the PromptPay
// target credited by payments.
func NewGateService(sessions SessionRepository, attempts AttemptRepository, verifier SlipVerifier, walletID string, clock Clock, logger *log.Logger) (*GateService, error) {
	if sessions == nil {
		return nil, errors.New("gate service: nil session repository")
	}
	if verifier == nil {
		return nil, errors.New("gate service: nil verifier")
	}
	if walletID == "" {
		return nil, errors.New("gate service: empty wallet id")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &GateService{
		sessions: sessions,
		attempts: attempts,
		verifier: verifier,
		walletID: walletID,
		clock:    clock,
		logger:   logger,
	}, nil
}

// CreateSession opens a locked gate session tied to a stored reading.
func (s *GateService) CreateSession(ctx context.Context, readingID, lang string) (*payment.GateSession, error) {
	session := payment.NewGateSession(uuid.NewString(), readingID, lang, s.clock.Now())
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Session returns the current state of a gate session.
func (s *GateService) Session(ctx context.Context, id string) (*payment.GateSession, error) {
	return s.sessions.Get(ctx, id)
}

// StartPayment issues a fresh randomized amount and PromptPay payload and
// moves the gate to AwaitingPayment.
func (s *GateService) StartPayment(ctx context.Context, sessionID string) (*payment.GateSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	amount := payment.RandomAmount()
	payload, err := payment.PromptPayPayload(s.walletID, amount)
	if err != nil {
		return nil, err
	}
	if err := session.RequestPayment(amount, payload, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	metrics.PaymentStarted()
	return session, nil
}

// CancelPayment discards the pending payment cycle.
func (s *GateService) CancelPayment(ctx context.Context, sessionID string) (*payment.GateSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.CancelPayment(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitSlip verifies an uploaded slip against the session's pending
// amount. The Verifying state is persisted before the provider call so a
// concurrent upload is rejected, and the session always lands back in a
// stable state afterwards. The verification outcome is returned alongside
// the session; a failed verification is not an error.
func (s *GateService) SubmitSlip(ctx context.Context, sessionID string, slip payment.SlipImage) (*payment.GateSession, payment.VerificationResult, error) {
	var zero payment.VerificationResult
	if len(slip.Data) == 0 {
		return nil, zero, payment.ErrEmptySlip
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, zero, err
	}
	expected := session.Amount
	if err := session.BeginVerification(s.clock.Now()); err != nil {
		return nil, zero, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, zero, err
	}

	res := s.verifier.Verify(ctx, slip, expected)
	metrics.SlipVerified(res.Success, string(res.Kind))

	if err := session.CompleteVerification(res, s.clock.Now()); err != nil {
		return nil, zero, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, zero, err
	}
	s.recordAttempt(ctx, session, expected, res)
	return session, res, nil
}

// ConsumeTurn re-locks the gate after the single paid question resolved,
// successfully or not.
func (s *GateService) ConsumeTurn(ctx context.Context, sessionID string) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := session.ConsumeTurn(s.clock.Now()); err != nil {
		return err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return err
	}
	metrics.PaymentCycleCompleted()
	return nil
}

// RequireUnlocked fails with ErrChatLocked unless the session may ask its
// paid question now.
func (s *GateService) RequireUnlocked(ctx context.Context, sessionID string) (*payment.GateSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != payment.GateUnlocked {
		return nil, payment.ErrChatLocked
	}
	return session, nil
}

// ExpireStalePayments re-locks AwaitingPayment sessions older than the
// TTL. Returns how many sessions were expired.
func (s *GateService) ExpireStalePayments(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := s.clock.Now().Add(-ttl)
	stale, err := s.sessions.ListAwaitingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, session := range stale {
		if !session.ExpirePayment(s.clock.Now()) {
			continue
		}
		if err := s.sessions.Update(ctx, session); err != nil {
			s.logf("gate: expire session %s: %v", session.ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// Attempts lists recent verification attempts, newest first.
func (s *GateService) Attempts(ctx context.Context, limit int) ([]payment.Attempt, error) {
	if s.attempts == nil {
		return nil, nil
	}
	return s.attempts.List(ctx, limit)
}

func (s *GateService) recordAttempt(ctx context.Context, session *payment.GateSession, amount payment.Amount, res payment.VerificationResult) {
	if s.attempts == nil {
		return
	}
	attempt := payment.Attempt{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Amount:    amount,
		Success:   res.Success,
		Kind:      res.Kind,
		CreatedAt: s.clock.Now(),
	}
	if err := s.attempts.Record(ctx, attempt); err != nil {
		s.logf("gate: record attempt: %v", err)
	}
}

func (s *GateService) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

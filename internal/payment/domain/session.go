package payment

import "time"

// GateState is the payment gate position of a chat session.
type GateState string

const (
	// GateLocked means no payment cycle is active.
	GateLocked GateState = "locked"
	// GateAwaitingPayment means a QR payload has been issued and the gate
	// waits for a slip.
	GateAwaitingPayment GateState = "awaiting_payment"
	// GateVerifying means a slip is at the verification provider.
	GateVerifying GateState = "verifying"
	// GateUnlocked means one paid question may be asked.
	GateUnlocked GateState = "unlocked"
)

// FailureKind classifies why a verification attempt was rejected.
type FailureKind string

const (
	FailureNone               FailureKind = ""
	FailureDuplicateSlip      FailureKind = "duplicate_slip"
	FailureAmountMismatch     FailureKind = "amount_mismatch"
	FailureInvalidSlipImage   FailureKind = "invalid_slip_image"
	FailureVerificationFailed FailureKind = "verification_failed"
)

// VerificationResult is the typed outcome of a slip verification call.
// Failure paths never surface as Go errors; they resolve to a kind here.
type VerificationResult struct {
	Success bool
	Kind    FailureKind
}

// SlipImage is an uploaded bank-transfer receipt image.
type SlipImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

// GateSession is the payment-gated chat session aggregate. Exactly one
// exists per chat session; all transitions go through its methods so an
// invalid hop is impossible to persist.
type GateSession struct {
	ID          string
	ReadingID   string
	Lang        string
	State       GateState
	Amount      Amount
	QRPayload   string
	LastFailure FailureKind
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewGateSession returns a locked session.
func NewGateSession(id, readingID, lang string, now time.Time) *GateSession {
	return &GateSession{
		ID:        id,
		ReadingID: readingID,
		Lang:      lang,
		State:     GateLocked,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RequestPayment issues a fresh amount and QR payload and moves the gate
// to AwaitingPayment.
func (s *GateSession) RequestPayment(amount Amount, payload string, now time.Time) error {
	if s.State != GateLocked {
		return ErrPaymentAlreadyStarted
	}
	if !amount.Valid() {
		return ErrInvalidAmount
	}
	s.Amount = amount
	s.QRPayload = payload
	s.LastFailure = FailureNone
	s.State = GateAwaitingPayment
	s.UpdatedAt = now
	return nil
}

// CancelPayment discards the pending amount and re-locks the gate.
func (s *GateSession) CancelPayment(now time.Time) error {
	if s.State != GateAwaitingPayment {
		return ErrPaymentNotStarted
	}
	s.clearPayment()
	s.State = GateLocked
	s.UpdatedAt = now
	return nil
}

// BeginVerification marks the slip as in flight. A second upload while
// one is pending fails with ErrVerificationInFlight; any other state
// fails with ErrPaymentNotStarted.
func (s *GateSession) BeginVerification(now time.Time) error {
	switch s.State {
	case GateAwaitingPayment:
		s.State = GateVerifying
		s.LastFailure = FailureNone
		s.UpdatedAt = now
		return nil
	case GateVerifying:
		return ErrVerificationInFlight
	default:
		return ErrPaymentNotStarted
	}
}

// CompleteVerification applies a verification result. Success unlocks the
// gate; failure returns to AwaitingPayment with the same amount and
// payload, since the user may already have paid that exact amount.
func (s *GateSession) CompleteVerification(res VerificationResult, now time.Time) error {
	if s.State != GateVerifying {
		return ErrPaymentNotStarted
	}
	if res.Success {
		s.State = GateUnlocked
		s.LastFailure = FailureNone
	} else {
		s.State = GateAwaitingPayment
		s.LastFailure = res.Kind
		if s.LastFailure == FailureNone {
			s.LastFailure = FailureVerificationFailed
		}
	}
	s.UpdatedAt = now
	return nil
}

// ConsumeTurn spends the unlocked question and re-locks the gate. It is
// called after the chat reply resolves, whether or not it succeeded.
func (s *GateSession) ConsumeTurn(now time.Time) error {
	if s.State != GateUnlocked {
		return ErrChatLocked
	}
	s.clearPayment()
	s.State = GateLocked
	s.UpdatedAt = now
	return nil
}

// ExpirePayment abandons a stale AwaitingPayment cycle. It is a no-op in
// any other state so the expiry sweep can run blindly over candidates.
func (s *GateSession) ExpirePayment(now time.Time) bool {
	if s.State != GateAwaitingPayment {
		return false
	}
	s.clearPayment()
	s.State = GateLocked
	s.UpdatedAt = now
	return true
}

func (s *GateSession) clearPayment() {
	s.Amount = 0
	s.QRPayload = ""
	s.LastFailure = FailureNone
}

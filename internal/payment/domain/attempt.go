package payment

import "time"

// Attempt is one recorded slip verification attempt.
type Attempt struct {
	ID        string
	SessionID string
	Amount    Amount
	Success   bool
	Kind      FailureKind
	CreatedAt time.Time
}

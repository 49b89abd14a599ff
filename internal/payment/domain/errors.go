package payment

import "errors"

var (
	// ErrInvalidAmount is returned when an amount is outside the allowed range.
	ErrInvalidAmount = errors.New("payment: invalid amount")
	// ErrEmptyTarget is returned when a PromptPay target has no digits.
	ErrEmptyTarget = errors.New("payment: empty promptpay target")
	// ErrSessionNotFound is returned when a gate session does not exist.
	ErrSessionNotFound = errors.New("payment: session not found")
	// ErrNilSession is returned when saving a nil session.
	ErrNilSession = errors.New("payment: nil session")
	// ErrPaymentAlreadyStarted is returned when a payment is requested twice.
	ErrPaymentAlreadyStarted = errors.New("payment: payment already started")
	// ErrPaymentNotStarted is returned when no payment is awaiting a slip.
	ErrPaymentNotStarted = errors.New("payment: payment not started")
	// ErrVerificationInFlight is returned when a slip is uploaded while one
	// is already being verified.
	ErrVerificationInFlight = errors.New("payment: verification in flight")
	// ErrChatLocked is returned when a message is sent without an unlocked gate.
	ErrChatLocked = errors.New("payment: chat locked")
	// ErrEmptySlip is returned when a slip upload carries no image data.
	ErrEmptySlip = errors.New("payment: empty slip image")
)

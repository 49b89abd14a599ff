// Package postgres persists payment gate sessions and verification
// attempts.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	payment "mahabote-web/internal/payment/domain"
)

// SessionRepository persists gate sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository constructs a repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new gate session.
func (r *SessionRepository) Create(ctx context.Context, session *payment.GateSession) error {
	if r == nil || r.db == nil {
		return errors.New("session repo: nil db")
	}
	if session == nil {
		return payment.ErrNilSession
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO gate_sessions (id, reading_id, lang, state, amount_satang, qr_payload, last_failure, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		session.ID, nullString(session.ReadingID), session.Lang, string(session.State),
		int64(session.Amount), session.QRPayload, string(session.LastFailure),
		session.CreatedAt, session.UpdatedAt)
	return err
}

// Get loads a gate session by id.
func (r *SessionRepository) Get(ctx context.Context, id string) (*payment.GateSession, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("session repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, reading_id, lang, state, amount_satang, qr_payload, last_failure, created_at, updated_at
FROM gate_sessions
WHERE id = $1`, id)
	return scanSession(row)
}

// Update writes the session state back.
func (r *SessionRepository) Update(ctx context.Context, session *payment.GateSession) error {
	if r == nil || r.db == nil {
		return errors.New("session repo: nil db")
	}
	if session == nil {
		return payment.ErrNilSession
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE gate_sessions
SET state = $2, amount_satang = $3, qr_payload = $4, last_failure = $5, updated_at = $6
WHERE id = $1`,
		session.ID, string(session.State), int64(session.Amount), session.QRPayload,
		string(session.LastFailure), session.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return payment.ErrSessionNotFound
	}
	return nil
}

// ListAwaitingBefore returns sessions stuck in awaiting_payment since
// before cutoff, oldest first.
func (r *SessionRepository) ListAwaitingBefore(ctx context.Context, cutoff time.Time) ([]*payment.GateSession, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("session repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, reading_id, lang, state, amount_satang, qr_payload, last_failure, created_at, updated_at
FROM gate_sessions
WHERE state = 'awaiting_payment' AND updated_at < $1
ORDER BY updated_at ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*payment.GateSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*payment.GateSession, error) {
	var (
		session   payment.GateSession
		readingID sql.NullString
		state     string
		amount    int64
		failure   string
	)
	err := row.Scan(&session.ID, &readingID, &session.Lang, &state, &amount,
		&session.QRPayload, &failure, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payment.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	session.ReadingID = readingID.String
	session.State = payment.GateState(state)
	session.Amount = payment.Amount(amount)
	session.LastFailure = payment.FailureKind(failure)
	return &session, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// AttemptRepository persists verification attempts.
type AttemptRepository struct {
	db *sql.DB
}

// NewAttemptRepository constructs a repository.
func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Record inserts one verification attempt.
func (r *AttemptRepository) Record(ctx context.Context, attempt payment.Attempt) error {
	if r == nil || r.db == nil {
		return errors.New("attempt repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO payment_attempts (id, session_id, amount_satang, success, failure_kind, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		attempt.ID, attempt.SessionID, int64(attempt.Amount), attempt.Success,
		string(attempt.Kind), attempt.CreatedAt)
	return err
}

// List returns attempts newest first, capped at limit when positive.
func (r *AttemptRepository) List(ctx context.Context, limit int) ([]payment.Attempt, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("attempt repo: nil db")
	}
	query := `
SELECT id, session_id, amount_satang, success, failure_kind, created_at
FROM payment_attempts
ORDER BY created_at DESC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+` LIMIT $1`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payment.Attempt
	for rows.Next() {
		var (
			attempt payment.Attempt
			amount  int64
			kind    string
		)
		if err := rows.Scan(&attempt.ID, &attempt.SessionID, &amount, &attempt.Success, &kind, &attempt.CreatedAt); err != nil {
			return nil, err
		}
		attempt.Amount = payment.Amount(amount)
		attempt.Kind = payment.FailureKind(kind)
		out = append(out, attempt)
	}
	return out, rows.Err()
}

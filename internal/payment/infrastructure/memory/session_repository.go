// Package memory provides in-memory payment repositories for tests and
// single-process setups.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	payment "mahabote-web/internal/payment/domain"
)

// SessionRepository stores gate sessions in memory.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]payment.GateSession
}

// NewSessionRepository constructs an empty repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]payment.GateSession)}
}

// Create stores a new session.
func (r *SessionRepository) Create(_ context.Context, session *payment.GateSession) error {
	if session == nil {
		return payment.ErrNilSession
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

// Get returns a copy of the stored session.
func (r *SessionRepository) Get(_ context.Context, id string) (*payment.GateSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, payment.ErrSessionNotFound
	}
	return &session, nil
}

// Update replaces the stored session.
func (r *SessionRepository) Update(_ context.Context, session *payment.GateSession) error {
	if session == nil {
		return payment.ErrNilSession
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return payment.ErrSessionNotFound
	}
	r.sessions[session.ID] = *session
	return nil
}

// ListAwaitingBefore returns sessions awaiting payment since before cutoff.
func (r *SessionRepository) ListAwaitingBefore(_ context.Context, cutoff time.Time) ([]*payment.GateSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.GateSession
	for _, session := range r.sessions {
		if session.State == payment.GateAwaitingPayment && session.UpdatedAt.Before(cutoff) {
			copied := session
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

// AttemptRepository stores verification attempts in memory.
type AttemptRepository struct {
	mu       sync.Mutex
	attempts []payment.Attempt
}

// NewAttemptRepository constructs an empty repository.
func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{}
}

// Record appends an attempt.
func (r *AttemptRepository) Record(_ context.Context, attempt payment.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return nil
}

// List returns attempts newest first, capped at limit when positive.
func (r *AttemptRepository) List(_ context.Context, limit int) ([]payment.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]payment.Attempt, len(r.attempts))
	copy(out, r.attempts)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

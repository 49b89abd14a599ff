package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mahabote-web/internal/observability/metrics"
	reading "mahabote-web/internal/reading/domain"
)

// ChatService answers follow-up questions about a stored reading. The
// reading's narrative is rebuilt into the model context on every call, so
// no conversation state is held between questions.
type ChatService struct {
	generator Generator
	readings  ReadingRepository
	logger    *log.Logger
}

// NewChatService wires the service; generator and repository are required.
func NewChatService(generator Generator, readings ReadingRepository, logger *log.Logger) (*ChatService, error) {
	if generator == nil {
		return nil, errors.New("application: generator is required")
	}
	if readings == nil {
		return nil, errors.New("application: reading repository is required")
	}
	return &ChatService{generator: generator, readings: readings, logger: logger}, nil
}

// ErrEmptyQuestion is returned when the submitted question is blank.
var ErrEmptyQuestion = errors.New("application: empty question")

// Ask answers one question grounded in the stored reading.
func (s *ChatService) Ask(ctx context.Context, readingID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	r, err := s.readings.Get(ctx, readingID)
	if err != nil {
		return "", err
	}

	started := time.Now()
	answer, err := s.generator.Chat(ctx, r, question)
	metrics.GenerationObserved("chat", err, time.Since(started))
	if err != nil {
		s.logf("chat generation failed: %v", err)
		return "", fmt.Errorf("%w: %v", reading.ErrGenerationFailed, err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("%w: empty answer", reading.ErrGenerationFailed)
	}
	return answer, nil
}

func (s *ChatService) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// Package application orchestrates reading generation: it combines the
// deterministic Mahabote calculation with the model-backed generator and
// persists completed readings.
package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	mahabote "mahabote-web/internal/mahabote/domain"
	"mahabote-web/internal/observability/metrics"
	reading "mahabote-web/internal/reading/domain"
)

// HoroscopeRequest carries everything needed to generate a horoscope.
type HoroscopeRequest struct {
	Profile            reading.UserProfile
	BirthDate          time.Time
	WednesdayAfternoon bool
	Lang               reading.Language
}

// PalmRequest carries the uploaded palm image.
type PalmRequest struct {
	Image       []byte
	ContentType string
	Lang        reading.Language
}

// Generator produces model output for each reading mode. Implementations
// return fully populated results or an error; callers treat any error as
// a failed generation with nothing persisted.
type Generator interface {
	Horoscope(ctx context.Context, profile reading.UserProfile, result mahabote.Result, birthDate time.Time, lang reading.Language) (reading.HoroscopeSections, error)
	Palm(ctx context.Context, image []byte, contentType string, lang reading.Language) (reading.PalmReading, error)
	Chat(ctx context.Context, r *reading.Reading, question string) (string, error)
}

// ReadingRepository stores completed horoscope readings.
type ReadingRepository interface {
	Create(ctx context.Context, r *reading.Reading) error
	Get(ctx context.Context, id string) (*reading.Reading, error)
}

// ReadingService generates and stores readings.
type ReadingService struct {
	generator Generator
	readings  ReadingRepository
	logger    *log.Logger
}

// NewReadingService wires the service; all collaborators are required.
func NewReadingService(generator Generator, readings ReadingRepository, logger *log.Logger) (*ReadingService, error) {
	if generator == nil {
		return nil, errors.New("application: generator is required")
	}
	if readings == nil {
		return nil, errors.New("application: reading repository is required")
	}
	return &ReadingService{generator: generator, readings: readings, logger: logger}, nil
}

// Calculate runs the deterministic Mahabote calculation without touching
// the generator.
func (s *ReadingService) Calculate(birthDate time.Time, wednesdayAfternoon bool) (mahabote.Result, error) {
	return mahabote.Calculate(birthDate, wednesdayAfternoon)
}

// Horoscope generates a full horoscope reading and persists it. On any
// failure nothing is stored and the caller gets ErrGenerationFailed.
func (s *ReadingService) Horoscope(ctx context.Context, req HoroscopeRequest) (*reading.Reading, error) {
	if !req.Lang.Valid() {
		return nil, reading.ErrInvalidLanguage
	}
	if req.Profile.FirstName == "" || !req.Profile.Gender.Valid() {
		return nil, reading.ErrInvalidProfile
	}
	result, err := mahabote.Calculate(req.BirthDate, req.WednesdayAfternoon)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	sections, err := s.generator.Horoscope(ctx, req.Profile, result, req.BirthDate, req.Lang)
	metrics.GenerationObserved("horoscope", err, time.Since(started))
	if err != nil {
		s.logf("horoscope generation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", reading.ErrGenerationFailed, err)
	}
	if err := sections.Validate(); err != nil {
		s.logf("horoscope generation incomplete: %v", err)
		return nil, fmt.Errorf("%w: %v", reading.ErrGenerationFailed, err)
	}

	r := &reading.Reading{
		ID:        uuid.NewString(),
		Profile:   req.Profile,
		Lang:      req.Lang,
		Mahabote:  result,
		BirthDate: req.BirthDate,
		Sections:  sections,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.readings.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Palm generates a palm reading from an uploaded image. Palm readings are
// not persisted; the response is the whole product.
func (s *ReadingService) Palm(ctx context.Context, req PalmRequest) (reading.PalmReading, error) {
	if !req.Lang.Valid() {
		return reading.PalmReading{}, reading.ErrInvalidLanguage
	}
	if len(req.Image) == 0 {
		return reading.PalmReading{}, reading.ErrEmptyPalmImage
	}

	started := time.Now()
	palm, err := s.generator.Palm(ctx, req.Image, req.ContentType, req.Lang)
	metrics.GenerationObserved("palm", err, time.Since(started))
	if err != nil {
		s.logf("palm generation failed: %v", err)
		return reading.PalmReading{}, fmt.Errorf("%w: %v", reading.ErrGenerationFailed, err)
	}
	if err := palm.Validate(); err != nil {
		s.logf("palm generation incomplete: %v", err)
		return reading.PalmReading{}, fmt.Errorf("%w: %v", reading.ErrGenerationFailed, err)
	}
	return palm, nil
}

// Reading loads a stored reading by id.
func (s *ReadingService) Reading(ctx context.Context, id string) (*reading.Reading, error) {
	return s.readings.Get(ctx, id)
}

func (s *ReadingService) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

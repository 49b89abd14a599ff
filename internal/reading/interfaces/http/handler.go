// Package http exposes the calculation and reading endpoints.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	mahabote "mahabote-web/internal/mahabote/domain"
	readingapp "mahabote-web/internal/reading/application"
	reading "mahabote-web/internal/reading/domain"
)

const (
	dateLayout   = "2006-01-02"
	maxPalmImage = 8 << 20
)

// Handler provides reading HTTP endpoints.
type Handler struct {
	service     *readingapp.ReadingService
	defaultLang reading.Language
}

// NewHandler constructs a handler.
func NewHandler(service *readingapp.ReadingService, defaultLang reading.Language) (*Handler, error) {
	if service == nil {
		return nil, errors.New("reading handler: nil service")
	}
	if !defaultLang.Valid() {
		defaultLang = reading.LanguageBurmese
	}
	return &Handler{service: service, defaultLang: defaultLang}, nil
}

// ServeHTTP handles the calculation and reading routes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/mahabote/calculate":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleCalculate(w, r)
	case r.URL.Path == "/api/v1/horoscope":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleHoroscope(w, r)
	case r.URL.Path == "/api/v1/palm":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handlePalm(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/readings/"):
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleReading(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type calculateRequest struct {
	BirthDate          string `json:"birth_date"`
	WednesdayAfternoon bool   `json:"wednesday_afternoon"`
	Lang               string `json:"lang"`
}

type dayResponse struct {
	Slot   int    `json:"slot"`
	Name   string `json:"name"`
	Animal string `json:"animal"`
	Planet string `json:"planet"`
	Glyph  string `json:"glyph"`
}

type calculateResponse struct {
	Day           dayResponse `json:"day"`
	GregorianYear int         `json:"gregorian_year"`
	BurmeseYear   int         `json:"burmese_year"`
}

func (h *Handler) lang(value string) (reading.Language, error) {
	if value == "" {
		return h.defaultLang, nil
	}
	lang := reading.Language(value)
	if !lang.Valid() {
		return "", reading.ErrInvalidLanguage
	}
	return lang, nil
}

func (h *Handler) parseBirthDate(value string) (time.Time, error) {
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errors.New("birth_date must be YYYY-MM-DD")
	}
	if date.After(time.Now()) {
		return time.Time{}, errors.New("birth_date is in the future")
	}
	return date, nil
}

func toCalculateResponse(result mahabote.Result, lang reading.Language) calculateResponse {
	return calculateResponse{
		Day: dayResponse{
			Slot:   result.Day.Slot,
			Name:   result.Day.Name.In(string(lang)),
			Animal: result.Day.Animal.In(string(lang)),
			Planet: result.Day.Planet.In(string(lang)),
			Glyph:  result.Day.Glyph,
		},
		GregorianYear: result.GregorianYear,
		BurmeseYear:   result.BurmeseYear,
	}
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	lang, err := h.lang(req.Lang)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	birthDate, err := h.parseBirthDate(req.BirthDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.service.Calculate(birthDate, req.WednesdayAfternoon)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, toCalculateResponse(result, lang))
}

type horoscopeRequest struct {
	FirstName          string `json:"first_name"`
	MiddleName         string `json:"middle_name"`
	LastName           string `json:"last_name"`
	Gender             string `json:"gender"`
	BirthDate          string `json:"birth_date"`
	WednesdayAfternoon bool   `json:"wednesday_afternoon"`
	Lang               string `json:"lang"`
}

type horoscopeResponse struct {
	ID        string                    `json:"id"`
	Mahabote  calculateResponse         `json:"mahabote"`
	Sections  reading.HoroscopeSections `json:"sections"`
	CreatedAt time.Time                 `json:"created_at"`
}

func (h *Handler) handleHoroscope(w http.ResponseWriter, r *http.Request) {
	var req horoscopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	lang, err := h.lang(req.Lang)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	birthDate, err := h.parseBirthDate(req.BirthDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Horoscope(r.Context(), readingapp.HoroscopeRequest{
		Profile: reading.UserProfile{
			FirstName:  strings.TrimSpace(req.FirstName),
			MiddleName: strings.TrimSpace(req.MiddleName),
			LastName:   strings.TrimSpace(req.LastName),
			Gender:     reading.Gender(req.Gender),
		},
		BirthDate:          birthDate,
		WednesdayAfternoon: req.WednesdayAfternoon,
		Lang:               lang,
	})
	if err != nil {
		respondReadingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, horoscopeResponse{
		ID:        result.ID,
		Mahabote:  toCalculateResponse(result.Mahabote, result.Lang),
		Sections:  result.Sections,
		CreatedAt: result.CreatedAt,
	})
}

func (h *Handler) handlePalm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPalmImage); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	lang, err := h.lang(r.FormValue("lang"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxPalmImage+1))
	if err != nil {
		http.Error(w, "failed to read image", http.StatusBadRequest)
		return
	}
	if len(data) > maxPalmImage {
		http.Error(w, "image too large", http.StatusRequestEntityTooLarge)
		return
	}

	palm, err := h.service.Palm(r.Context(), readingapp.PalmRequest{
		Image:       data,
		ContentType: header.Header.Get("Content-Type"),
		Lang:        lang,
	})
	if err != nil {
		respondReadingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, palm)
}

func (h *Handler) handleReading(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/readings/")
	id, suffix, found := strings.Cut(rest, "/")
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	result, err := h.service.Reading(r.Context(), id)
	if err != nil {
		respondReadingError(w, err)
		return
	}

	switch {
	case !found:
		writeJSON(w, http.StatusOK, horoscopeResponse{
			ID:        result.ID,
			Mahabote:  toCalculateResponse(result.Mahabote, result.Lang),
			Sections:  result.Sections,
			CreatedAt: result.CreatedAt,
		})
	case suffix == "export.pdf":
		data, err := BuildReadingPDF(result)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="reading-`+result.ID+`.pdf"`)
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func respondReadingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reading.ErrReadingNotFound):
		http.Error(w, "reading not found", http.StatusNotFound)
	case errors.Is(err, reading.ErrInvalidLanguage),
		errors.Is(err, reading.ErrInvalidProfile),
		errors.Is(err, reading.ErrEmptyPalmImage),
		errors.Is(err, mahabote.ErrZeroDate),
		errors.Is(err, mahabote.ErrInvalidDate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, reading.ErrGenerationFailed):
		http.Error(w, "reading generation failed", http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

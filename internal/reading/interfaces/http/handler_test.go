package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mahabote "mahabote-web/internal/mahabote/domain"
	readingapp "mahabote-web/internal/reading/application"
	reading "mahabote-web/internal/reading/domain"
	"mahabote-web/internal/reading/infrastructure/memory"
)

type stubGenerator struct {
	sections reading.HoroscopeSections
	palm     reading.PalmReading
	err      error
}

func (g *stubGenerator) Horoscope(context.Context, reading.UserProfile, mahabote.Result, time.Time, reading.Language) (reading.HoroscopeSections, error) {
	return g.sections, g.err
}

func (g *stubGenerator) Palm(context.Context, []byte, string, reading.Language) (reading.PalmReading, error) {
	return g.palm, g.err
}

func (g *stubGenerator) Chat(context.Context, *reading.Reading, string) (string, error) {
	return "", g.err
}

func newTestHandler(t *testing.T, gen *stubGenerator) (*Handler, *memory.ReadingRepository) {
	t.Helper()
	repo := memory.NewReadingRepository()
	svc, err := readingapp.NewReadingService(gen, repo, nil)
	if err != nil {
		t.Fatal(err)
	}
	handler, err := NewHandler(svc, reading.LanguageBurmese)
	if err != nil {
		t.Fatal(err)
	}
	return handler, repo
}

func fullSections() reading.HoroscopeSections {
	return reading.HoroscopeSections{
		Warning: "w", Personality: "p", Career: "c",
		Love: "l", Health: "h", Advice: "a",
	}
}

func TestCalculateEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGenerator{})

	body := `{"birth_date":"1995-06-12","lang":"th"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/mahabote/calculate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp calculateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// 1995-06-12 is a Monday.
	if resp.Day.Slot != 1 {
		t.Errorf("slot = %d, want 1", resp.Day.Slot)
	}
	if resp.Day.Name != "วันจันทร์" {
		t.Errorf("name = %q", resp.Day.Name)
	}
	if resp.BurmeseYear != 1995-638 {
		t.Errorf("burmese year = %d", resp.BurmeseYear)
	}
}

func TestCalculateRejectsBadDates(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGenerator{})

	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	for _, body := range []string{
		`{"birth_date":"12/06/1995"}`,
		`{"birth_date":"` + future + `"}`,
		`{"birth_date":"1995-06-12","lang":"en"}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/mahabote/calculate", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mahabote/calculate", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: status = %d, want 405", rec.Code)
	}
}

func TestHoroscopeEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGenerator{sections: fullSections()})

	body := `{"first_name":"Aye","last_name":"Chan","gender":"female","birth_date":"1995-06-12","lang":"th"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/horoscope", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp horoscopeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID == "" {
		t.Error("missing reading id")
	}
	if resp.Sections != fullSections() {
		t.Errorf("sections = %+v", resp.Sections)
	}

	// The stored reading serves GET and the PDF export.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/readings/"+resp.ID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get reading: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/readings/"+resp.ID+"/export.pdf", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("content type = %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("export body is not a PDF")
	}
}

func TestHoroscopeGenerationFailure(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGenerator{err: errors.New("model down")})

	body := `{"first_name":"Aye","gender":"female","birth_date":"1995-06-12"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/horoscope", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestReadingNotFound(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/readings/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func palmForm(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, "palm.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := writer.WriteField("lang", "th"); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, writer.FormDataContentType()
}

func TestPalmEndpoint(t *testing.T) {
	palm := reading.PalmReading{
		Analysis: reading.PalmAnalysis{Heart: "h", Head: "h", Life: "l", Fate: "f"},
		Lines: []reading.PalmLine{
			{Name: reading.LineLife, Points: []reading.PalmPoint{{X: 0.2, Y: 0.4}}},
		},
	}
	handler, _ := newTestHandler(t, &stubGenerator{palm: palm})

	body, contentType := palmForm(t, "image", []byte{0xff, 0xd8, 0xff})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/palm", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp reading.PalmReading
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Analysis != palm.Analysis {
		t.Errorf("analysis = %+v", resp.Analysis)
	}
	if len(resp.Lines) != 1 || resp.Lines[0].Name != reading.LineLife {
		t.Errorf("lines = %+v", resp.Lines)
	}
}

func TestPalmRequiresImage(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGenerator{})

	body, contentType := palmForm(t, "photo", []byte{0x01})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/palm", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

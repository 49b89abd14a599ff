package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mahabote-web/internal/auth"
	"mahabote-web/internal/i18n"
	mahabote "mahabote-web/internal/mahabote/domain"
	paymentapp "mahabote-web/internal/payment/application"
	payment "mahabote-web/internal/payment/domain"
	paymentmem "mahabote-web/internal/payment/infrastructure/memory"
	readingapp "mahabote-web/internal/reading/application"
	reading "mahabote-web/internal/reading/domain"
	readingmem "mahabote-web/internal/reading/infrastructure/memory"
)

type stubVerifier struct {
	result payment.VerificationResult
}

func (v *stubVerifier) Verify(context.Context, payment.SlipImage, payment.Amount) payment.VerificationResult {
	return v.result
}

type stubGenerator struct {
	answer string
	err    error
}

func (g *stubGenerator) Horoscope(context.Context, reading.UserProfile, mahabote.Result, time.Time, reading.Language) (reading.HoroscopeSections, error) {
	return reading.HoroscopeSections{}, g.err
}

func (g *stubGenerator) Palm(context.Context, []byte, string, reading.Language) (reading.PalmReading, error) {
	return reading.PalmReading{}, g.err
}

func (g *stubGenerator) Chat(context.Context, *reading.Reading, string) (string, error) {
	return g.answer, g.err
}

type fixture struct {
	handler   *Handler
	gate      *paymentapp.GateService
	readings  *readingmem.ReadingRepository
	verifier  *stubVerifier
	generator *stubGenerator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	verifier := &stubVerifier{result: payment.VerificationResult{Success: true}}
	gate, err := paymentapp.NewGateService(
		paymentmem.NewSessionRepository(), paymentmem.NewAttemptRepository(),
		verifier, "004999036911146", paymentapp.SystemClock{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	generator := &stubGenerator{answer: "the stars say yes"}
	readings := readingmem.NewReadingRepository()
	chat, err := readingapp.NewChatService(generator, readings, nil)
	if err != nil {
		t.Fatal(err)
	}
	messages, err := i18n.Load()
	if err != nil {
		t.Fatal(err)
	}
	handler, err := NewHandler(gate, chat, messages, nil, []byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{handler: handler, gate: gate, readings: readings, verifier: verifier, generator: generator}
}

func (f *fixture) createSession(t *testing.T, readingID string) string {
	t.Helper()
	body := `{"reading_id":"` + readingID + `","lang":"th"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp createSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("create session: no token")
	}
	if resp.State != string(payment.GateLocked) {
		t.Fatalf("create session: state = %s", resp.State)
	}
	return resp.SessionID
}

func asSession(req *http.Request, sessionID string) *http.Request {
	ctx := auth.WithIdentity(req.Context(), sessionID, auth.RoleUser, sessionID)
	return req.WithContext(ctx)
}

func slipRequest(t *testing.T, sessionID string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("slip", "slip.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte{0xff, 0xd8}); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/slip", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return asSession(req, sessionID)
}

func TestFullPaymentCycle(t *testing.T) {
	f := newFixture(t)
	f.readings.Create(context.Background(), &reading.Reading{ID: "r1", Lang: reading.LanguageThai})
	sessionID := f.createSession(t, "r1")

	// Start payment.
	req := asSession(httptest.NewRequest(http.MethodPost, "/api/v1/chat/payment", nil), sessionID)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("start: status = %d body = %s", rec.Code, rec.Body.String())
	}
	var started paymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatal(err)
	}
	if started.State != string(payment.GateAwaitingPayment) {
		t.Fatalf("start: state = %s", started.State)
	}
	if started.Amount == "" || started.QRPayload == "" {
		t.Fatal("start: missing amount or payload")
	}

	// Chat before paying is rejected.
	req = asSession(httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages",
		strings.NewReader(`{"question":"will I travel?"}`)), sessionID)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("locked chat: status = %d, want 402", rec.Code)
	}

	// Submit a valid slip.
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, slipRequest(t, sessionID))
	if rec.Code != http.StatusOK {
		t.Fatalf("slip: status = %d body = %s", rec.Code, rec.Body.String())
	}
	var verified paymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &verified); err != nil {
		t.Fatal(err)
	}
	if verified.State != string(payment.GateUnlocked) {
		t.Fatalf("slip: state = %s", verified.State)
	}
	if verified.Message == "" {
		t.Error("slip: no confirmation message")
	}

	// Ask the paid question.
	req = asSession(httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages",
		strings.NewReader(`{"question":"will I travel?"}`)), sessionID)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat: status = %d body = %s", rec.Code, rec.Body.String())
	}
	var msg messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Answer != "the stars say yes" {
		t.Errorf("answer = %q", msg.Answer)
	}
	if msg.State != string(payment.GateLocked) {
		t.Errorf("state after chat = %s", msg.State)
	}

	// A second question requires a fresh payment.
	req = asSession(httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages",
		strings.NewReader(`{"question":"another?"}`)), sessionID)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("second chat: status = %d, want 402", rec.Code)
	}
}

func TestSlipFailureKeepsAwaitingAndLocalizes(t *testing.T) {
	f := newFixture(t)
	f.verifier.result = payment.VerificationResult{Success: false, Kind: payment.FailureAmountMismatch}
	sessionID := f.createSession(t, "r1")

	req := asSession(httptest.NewRequest(http.MethodPost, "/api/v1/chat/payment", nil), sessionID)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatal("start failed")
	}
	var started paymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, slipRequest(t, sessionID))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("slip: status = %d, want 422", rec.Code)
	}
	var failed paymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &failed); err != nil {
		t.Fatal(err)
	}
	if failed.State != string(payment.GateAwaitingPayment) {
		t.Errorf("state = %s", failed.State)
	}
	// The retained amount lets the user retry with a corrected transfer.
	if failed.Amount != started.Amount {
		t.Errorf("amount = %s, want %s", failed.Amount, started.Amount)
	}
	if failed.Message == "" || failed.Message == i18n.MsgAmountMismatch {
		t.Errorf("message = %q", failed.Message)
	}
}

func TestChatFailureStillConsumesTurn(t *testing.T) {
	f := newFixture(t)
	f.generator.err = context.DeadlineExceeded
	f.readings.Create(context.Background(), &reading.Reading{ID: "r1", Lang: reading.LanguageThai})
	sessionID := f.createSession(t, "r1")

	req := asSession(httptest.NewRequest(http.MethodPost, "/api/v1/chat/payment", nil), sessionID)
	f.handler.ServeHTTP(httptest.NewRecorder(), req)
	f.handler.ServeHTTP(httptest.NewRecorder(), slipRequest(t, sessionID))

	req = asSession(httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages",
		strings.NewReader(`{"question":"will I travel?"}`)), sessionID)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("chat: status = %d, want 502", rec.Code)
	}

	session, err := f.gate.Session(context.Background(), sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if session.State != payment.GateLocked {
		t.Errorf("state = %s, want locked", session.State)
	}
}

func TestCancelPayment(t *testing.T) {
	f := newFixture(t)
	sessionID := f.createSession(t, "r1")

	req := asSession(httptest.NewRequest(http.MethodPost, "/api/v1/chat/payment", nil), sessionID)
	f.handler.ServeHTTP(httptest.NewRecorder(), req)

	req = asSession(httptest.NewRequest(http.MethodDelete, "/api/v1/chat/payment", nil), sessionID)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: status = %d", rec.Code)
	}
	var resp paymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.State != string(payment.GateLocked) {
		t.Errorf("state = %s", resp.State)
	}
	if resp.Amount != "" {
		t.Errorf("amount survived cancel: %s", resp.Amount)
	}
}

func TestExportPaymentsXLSX(t *testing.T) {
	f := newFixture(t)
	f.verifier.result = payment.VerificationResult{Success: false, Kind: payment.FailureDuplicateSlip}
	sessionID := f.createSession(t, "r1")

	req := asSession(httptest.NewRequest(http.MethodPost, "/api/v1/chat/payment", nil), sessionID)
	f.handler.ServeHTTP(httptest.NewRecorder(), req)
	f.handler.ServeHTTP(httptest.NewRecorder(), slipRequest(t, sessionID))

	export, err := NewExportHandler(f.gate)
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	export.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exports/payments.xlsx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status = %d", rec.Code)
	}
	// XLSX files are zip archives.
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("export body is not a workbook")
	}

	rec = httptest.NewRecorder()
	export.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exports/payments.xlsx?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d", rec.Code)
	}
}

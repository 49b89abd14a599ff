// Package http exposes the payment gate endpoints: session creation, the
// payment request flow, slip upload and the paid chat turn.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"mahabote-web/internal/audit"
	"mahabote-web/internal/auth"
	"mahabote-web/internal/i18n"
	paymentapp "mahabote-web/internal/payment/application"
	payment "mahabote-web/internal/payment/domain"
	readingapp "mahabote-web/internal/reading/application"
	reading "mahabote-web/internal/reading/domain"
)

const maxSlipImage = 8 << 20

// Handler provides payment gate HTTP endpoints.
type Handler struct {
	gate     *paymentapp.GateService
	chat     *readingapp.ChatService
	messages *i18n.Messages
	auditor  audit.Logger
	secret   []byte
	tokenTTL time.Duration
}

// NewHandler constructs a handler. auditor may be nil.
func NewHandler(gate *paymentapp.GateService, chat *readingapp.ChatService, messages *i18n.Messages, auditor audit.Logger, secret []byte, tokenTTL time.Duration) (*Handler, error) {
	if gate == nil {
		return nil, errors.New("payment handler: nil gate service")
	}
	if chat == nil {
		return nil, errors.New("payment handler: nil chat service")
	}
	if messages == nil {
		return nil, errors.New("payment handler: nil messages")
	}
	if len(secret) == 0 {
		return nil, errors.New("payment handler: empty secret")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Handler{gate: gate, chat: chat, messages: messages, auditor: auditor, secret: secret, tokenTTL: tokenTTL}, nil
}

// ServeHTTP handles session and chat gate routes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/sessions":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleCreateSession(w, r)
	case "/api/v1/chat/payment":
		switch r.Method {
		case http.MethodPost:
			h.handleStartPayment(w, r)
		case http.MethodDelete:
			h.handleCancelPayment(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "/api/v1/chat/slip":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleSlip(w, r)
	case "/api/v1/chat/messages":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleMessage(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type createSessionRequest struct {
	ReadingID string `json:"reading_id"`
	Lang      string `json:"lang"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	State     string `json:"state"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Lang == "" {
		req.Lang = string(reading.LanguageBurmese)
	}
	if !reading.Language(req.Lang).Valid() {
		http.Error(w, "unsupported lang", http.StatusBadRequest)
		return
	}

	session, err := h.gate.CreateSession(r.Context(), req.ReadingID, req.Lang)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	token, err := auth.IssueSessionToken(session.ID, h.secret, h.tokenTTL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: session.ID,
		Token:     token,
		State:     string(session.State),
	})
}

type paymentResponse struct {
	State     string `json:"state"`
	Amount    string `json:"amount,omitempty"`
	QRPayload string `json:"qr_payload,omitempty"`
	Message   string `json:"message,omitempty"`
}

func sessionResponse(session *payment.GateSession, message string) paymentResponse {
	resp := paymentResponse{State: string(session.State), Message: message}
	if session.Amount != 0 {
		resp.Amount = session.Amount.String()
		resp.QRPayload = session.QRPayload
	}
	return resp
}

func (h *Handler) handleStartPayment(w http.ResponseWriter, r *http.Request) {
	sessionID := auth.SessionIDFromContext(r.Context())
	session, err := h.gate.StartPayment(r.Context(), sessionID)
	if err != nil {
		respondGateError(w, err)
		return
	}
	h.audit(r, sessionID, audit.ActionPaymentStarted, map[string]string{"amount": session.Amount.String()})
	writeJSON(w, http.StatusOK, sessionResponse(session, ""))
}

func (h *Handler) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	sessionID := auth.SessionIDFromContext(r.Context())
	session, err := h.gate.CancelPayment(r.Context(), sessionID)
	if err != nil {
		respondGateError(w, err)
		return
	}
	h.audit(r, sessionID, audit.ActionPaymentCancelled, nil)
	writeJSON(w, http.StatusOK, sessionResponse(session, ""))
}

func (h *Handler) handleSlip(w http.ResponseWriter, r *http.Request) {
	sessionID := auth.SessionIDFromContext(r.Context())
	if err := r.ParseMultipartForm(maxSlipImage); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("slip")
	if err != nil {
		http.Error(w, "slip file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxSlipImage+1))
	if err != nil {
		http.Error(w, "failed to read slip", http.StatusBadRequest)
		return
	}
	if len(data) > maxSlipImage {
		http.Error(w, "slip too large", http.StatusRequestEntityTooLarge)
		return
	}

	session, result, err := h.gate.SubmitSlip(r.Context(), sessionID, payment.SlipImage{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		respondGateError(w, err)
		return
	}
	h.audit(r, sessionID, audit.ActionSlipVerified, map[string]string{
		"success": boolString(result.Success),
		"kind":    string(result.Kind),
	})

	lang := session.Lang
	if result.Success {
		writeJSON(w, http.StatusOK, sessionResponse(session, h.messages.Get(lang, i18n.MsgPaymentVerified)))
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, sessionResponse(session, h.messages.FailureMessage(lang, result.Kind)))
}

type messageRequest struct {
	Question string `json:"question"`
}

type messageResponse struct {
	Answer string `json:"answer"`
	State  string `json:"state"`
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := auth.SessionIDFromContext(r.Context())
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	session, err := h.gate.RequireUnlocked(r.Context(), sessionID)
	if err != nil {
		respondGateError(w, err)
		return
	}

	answer, askErr := h.chat.Ask(r.Context(), session.ReadingID, req.Question)

	// The paid turn is spent whether or not the answer arrived.
	if err := h.gate.ConsumeTurn(r.Context(), sessionID); err != nil {
		respondGateError(w, err)
		return
	}
	h.audit(r, sessionID, audit.ActionQuestionAsked, map[string]string{
		"answered": boolString(askErr == nil),
	})

	if askErr != nil {
		respondGateError(w, askErr)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Answer: answer, State: string(payment.GateLocked)})
}

func (h *Handler) audit(r *http.Request, sessionID, action string, metadata map[string]string) {
	if h.auditor == nil {
		return
	}
	var raw json.RawMessage
	if metadata != nil {
		raw, _ = json.Marshal(metadata)
	}
	_ = h.auditor.Log(r.Context(), audit.Entry{
		SessionID: sessionID,
		Actor:     auth.SubjectFromContext(r.Context()),
		Role:      string(auth.RoleFromContext(r.Context())),
		Action:    action,
		Metadata:  raw,
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
}

func respondGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
	case errors.Is(err, payment.ErrPaymentAlreadyStarted),
		errors.Is(err, payment.ErrPaymentNotStarted),
		errors.Is(err, payment.ErrVerificationInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, payment.ErrChatLocked):
		http.Error(w, "payment required", http.StatusPaymentRequired)
	case errors.Is(err, payment.ErrEmptySlip), errors.Is(err, readingapp.ErrEmptyQuestion):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, reading.ErrReadingNotFound):
		http.Error(w, "reading not found", http.StatusNotFound)
	case errors.Is(err, reading.ErrGenerationFailed):
		http.Error(w, "answer generation failed", http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

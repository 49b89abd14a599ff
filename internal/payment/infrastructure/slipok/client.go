// Package slipok verifies bank-transfer slips against the SlipOK API.
package slipok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	payment "mahabote-web/internal/payment/domain"
)

const defaultBaseURL = "https://api.slipok.com"

// SlipOK error codes. Codes the client cannot fix (bad branch, bad key)
// collapse into the generic verification failure.
const (
	codeNoBranch      = 1001
	codeBadAuthHeader = 1002
	codeNotImageFile  = 1005
	codeBadImage      = 1006
	codeNoQRInImage   = 1007
	codeRepeatedSlip  = 1012
	codeWrongAmount   = 1013
)

// Client submits slip images to the SlipOK verification endpoint and maps
// every outcome, including transport failures, to a typed result. Verify
// never returns a Go error to callers.
type Client struct {
	baseURL  string
	branchID string
	apiKey   string
	client   *http.Client
	logger   *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the SlipOK endpoint, used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// NewClient constructs a Client for a branch.
func NewClient(branchID, apiKey string, logger *log.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  defaultBaseURL,
		branchID: branchID,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	Success *bool `json:"success"`
	Code    int   `json:"code"`
	Data    *struct {
		Success *bool `json:"success"`
	} `json:"data"`
}

// Verify sends the slip and the expected amount to SlipOK. The amount and
// log fields are forwarded so the provider checks the transfer value and
// records the slip against replays.
func (c *Client) Verify(ctx context.Context, slip payment.SlipImage, expected payment.Amount) payment.VerificationResult {
	body, contentType, err := buildForm(slip, expected)
	if err != nil {
		c.logf("slipok: build form: %v", err)
		return failure(payment.FailureVerificationFailed)
	}

	url := fmt.Sprintf("%s/api/line/apikey/%s", c.baseURL, c.branchID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		c.logf("slipok: build request: %v", err)
		return failure(payment.FailureVerificationFailed)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logf("slipok: request failed: %v", err)
		return failure(payment.FailureVerificationFailed)
	}
	defer resp.Body.Close()

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		c.logf("slipok: non-JSON response, status %d", resp.StatusCode)
		return failure(payment.FailureVerificationFailed)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logf("slipok: decode response: %v", err)
		return failure(payment.FailureVerificationFailed)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure(mapCode(parsed.Code))
	}

	if isTrue(parsed.Success) || (parsed.Data != nil && isTrue(parsed.Data.Success)) {
		return payment.VerificationResult{Success: true}
	}
	c.logf("slipok: 2xx without success flag, code %d", parsed.Code)
	return failure(payment.FailureVerificationFailed)
}

func mapCode(code int) payment.FailureKind {
	switch code {
	case codeRepeatedSlip:
		return payment.FailureDuplicateSlip
	case codeWrongAmount:
		return payment.FailureAmountMismatch
	case codeNotImageFile, codeBadImage, codeNoQRInImage:
		return payment.FailureInvalidSlipImage
	case codeNoBranch, codeBadAuthHeader:
		return payment.FailureVerificationFailed
	default:
		return payment.FailureVerificationFailed
	}
}

func buildForm(slip payment.SlipImage, expected payment.Amount) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, slip.Filename))
	if slip.ContentType != "" {
		header.Set("Content-Type", slip.ContentType)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(slip.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("amount", expected.String()); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("log", "true"); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func failure(kind payment.FailureKind) payment.VerificationResult {
	return payment.VerificationResult{Success: false, Kind: kind}
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

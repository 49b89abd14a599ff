package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xuri/excelize/v2"

	paymentapp "mahabote-web/internal/payment/application"
	payment "mahabote-web/internal/payment/domain"
)

const defaultExportLimit = 1000

// ExportHandler serves the payment attempts workbook.
type ExportHandler struct {
	gate *paymentapp.GateService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(gate *paymentapp.GateService) (*ExportHandler, error) {
	if gate == nil {
		return nil, errors.New("export handler: nil gate service")
	}
	return &ExportHandler{gate: gate}, nil
}

// ServeHTTP handles GET /api/v1/exports/payments.xlsx.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := defaultExportLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	attempts, err := h.gate.Attempts(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data, err := BuildPaymentsXLSX(attempts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="payments.xlsx"`)
	_, _ = w.Write(data)
}

// BuildPaymentsXLSX renders verification attempts as a workbook.
func BuildPaymentsXLSX(attempts []payment.Attempt) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "attempts"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Time")
	_ = f.SetCellValue(sheet, "B1", "Session")
	_ = f.SetCellValue(sheet, "C1", "Amount (THB)")
	_ = f.SetCellValue(sheet, "D1", "Success")
	_ = f.SetCellValue(sheet, "E1", "Failure")
	for i, attempt := range attempts {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), attempt.CreatedAt.Format("2006-01-02 15:04:05"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), attempt.SessionID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), attempt.Amount.String())
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), attempt.Success)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), string(attempt.Kind))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package http

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	reading "mahabote-web/internal/reading/domain"
)

// BuildReadingPDF renders a minimal PDF for a horoscope reading.
func BuildReadingPDF(r *reading.Reading) ([]byte, error) {
	if r == nil {
		return nil, reading.ErrNilReading
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Mahabote Reading")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Name: %s", r.Profile.FullName()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Birth Date: %s", r.BirthDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Burmese Year: %d", r.Mahabote.BurmeseYear))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Birth Day Slot: %d", r.Mahabote.Day.Slot))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", r.CreatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(8)

	sections := []struct {
		title string
		body  string
	}{
		{"Warning", r.Sections.Warning},
		{"Personality", r.Sections.Personality},
		{"Career", r.Sections.Career},
		{"Love", r.Sections.Love},
		{"Health", r.Sections.Health},
		{"Advice", r.Sections.Advice},
	}
	for _, section := range sections {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, section.title)
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, section.body, "", "L", false)
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

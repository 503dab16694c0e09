package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders timetable records into a printable PDF table.
type PDFExporter struct {
	title string
}

// NewPDFExporter builds a PDF exporter with the document title.
func NewPDFExporter(title string) *PDFExporter {
	return &PDFExporter{title: title}
}

// Render produces a landscape A4 PDF listing every record in order.
func (e *PDFExporter) Render(records []TimetableRecord) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, e.title, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	headers := []string{"Day", "Start", "End", "Course", "Kind", "Teacher", "Room", "Class"}
	widths := []float64{26, 20, 20, 40, 24, 50, 40, 40}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	lastDay := ""
	for _, rec := range records {
		day := rec.Day
		if day == lastDay {
			day = ""
		} else {
			lastDay = rec.Day
		}
		cells := []string{day, rec.StartTime, rec.EndTime, rec.CourseCode, rec.Kind, rec.Teacher, rec.Room, rec.Class}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render timetable pdf: %w", err)
	}
	return buf.Bytes(), nil
}

package export

import (
	"fmt"

	"github.com/gocarina/gocsv"
)

// TimetableRecord is the flat CSV projection of one teaching period.
type TimetableRecord struct {
	Day        string `csv:"day"`
	StartTime  string `csv:"start_time"`
	EndTime    string `csv:"end_time"`
	CourseCode string `csv:"course_code"`
	Kind       string `csv:"kind"`
	Teacher    string `csv:"teacher"`
	Room       string `csv:"room"`
	Class      string `csv:"class"`
}

// CSVExporter renders timetable records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the records.
func (e *CSVExporter) Render(records []TimetableRecord) ([]byte, error) {
	out, err := gocsv.MarshalBytes(&records)
	if err != nil {
		return nil, fmt.Errorf("marshal timetable csv: %w", err)
	}
	return out, nil
}

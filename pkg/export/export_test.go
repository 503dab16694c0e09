package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []TimetableRecord {
	return []TimetableRecord{
		{Day: "Monday", StartTime: "09:00", EndTime: "09:50", CourseCode: "CS301", Kind: "lecture", Teacher: "Asha Rao", Room: "LH-101", Class: "CS-3A"},
		{Day: "Monday", StartTime: "09:50", EndTime: "10:40", CourseCode: "CS302", Kind: "lecture", Teacher: "Vikram Iyer", Room: "LH-102", Class: "CS-3A"},
	}
}

func TestCSVExporterRender(t *testing.T) {
	payload, err := NewCSVExporter().Render(sampleRecords())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "day,start_time,end_time,course_code,kind,teacher,room,class", lines[0])
	assert.Contains(t, lines[1], "CS301")
	assert.Contains(t, lines[2], "Vikram Iyer")
}

func TestCSVExporterRenderEmpty(t *testing.T) {
	payload, err := NewCSVExporter().Render(nil)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "day,start_time")
}

func TestPDFExporterRender(t *testing.T) {
	payload, err := NewPDFExporter("Weekly Timetable").Render(sampleRecords())
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"taskboard/internal/query"
	"taskboard/internal/task"
)

// ExportFormats lists the formats Export accepts.
var ExportFormats = []string{FormatJSON, FormatCSV, FormatYAML, FormatPDF}

// Export renders tasks as a complete document in format.
// today marks overdue tasks in the CSV and PDF renderings.
func Export(tasks []task.Task, format string, today task.Date) ([]byte, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	switch strings.ToLower(format) {
	case FormatJSON, FormatYAML:
		var buf bytes.Buffer
		if err := Encode(&buf, format, tasks); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatCSV:
		return exportCSV(tasks, today)
	case FormatPDF:
		return exportPDF(tasks, today)
	default:
		return nil, fmt.Errorf("unknown export format: %s (must be %s)", format, strings.Join(ExportFormats, ", "))
	}
}

func exportCSV(tasks []task.Task, today task.Date) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "text", "completed", "priority", "due_date", "overdue", "created_at"})
	for _, t := range tasks {
		created := ""
		if !t.CreatedAt.IsZero() {
			created = t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		_ = w.Write([]string{
			t.ID.String(),
			t.Text,
			fmt.Sprint(t.Completed),
			string(t.Priority.OrDefault()),
			t.DueDate.String(),
			fmt.Sprint(query.IsOverdue(t, today)),
			created,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportPDF(tasks []task.Task, today task.Date) ([]byte, error) {
	stats := query.ComputeStats(tasks, today)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Task Report", false)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("%s  total %d, completed %d, pending %d, overdue %d",
		today, stats.Total, stats.Completed, stats.Pending, stats.Overdue))
	pdf.Ln(10)

	// Core fonts are cp1252; translate so accented text survives.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, t := range tasks {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s (%s)", box, normalizeText(t.Text), t.Priority.OrDefault())
		if !t.DueDate.IsZero() {
			line += " due " + t.DueDate.String()
		}
		if query.IsOverdue(t, today) {
			pdf.SetTextColor(200, 0, 0)
			line += " OVERDUE"
		}
		pdf.MultiCell(0, 6, tr(line), "0", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

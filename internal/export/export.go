// Package export renders an annotation record into downstream formats. Every
// format is a pure projection of the record; exporting never mutates it.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/blacx/annotator/internal/metrics"
	"github.com/blacx/annotator/internal/pipeline"
	"github.com/blacx/annotator/pkg/models"
)

// Supported export formats.
const (
	FormatStructuredJSON = "structured-json"
	FormatTabularCSV     = "tabular-csv"
	FormatTabularExcel   = "tabular-excel"
	FormatSubtitlesOnly  = "subtitles-only"
	FormatSceneSummary   = "scene-summary"
)

var csvHeader = []string{"event", "inpoint", "outpoint", "formatted_time", "description", "image_url"}

// Exporter renders annotation records.
type Exporter struct {
	timecodeFPS int
}

// NewExporter creates an exporter. timecodeFPS matches the rate the record's
// duration timecode was rendered with.
func NewExporter(timecodeFPS int) *Exporter {
	if timecodeFPS < 1 {
		timecodeFPS = 24
	}
	return &Exporter{timecodeFPS: timecodeFPS}
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{
		FormatStructuredJSON,
		FormatTabularCSV,
		FormatTabularExcel,
		FormatSubtitlesOnly,
		FormatSceneSummary,
	}
}

// Export renders record in the named format. Unknown formats fail with
// *pipeline.ExportFormatError without touching the record.
func (e *Exporter) Export(record *models.AnnotationRecord, format string) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("no record to export")
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatStructuredJSON:
		data, err = json.MarshalIndent(record, "", "  ")
	case FormatTabularCSV:
		data, err = e.exportCSV(record)
	case FormatTabularExcel:
		data, err = e.exportExcel(record)
	case FormatSubtitlesOnly:
		data, err = exportSubtitles(record)
	case FormatSceneSummary:
		data, err = exportSceneSummary(record)
	default:
		metrics.ExportsTotal.WithLabelValues(format, "unsupported").Inc()
		return nil, &pipeline.ExportFormatError{Format: format}
	}

	if err != nil {
		metrics.ExportsTotal.WithLabelValues(format, "failed").Inc()
		return nil, fmt.Errorf("failed to export %s: %w", format, err)
	}
	metrics.ExportsTotal.WithLabelValues(format, "ok").Inc()
	return data, nil
}

func (e *Exporter) exportCSV(record *models.AnnotationRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for i, ev := range record.Events() {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(ev.Inpoint, 'f', -1, 64),
			strconv.FormatFloat(ev.Outpoint, 'f', -1, 64),
			e.formatTimestamp(ev.Inpoint),
			ev.EventID,
			ev.EventImageURL,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (e *Exporter) exportExcel(record *models.AnnotationRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const timeline = "Timeline"
	if err := f.SetSheetName("Sheet1", timeline); err != nil {
		return nil, err
	}
	for col, name := range csvHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(timeline, cell, name); err != nil {
			return nil, err
		}
	}
	for i, ev := range record.Events() {
		values := []interface{}{i, ev.Inpoint, ev.Outpoint, e.formatTimestamp(ev.Inpoint), ev.EventID, ev.EventImageURL}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(timeline, cell, v); err != nil {
				return nil, err
			}
		}
	}

	const subtitles = "Subtitles"
	if _, err := f.NewSheet(subtitles); err != nil {
		return nil, err
	}
	for col, name := range []string{"language", "inpoint", "outpoint", "text"} {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(subtitles, cell, name); err != nil {
			return nil, err
		}
	}
	row := 2
	for _, lang := range sortedLanguages(record) {
		for _, cue := range record.Source.Subtitles[lang] {
			values := []interface{}{lang, cue.Inpoint, cue.Outpoint, cue.Text}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(subtitles, cell, v); err != nil {
					return nil, err
				}
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportSubtitles(record *models.AnnotationRecord) ([]byte, error) {
	out := struct {
		Subtitles map[string][]models.SubtitleCue `json:"subtitles"`
		Error     string                          `json:"subtitles_error,omitempty"`
	}{
		Subtitles: record.Source.Subtitles,
		Error:     record.Source.SubtitlesError,
	}
	return json.MarshalIndent(out, "", "  ")
}

// sceneEntry is one timeline row of the scene summary.
type sceneEntry struct {
	Timestamp   float64 `json:"timestamp"`
	Description string  `json:"description"`
}

func exportSceneSummary(record *models.AnnotationRecord) ([]byte, error) {
	events := record.Events()
	scenes := make([]sceneEntry, len(events))
	for i, ev := range events {
		scenes[i] = sceneEntry{Timestamp: ev.Inpoint, Description: ev.EventID}
	}
	out := struct {
		Duration   string       `json:"duration"`
		EventCount int          `json:"event_count"`
		Languages  []string     `json:"languages"`
		Scenes     []sceneEntry `json:"scenes"`
	}{
		Duration:   record.Source.Duration,
		EventCount: len(events),
		Languages:  sortedLanguages(record),
		Scenes:     scenes,
	}
	return json.MarshalIndent(out, "", "  ")
}

// formatTimestamp renders seconds as a wall-clock style HH:MM:SS string.
func (e *Exporter) formatTimestamp(seconds float64) string {
	whole := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", whole/3600, (whole%3600)/60, whole%60)
}

func sortedLanguages(record *models.AnnotationRecord) []string {
	langs := record.SubtitleLanguages()
	sort.Strings(langs)
	return langs
}

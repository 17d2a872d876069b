package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/blacx/annotator/internal/pipeline"
	"github.com/blacx/annotator/pkg/models"
)

func sampleRecord(t *testing.T) *models.AnnotationRecord {
	t.Helper()
	record := models.NewRecordEnvelope(time.Unix(1700000000, 0).UTC())
	record.Source.Duration = "00:02:05:12"
	record.Source.ProxyURI = "/videos/demo.mp4"
	record.Source.Tracks.Caption.EventData = []models.EventRecord{
		{EventID: "opening shot of a street", Inpoint: 0, Outpoint: 0},
		{EventID: "a car drives past", Inpoint: 2, Outpoint: 2},
	}
	record.Source.Subtitles = map[string][]models.SubtitleCue{
		"en-US": {{Inpoint: "0", Outpoint: "2.5", Text: "hello"}},
		"ar-AR": {{Inpoint: "0", Outpoint: "2.5", Text: "arabic hello"}},
	}
	return record
}

func TestExportStructuredJSONRoundTrip(t *testing.T) {
	record := sampleRecord(t)
	exporter := NewExporter(24)

	data, err := exporter.Export(record, FormatStructuredJSON)
	require.NoError(t, err)

	restored := &models.AnnotationRecord{}
	require.NoError(t, json.Unmarshal(data, restored))
	assert.Equal(t, record, restored)
}

func TestExportIsIdempotent(t *testing.T) {
	record := sampleRecord(t)
	exporter := NewExporter(24)

	for _, format := range []string{FormatStructuredJSON, FormatTabularCSV, FormatSubtitlesOnly, FormatSceneSummary} {
		first, err := exporter.Export(record, format)
		require.NoError(t, err, format)
		second, err := exporter.Export(record, format)
		require.NoError(t, err, format)
		assert.True(t, bytes.Equal(first, second), "%s export must be deterministic", format)
	}
}

func TestExportCSVRows(t *testing.T) {
	data, err := NewExporter(24).Export(sampleRecord(t), FormatTabularCSV)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"0", "0", "0", "00:00:00", "opening shot of a street", ""}, rows[1])
	assert.Equal(t, []string{"1", "2", "2", "00:00:02", "a car drives past", ""}, rows[2])
}

func TestExportExcelSheets(t *testing.T) {
	data, err := NewExporter(24).Export(sampleRecord(t), FormatTabularExcel)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Timeline", "Subtitles"}, f.GetSheetList())

	desc, err := f.GetCellValue("Timeline", "E2")
	require.NoError(t, err)
	assert.Equal(t, "opening shot of a street", desc)

	lang, err := f.GetCellValue("Subtitles", "A2")
	require.NoError(t, err)
	assert.Equal(t, "ar-AR", lang)
}

func TestExportSubtitlesOnly(t *testing.T) {
	data, err := NewExporter(24).Export(sampleRecord(t), FormatSubtitlesOnly)
	require.NoError(t, err)

	var out struct {
		Subtitles map[string][]models.SubtitleCue `json:"subtitles"`
		Error     string                          `json:"subtitles_error"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Len(t, out.Subtitles, 2)
	assert.Empty(t, out.Error)
}

func TestExportSceneSummary(t *testing.T) {
	data, err := NewExporter(24).Export(sampleRecord(t), FormatSceneSummary)
	require.NoError(t, err)

	var out struct {
		Duration   string       `json:"duration"`
		EventCount int          `json:"event_count"`
		Languages  []string     `json:"languages"`
		Scenes     []sceneEntry `json:"scenes"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "00:02:05:12", out.Duration)
	assert.Equal(t, 2, out.EventCount)
	assert.Equal(t, []string{"ar-AR", "en-US"}, out.Languages)
	require.Len(t, out.Scenes, 2)
	assert.Equal(t, 2.0, out.Scenes[1].Timestamp)
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := NewExporter(24).Export(sampleRecord(t), "yaml")

	var ferr *pipeline.ExportFormatError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "yaml", ferr.Format)
}

func TestExportNilRecord(t *testing.T) {
	_, err := NewExporter(24).Export(nil, FormatStructuredJSON)
	assert.Error(t, err)
}

package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"

	"github.com/lichen18/navi-profile-go/internal/models"
)

// ReadCSV decodes a per-event telemetry CSV export into raw event rows.
// Columns are matched by header name; missing columns yield empty fields so
// partial exports still load. Rows with the wrong field count are skipped
// with a warning rather than failing the whole file.
func ReadCSV(r io.Reader) ([]models.RawEventRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []models.RawEventRow
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("[Telemetry] Skipping malformed csv line %d: %v", line, err)
			continue
		}
		rows = append(rows, models.RawEventRow{
			VIN:          field(record, "vin"),
			EventKey:     field(record, "event_key"),
			AppSource:    field(record, "app_source"),
			VoiceDC:      field(record, "voice_dc"),
			JSONAll:      field(record, "json_all"),
			StatusJSON:   field(record, "status_json"),
			FormatTimeMS: field(record, "format_time_ms"),
		})
	}
	return rows, nil
}

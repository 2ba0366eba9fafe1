package models

// RawEventRow is one telemetry record from a per-event vehicle CSV export.
// Nested columns (VoiceDC, JSONAll, StatusJSON) are kept as raw strings and
// decoded lazily; exports are noisy and a bad payload in one column must not
// invalidate the row for the others.
type RawEventRow struct {
	VIN          string `json:"vin"`
	EventKey     string `json:"event_key"`
	AppSource    string `json:"app_source"`
	VoiceDC      string `json:"voice_dc"`
	JSONAll      string `json:"json_all"`
	StatusJSON   string `json:"status_json"`
	FormatTimeMS string `json:"format_time_ms"` // "YYYY-MM-DD HH:MM:SS.mmm"
}

// VoiceCommand is one entry of a decoded voice_dc column.
type VoiceCommand struct {
	Domain  string `json:"domain"`
	Command string `json:"command"`
}

// StatusEntry is one entry of a decoded status_json column: a named vehicle
// telemetry signal with a free-form string value.
type StatusEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

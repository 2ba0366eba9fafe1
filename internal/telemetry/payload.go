package telemetry

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lichen18/navi-profile-go/internal/models"
)

// DestinationPositionSignal is the status_json entry that carries the
// navigation destination coordinates.
const DestinationPositionSignal = "Vehicle.Travel.OneMap.Navi.DestinationPosition"

// DecodeTree decodes a raw JSON payload into a generic tree of
// map[string]any / []any / scalars.
func DecodeTree(raw string) (any, error) {
	var tree any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return tree, nil
}

// FindAnyKey searches an arbitrarily nested mapping/sequence tree for the
// first of the candidate keys. At each mapping level the candidates are tried
// in order before descending, so a shallow match wins over a deeper one.
// Child maps are visited in sorted key order to keep resolution stable.
// Values that are empty strings do not count as matches.
func FindAnyKey(tree any, keys []string) (any, bool) {
	switch node := tree.(type) {
	case map[string]any:
		for _, key := range keys {
			if v, ok := node[key]; ok {
				if s, isStr := v.(string); isStr && s == "" {
					continue
				}
				return v, true
			}
		}
		children := make([]string, 0, len(node))
		for k := range node {
			children = append(children, k)
		}
		sort.Strings(children)
		for _, k := range children {
			if found, ok := FindAnyKey(node[k], keys); ok {
				return found, true
			}
		}
	case []any:
		for _, item := range node {
			if found, ok := FindAnyKey(item, keys); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// FindAnyKeyString is FindAnyKey restricted to non-empty string values.
func FindAnyKeyString(tree any, keys []string) (string, bool) {
	v, ok := FindAnyKey(tree, keys)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// ParseVoiceCommands decodes a voice_dc column into its command descriptors.
// The column is a JSON array of objects; anything else is an error for the
// caller to log and move past.
func ParseVoiceCommands(raw string) ([]models.VoiceCommand, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var commands []models.VoiceCommand
	if err := json.Unmarshal([]byte(raw), &commands); err != nil {
		return nil, fmt.Errorf("decode voice_dc: %w", err)
	}
	return commands, nil
}

// destinationPosition is the nested payload of the destination signal value.
type destinationPosition struct {
	Longitude json.Number `json:"longitude"`
	Latitude  json.Number `json:"latitude"`
}

// DestinationLocation extracts the navigation destination from a status_json
// column as a "lon,lat" string. Returns ok=false when the signal is absent or
// its value is empty.
func DestinationLocation(statusJSON string) (string, bool, error) {
	var entries []models.StatusEntry
	if err := json.Unmarshal([]byte(statusJSON), &entries); err != nil {
		return "", false, fmt.Errorf("decode status_json: %w", err)
	}
	for _, entry := range entries {
		if entry.Name != DestinationPositionSignal {
			continue
		}
		if entry.Value == "" {
			return "", false, nil
		}
		var pos destinationPosition
		if err := json.Unmarshal([]byte(entry.Value), &pos); err != nil {
			return "", false, fmt.Errorf("decode destination position: %w", err)
		}
		lon, errLon := pos.Longitude.Float64()
		lat, errLat := pos.Latitude.Float64()
		if errLon != nil || errLat != nil {
			return "", false, fmt.Errorf("destination position is not numeric: %q", entry.Value)
		}
		return strconv.FormatFloat(lon, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64), true, nil
	}
	return "", false, nil
}

// Package extractor reconstructs navigation trips from raw telemetry event
// rows: it filters navigation-related rows, pairs destination-set events with
// their arrival events, merges adjacent repeats of the same destination and
// chains start locations across the resulting trip list.
package extractor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lichen18/navi-profile-go/internal/models"
	"github.com/lichen18/navi-profile-go/internal/oracle"
	"github.com/lichen18/navi-profile-go/internal/spatial"
	"github.com/lichen18/navi-profile-go/internal/telemetry"
	"github.com/lichen18/navi-profile-go/internal/timeutil"
)

const (
	// EventKeyDestinationSet marks a row where the user set a navigation
	// destination; EventKeyArrival marks arrival at the destination.
	EventKeyDestinationSet = "X_Map_008_0002"
	EventKeyArrival        = "X_Map_009_0006"

	// NavigationAppMarker identifies the navigation app in app_source.
	NavigationAppMarker = "onemap"

	// NavigationDomain and NavigationCommand identify navigation voice
	// commands in voice_dc.
	NavigationDomain  = "navigation"
	NavigationCommand = "global/navigation"

	// DefaultMergeThresholdSeconds is the start-time gap below which two
	// adjacent trips to the same POI are treated as one navigation session.
	DefaultMergeThresholdSeconds = 1200.0
)

// POITypeUnknown is assigned when the text oracle cannot classify a POI.
const POITypeUnknown = "unknown"

// poiKeys are the candidate keys for the POI name inside json_all, tried in
// order at every nesting level.
var poiKeys = []string{"poi_name", "poi"}

// Options tunes the extraction pass.
type Options struct {
	// MergeThresholdSeconds overrides DefaultMergeThresholdSeconds when
	// positive.
	MergeThresholdSeconds float64
}

// Extractor turns raw event rows into an ordered trip list.
type Extractor struct {
	textOracle oracle.TextOracle
	opts       Options
}

// New creates an extractor. textOracle may be nil; POI types then stay
// "unknown".
func New(textOracle oracle.TextOracle, opts Options) *Extractor {
	if opts.MergeThresholdSeconds <= 0 {
		opts.MergeThresholdSeconds = DefaultMergeThresholdSeconds
	}
	return &Extractor{textOracle: textOracle, opts: opts}
}

// Extract runs the full pass over one vehicle's ordered event rows. It never
// fails: malformed rows are skipped with a warning and oracle failures leave
// POI types "unknown".
func (e *Extractor) Extract(ctx context.Context, rows []models.RawEventRow) []models.Trip {
	related := filterNavigationRelated(rows)
	trips := pairTrips(related)
	trips = MergeAdjacent(trips, e.opts.MergeThresholdSeconds)
	AssignStartLocations(trips)
	e.resolvePOITypes(ctx, trips)
	log.Printf("[Extractor] %d raw rows -> %d navigation rows -> %d trips", len(rows), len(related), len(trips))
	return trips
}

// IsNavigationRelated reports whether a row belongs to the navigation
// scenario: the navigation app appears in app_source, or a voice command
// targets the navigation domain.
func IsNavigationRelated(row models.RawEventRow) bool {
	if strings.Contains(row.AppSource, NavigationAppMarker) {
		return true
	}
	if row.VoiceDC == "" {
		return false
	}
	commands, err := telemetry.ParseVoiceCommands(row.VoiceDC)
	if err != nil {
		log.Printf("[Extractor] Ignoring undecodable voice_dc: %v", err)
		return false
	}
	for _, cmd := range commands {
		if cmd.Domain == NavigationDomain || cmd.Command == NavigationCommand {
			return true
		}
	}
	return false
}

func filterNavigationRelated(rows []models.RawEventRow) []models.RawEventRow {
	var related []models.RawEventRow
	for _, row := range rows {
		if IsNavigationRelated(row) {
			related = append(related, row)
		}
	}
	return related
}

// pairTrips scans the navigation rows in order. Every destination-set row
// with a resolvable POI name and destination coordinate opens a pending trip;
// the next arrival row closes it. A pending trip with no arrival before the
// sequence ends is discarded.
func pairTrips(rows []models.RawEventRow) []models.Trip {
	var trips []models.Trip
	for i, row := range rows {
		if row.EventKey != EventKeyDestinationSet {
			continue
		}
		tree, err := telemetry.DecodeTree(row.JSONAll)
		if err != nil {
			log.Printf("[Extractor] Skipping row %d: %v", i, err)
			continue
		}
		poi, ok := telemetry.FindAnyKeyString(tree, poiKeys)
		if !ok {
			continue
		}
		location, ok, err := telemetry.DestinationLocation(row.StatusJSON)
		if err != nil {
			log.Printf("[Extractor] Skipping row %d: %v", i, err)
			continue
		}
		if !ok {
			continue
		}
		endTime, ok := findArrivalTime(rows, i+1)
		if !ok {
			continue
		}
		trips = append(trips, models.Trip{
			POI:         poi,
			POILocation: location,
			StartTime:   row.FormatTimeMS,
			EndTime:     endTime,
		})
	}
	return trips
}

func findArrivalTime(rows []models.RawEventRow, from int) (string, bool) {
	for i := from; i < len(rows); i++ {
		if rows[i].EventKey == EventKeyArrival {
			return rows[i].FormatTimeMS, true
		}
	}
	return "", false
}

// MergeAdjacent collapses consecutive trips to the same POI whose start
// times are less than threshold seconds apart (strict), keeping the earlier
// start and the later end. The pass is single left-to-right; merging is not
// transitive beyond adjacency, so running it again on its own output changes
// nothing.
func MergeAdjacent(trips []models.Trip, threshold float64) []models.Trip {
	if len(trips) == 0 {
		return trips
	}
	merged := []models.Trip{trips[0]}
	for _, trip := range trips[1:] {
		last := &merged[len(merged)-1]
		if trip.POI == last.POI {
			gap, err := timeutil.DiffSeconds(last.StartTime, trip.StartTime)
			if err == nil && gap < threshold {
				last.EndTime = trip.EndTime
				continue
			}
		}
		merged = append(merged, trip)
	}
	return merged
}

// AssignStartLocations sets each trip's start location in place: the previous
// trip's destination, or the mean of all destinations for the first trip.
func AssignStartLocations(trips []models.Trip) {
	if len(trips) == 0 {
		return
	}
	locations := make([]string, len(trips))
	for i, t := range trips {
		locations[i] = t.POILocation
	}
	trips[0].StartLocation = spatial.CentroidLocation(locations)
	for i := 1; i < len(trips); i++ {
		trips[i].StartLocation = trips[i-1].POILocation
	}
}

const poiTypePrompt = `You are a place type classifier. Classify each POI name in the
input list and return a single JSON object whose keys are the POI names (exactly as
given) and whose values are their place types (for example restaurant, shop,
residential, office, scenic spot). POIs of the same kind must get the same value.
Return only the JSON object.`

// resolvePOITypes classifies all distinct POI names in one oracle call and
// assigns the resulting types to the trips. Any failure leaves the affected
// trips typed "unknown".
func (e *Extractor) resolvePOITypes(ctx context.Context, trips []models.Trip) {
	for i := range trips {
		trips[i].POIType = POITypeUnknown
	}
	if len(trips) == 0 || e.textOracle == nil {
		return
	}

	seen := make(map[string]bool)
	var names []string
	for _, t := range trips {
		if !seen[t.POI] {
			seen[t.POI] = true
			names = append(names, t.POI)
		}
	}

	response, err := e.textOracle.Classify(ctx, fmt.Sprintf("%q", names), poiTypePrompt)
	if err != nil {
		log.Printf("[Extractor] POI type classification failed: %v", err)
		return
	}
	types := make(map[string]string)
	if err := oracle.ExtractJSON(response, &types); err != nil {
		log.Printf("[Extractor] Unparsable POI type response: %v", err)
		return
	}
	for i := range trips {
		if t, ok := types[trips[i].POI]; ok && t != "" {
			trips[i].POIType = t
		}
	}
}

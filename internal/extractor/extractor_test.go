package extractor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lichen18/navi-profile-go/internal/models"
)

// fakeTextOracle returns a canned response or error.
type fakeTextOracle struct {
	response string
	err      error
	calls    int
}

func (f *fakeTextOracle) Classify(ctx context.Context, input, instruction string) (string, error) {
	f.calls++
	return f.response, f.err
}

func destinationRow(poi, location, ts string) models.RawEventRow {
	parts := strings.SplitN(location, ",", 2)
	return models.RawEventRow{
		EventKey:     EventKeyDestinationSet,
		AppSource:    "com.onemap.navi",
		JSONAll:      fmt.Sprintf(`{"detail":{"poi_name":%q}}`, poi),
		StatusJSON:   fmt.Sprintf(`[{"name":"Vehicle.Travel.OneMap.Navi.DestinationPosition","value":"{\"longitude\":%s,\"latitude\":%s}"}]`, parts[0], parts[1]),
		FormatTimeMS: ts,
	}
}

func arrivalRow(ts string) models.RawEventRow {
	return models.RawEventRow{
		EventKey:     EventKeyArrival,
		AppSource:    "com.onemap.navi",
		FormatTimeMS: ts,
	}
}

func TestIsNavigationRelated(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNavigationRelated(models.RawEventRow{AppSource: "com.onemap.navi"}))
	assert.True(t, IsNavigationRelated(models.RawEventRow{VoiceDC: `[{"domain":"navigation"}]`}))
	assert.True(t, IsNavigationRelated(models.RawEventRow{VoiceDC: `[{"domain":"music","command":"global/navigation"}]`}))
	assert.False(t, IsNavigationRelated(models.RawEventRow{AppSource: "com.music.player"}))
	assert.False(t, IsNavigationRelated(models.RawEventRow{VoiceDC: `[{"domain":"music"}]`}))
	assert.False(t, IsNavigationRelated(models.RawEventRow{VoiceDC: `broken`}))
}

func TestExtract_PairsDestinationWithArrival(t *testing.T) {
	t.Parallel()

	rows := []models.RawEventRow{
		destinationRow("Office", "113.3,23.1", "2024-03-11 08:00:00.000"),
		{EventKey: "X_Other", AppSource: "com.onemap.navi", FormatTimeMS: "2024-03-11 08:10:00.000"},
		arrivalRow("2024-03-11 08:30:00.000"),
		destinationRow("Mall", "113.4,23.2", "2024-03-11 19:00:00.000"),
		arrivalRow("2024-03-11 19:40:00.000"),
	}

	trips := New(nil, Options{}).Extract(context.Background(), rows)
	require.Len(t, trips, 2)

	assert.Equal(t, "Office", trips[0].POI)
	assert.Equal(t, "2024-03-11 08:00:00.000", trips[0].StartTime)
	assert.Equal(t, "2024-03-11 08:30:00.000", trips[0].EndTime)
	assert.Equal(t, "113.3,23.1", trips[0].POILocation)
	assert.Equal(t, POITypeUnknown, trips[0].POIType)

	// first start location is the centroid of all destinations
	assert.Equal(t, "113.350000,23.150000", trips[0].StartLocation)
	// later trips start where the previous one ended
	assert.Equal(t, "113.3,23.1", trips[1].StartLocation)
}

func TestExtract_DiscardsUnpairedDestination(t *testing.T) {
	t.Parallel()

	rows := []models.RawEventRow{
		destinationRow("Office", "113.3,23.1", "2024-03-11 08:00:00.000"),
		arrivalRow("2024-03-11 08:30:00.000"),
		destinationRow("Mall", "113.4,23.2", "2024-03-11 19:00:00.000"),
		// no arrival follows
	}

	trips := New(nil, Options{}).Extract(context.Background(), rows)
	require.Len(t, trips, 1)
	assert.Equal(t, "Office", trips[0].POI)
}

func TestExtract_SkipsRowsWithoutPOIOrDestination(t *testing.T) {
	t.Parallel()

	noPOI := destinationRow("x", "113.3,23.1", "2024-03-11 08:00:00.000")
	noPOI.JSONAll = `{"detail":{}}`
	noDest := destinationRow("Office", "113.3,23.1", "2024-03-11 09:00:00.000")
	noDest.StatusJSON = `[{"name":"Vehicle.Speed","value":"60"}]`

	rows := []models.RawEventRow{noPOI, noDest, arrivalRow("2024-03-11 09:30:00.000")}
	trips := New(nil, Options{}).Extract(context.Background(), rows)
	assert.Empty(t, trips)
}

func TestMergeAdjacent(t *testing.T) {
	t.Parallel()

	trip := func(poi, start, end string) models.Trip {
		return models.Trip{POI: poi, StartTime: start, EndTime: end}
	}

	t.Run("merges same poi under threshold", func(t *testing.T) {
		merged := MergeAdjacent([]models.Trip{
			trip("Office", "2024-03-11 08:00:00.000", "2024-03-11 08:05:00.000"),
			trip("Office", "2024-03-11 08:10:00.000", "2024-03-11 08:30:00.000"),
		}, DefaultMergeThresholdSeconds)
		require.Len(t, merged, 1)
		assert.Equal(t, "2024-03-11 08:00:00.000", merged[0].StartTime)
		assert.Equal(t, "2024-03-11 08:30:00.000", merged[0].EndTime)
	})

	t.Run("gap at threshold does not merge", func(t *testing.T) {
		// 1205s apart with the 1200s default: distinct trips
		merged := MergeAdjacent([]models.Trip{
			trip("Office", "2024-03-11 08:00:00.000", "2024-03-11 08:05:00.000"),
			trip("Office", "2024-03-11 08:20:05.000", "2024-03-11 08:40:00.000"),
		}, DefaultMergeThresholdSeconds)
		assert.Len(t, merged, 2)

		merged = MergeAdjacent([]models.Trip{
			trip("Office", "2024-03-11 08:00:00.000", "2024-03-11 08:05:00.000"),
			trip("Office", "2024-03-11 08:20:00.000", "2024-03-11 08:40:00.000"),
		}, DefaultMergeThresholdSeconds)
		assert.Len(t, merged, 2, "exactly 1200s is not under the strict threshold")
	})

	t.Run("different poi never merges", func(t *testing.T) {
		merged := MergeAdjacent([]models.Trip{
			trip("Office", "2024-03-11 08:00:00.000", "2024-03-11 08:05:00.000"),
			trip("Mall", "2024-03-11 08:06:00.000", "2024-03-11 08:30:00.000"),
		}, DefaultMergeThresholdSeconds)
		assert.Len(t, merged, 2)
	})

	t.Run("idempotent", func(t *testing.T) {
		input := []models.Trip{
			trip("Office", "2024-03-11 08:00:00.000", "2024-03-11 08:05:00.000"),
			trip("Office", "2024-03-11 08:10:00.000", "2024-03-11 08:30:00.000"),
			trip("Mall", "2024-03-11 19:00:00.000", "2024-03-11 19:40:00.000"),
		}
		once := MergeAdjacent(input, DefaultMergeThresholdSeconds)
		twice := MergeAdjacent(once, DefaultMergeThresholdSeconds)
		assert.Equal(t, once, twice)
	})

	t.Run("unparseable gap keeps trips separate", func(t *testing.T) {
		merged := MergeAdjacent([]models.Trip{
			trip("Office", "bad time", "2024-03-11 08:05:00.000"),
			trip("Office", "2024-03-11 08:10:00.000", "2024-03-11 08:30:00.000"),
		}, DefaultMergeThresholdSeconds)
		assert.Len(t, merged, 2)
	})
}

func TestAssignStartLocations(t *testing.T) {
	t.Parallel()

	trips := []models.Trip{
		{POI: "A", POILocation: "100.000000,20.000000"},
		{POI: "B", POILocation: "102.000000,24.000000"},
		{POI: "C", POILocation: "104.000000,28.000000"},
	}
	AssignStartLocations(trips)

	assert.Equal(t, "102.000000,24.000000", trips[0].StartLocation)
	assert.Equal(t, "100.000000,20.000000", trips[1].StartLocation)
	assert.Equal(t, "102.000000,24.000000", trips[2].StartLocation)
}

func TestResolvePOITypes(t *testing.T) {
	t.Parallel()

	rows := []models.RawEventRow{
		destinationRow("Office", "113.3,23.1", "2024-03-11 08:00:00.000"),
		arrivalRow("2024-03-11 08:30:00.000"),
		destinationRow("Mall", "113.4,23.2", "2024-03-11 19:00:00.000"),
		arrivalRow("2024-03-11 19:40:00.000"),
	}

	t.Run("assigns oracle types", func(t *testing.T) {
		oracle := &fakeTextOracle{response: "```json\n{\"Office\": \"office\", \"Mall\": \"shop\"}\n```"}
		trips := New(oracle, Options{}).Extract(context.Background(), rows)
		require.Len(t, trips, 2)
		assert.Equal(t, "office", trips[0].POIType)
		assert.Equal(t, "shop", trips[1].POIType)
		assert.Equal(t, 1, oracle.calls, "all POIs classified in one call")
	})

	t.Run("oracle failure leaves unknown", func(t *testing.T) {
		oracle := &fakeTextOracle{err: fmt.Errorf("timeout")}
		trips := New(oracle, Options{}).Extract(context.Background(), rows)
		require.Len(t, trips, 2)
		assert.Equal(t, POITypeUnknown, trips[0].POIType)
		assert.Equal(t, POITypeUnknown, trips[1].POIType)
	})

	t.Run("unparsable response leaves unknown", func(t *testing.T) {
		oracle := &fakeTextOracle{response: "I cannot classify these."}
		trips := New(oracle, Options{}).Extract(context.Background(), rows)
		require.Len(t, trips, 2)
		assert.Equal(t, POITypeUnknown, trips[0].POIType)
	})
}

package features

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/lichen18/navi-profile-go/internal/models"
	"github.com/lichen18/navi-profile-go/internal/oracle"
	"github.com/lichen18/navi-profile-go/internal/timeutil"
)

// Label values produced by the classification rules.
const (
	CycleWeekdayDominant = "weekday-dominant"
	CycleWeekendDominant = "weekend-dominant"
	CycleBalanced        = "balanced"

	TimeOfDayDaytime      = "daytime-active"
	TimeOfDayNighttime    = "nighttime-active"
	TimeOfDayEarlyMorning = "early-morning-active"
	TimeOfDayBalanced     = "balanced"

	PeakTraveler    = "peak traveler"
	OffPeakTraveler = "off-peak traveler"

	DistanceShortRange  = "short-range"
	DistanceMediumRange = "medium-range"
	DistanceLongRange   = "long-range"
	DistanceMixed       = "mixed"

	RegionCrossCity    = "cross-city"
	RegionSingleRegion = "single-region"
	RegionMultiRegion  = "multi-region"
	RegionUnknown      = "unknown"

	WorkDurationShort    = "flexible/short"
	WorkDurationExcess   = "excessive"
	WorkDurationStandard = "standard"
)

// Fallback sentinels. Every rule returns its own sentinel on empty or
// unresolvable input instead of failing.
const (
	SentinelInsufficientData = "insufficient data"
	SentinelUnknown          = "unknown"
	SentinelNoRecord         = "no record"
	SentinelNoRegularTrips   = "no regular trips"
	SentinelNotImplemented   = "not implemented"
	SentinelNotApplicable    = "n/a"
)

// DefaultRegularWindowMinutes is the time-similarity window for the regular
// round-trip rule.
const DefaultRegularWindowMinutes = 30.0

// Options tunes the classification rules.
type Options struct {
	// RegularWindowMinutes overrides DefaultRegularWindowMinutes when
	// positive.
	RegularWindowMinutes float64
}

// Engine computes the feature label map for a navigation profile. Distance
// and geo lookups are soft: a failed call degrades to 0 meters or an empty
// district with a logged warning.
type Engine struct {
	distance oracle.DistanceOracle
	geo      oracle.GeoOracle
	opts     Options
}

// NewEngine creates a feature classification engine. Either oracle may be
// nil; the rules that need it then see only degraded values.
func NewEngine(distance oracle.DistanceOracle, geo oracle.GeoOracle, opts Options) *Engine {
	if opts.RegularWindowMinutes <= 0 {
		opts.RegularWindowMinutes = DefaultRegularWindowMinutes
	}
	return &Engine{distance: distance, geo: geo, opts: opts}
}

// Classify fills the full taxonomy for one profile. It never fails; labels
// that cannot be computed hold their rule's sentinel.
func (e *Engine) Classify(ctx context.Context, profile *models.NaviProfile) FeatureLabelMap {
	m := NewLabelMap()
	trips := profile.Trips

	m.set("basic", "home", orSentinel(profile.Home))
	m.set("basic", "workplace", orSentinel(profile.Workplace))

	m.set("time_pattern", "cycle_preference", cyclePreference(trips))
	m.set("time_pattern", "time_of_day_preference", timeOfDayPreference(trips))
	m.set("time_pattern", "peak_travel_pattern", peakTravelPattern(trips))

	m.set("spatial_range", "trip_distance_profile", e.tripDistanceProfile(ctx, trips))
	m.set("spatial_range", "activity_region", e.activityRegion(ctx, trips))

	m.set("destination_preference", "high_frequency_type", highFrequencyType(trips, profile.Home, profile.Workplace))

	regular, regularDistance, regularDuration := e.regularTrips(ctx, trips)
	m.set("commute_basis", "regular_trips", regular)
	m.set("commute_basis", "regular_trip_distance", regularDistance)
	m.set("commute_basis", "regular_trip_duration", regularDuration)

	m.set("commute_space", "commute_direction", SentinelNotImplemented)

	m.set("work_habit", "work_duration", workDuration(trips, profile.Workplace))

	return m
}

// orSentinel maps an unresolved place to the unknown sentinel so every label
// in the map carries a value.
func orSentinel(place string) string {
	if place == "" {
		return SentinelUnknown
	}
	return place
}

// cyclePreference classifies the weekday share of trip starts.
func cyclePreference(trips []models.Trip) string {
	var weekdays, total int
	for _, t := range trips {
		isWeekday, err := timeutil.IsWeekday(t.StartTime)
		if err != nil {
			continue
		}
		total++
		if isWeekday {
			weekdays++
		}
	}
	if total == 0 {
		return SentinelInsufficientData
	}
	rate := float64(weekdays) / float64(total)
	switch {
	case rate > 0.8:
		return CycleWeekdayDominant
	case rate < 0.4:
		return CycleWeekendDominant
	default:
		return CycleBalanced
	}
}

// timeOfDayPreference buckets each trip's start hour into daytime (7-18),
// night (>18) and early morning (<7); a bucket wins with a strict majority.
func timeOfDayPreference(trips []models.Trip) string {
	var day, night, early, total int
	for _, t := range trips {
		hour, err := timeutil.HourOf(t.StartTime)
		if err != nil {
			continue
		}
		total++
		switch {
		case hour >= 7 && hour <= 18:
			day++
		case hour > 18:
			night++
		default:
			early++
		}
	}
	if total == 0 {
		return SentinelInsufficientData
	}
	n := float64(total)
	switch {
	case float64(day)/n > 0.5:
		return TimeOfDayDaytime
	case float64(night)/n > 0.5:
		return TimeOfDayNighttime
	case float64(early)/n > 0.5:
		return TimeOfDayEarlyMorning
	default:
		return TimeOfDayBalanced
	}
}

// peakTravelPattern counts starts within the commute rush windows [7,9] and
// [17,19].
func peakTravelPattern(trips []models.Trip) string {
	var peak, total int
	for _, t := range trips {
		hour, err := timeutil.HourOf(t.StartTime)
		if err != nil {
			continue
		}
		total++
		if (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19) {
			peak++
		}
	}
	if total == 0 {
		return SentinelInsufficientData
	}
	if float64(peak)/float64(total) > 0.7 {
		return PeakTraveler
	}
	return OffPeakTraveler
}

// drivingDistance is a soft distance lookup: failures log and degrade to 0.
func (e *Engine) drivingDistance(ctx context.Context, origin, destination string) float64 {
	if e.distance == nil {
		return 0
	}
	d, err := e.distance.DrivingDistance(ctx, origin, destination)
	if err != nil {
		log.Printf("[Features] Driving distance %s -> %s failed: %v", origin, destination, err)
		return 0
	}
	return d
}

// tripDistanceProfile classifies per-trip driving distances, walking the
// trips day by day.
func (e *Engine) tripDistanceProfile(ctx context.Context, trips []models.Trip) string {
	byDate := make(map[string][]models.Trip)
	var dates []string
	for _, t := range trips {
		date, err := timeutil.DateOf(t.StartTime)
		if err != nil {
			continue
		}
		if _, ok := byDate[date]; !ok {
			dates = append(dates, date)
		}
		byDate[date] = append(byDate[date], t)
	}
	sort.Strings(dates)

	var distances []float64
	for _, date := range dates {
		for _, t := range byDate[date] {
			distances = append(distances, e.drivingDistance(ctx, t.StartLocation, t.POILocation))
		}
	}
	if len(distances) == 0 {
		return SentinelInsufficientData
	}

	var short, medium, long int
	for _, d := range distances {
		switch {
		case d < 5000:
			short++
		case d <= 20000:
			medium++
		default:
			long++
		}
	}
	n := float64(len(distances))
	switch {
	case float64(short)/n > 0.7:
		return DistanceShortRange
	case float64(medium)/n > 0.5:
		return DistanceMediumRange
	case float64(long)/n > 0.4:
		return DistanceLongRange
	default:
		return DistanceMixed
	}
}

// activityRegion resolves each destination's administrative division and
// classifies the (city, district) spread. Only destinations are inspected;
// origins do not widen the region.
func (e *Engine) activityRegion(ctx context.Context, trips []models.Trip) string {
	type regionKey struct{ city, district string }
	counts := make(map[regionKey]int)
	cities := make(map[string]bool)
	for _, t := range trips {
		var d oracle.District
		if e.geo != nil {
			var err error
			d, err = e.geo.ReverseGeocode(ctx, t.POILocation)
			if err != nil {
				log.Printf("[Features] Reverse geocode %s failed: %v", t.POILocation, err)
				d = oracle.District{}
			}
		}
		counts[regionKey{d.City, d.District}]++
		cities[d.City] = true
	}
	if len(counts) == 0 {
		return RegionUnknown
	}
	if len(cities) > 1 {
		return RegionCrossCity
	}
	var max, total int
	for _, c := range counts {
		total += c
		if c > max {
			max = c
		}
	}
	if float64(max)/float64(total) > 0.9 {
		return RegionSingleRegion
	}
	return RegionMultiRegion
}

// highFrequencyType returns the most common destination type, with trips to
// home and workplace excluded.
func highFrequencyType(trips []models.Trip, home, workplace string) string {
	counts := make(map[string]int)
	var order []string
	for _, t := range trips {
		if t.POI == home || t.POI == workplace {
			continue
		}
		if _, ok := counts[t.POIType]; !ok {
			order = append(order, t.POIType)
		}
		counts[t.POIType]++
	}
	if len(counts) == 0 {
		return SentinelNoRecord
	}
	best := order[0]
	for _, poiType := range order[1:] {
		if counts[poiType] > counts[best] {
			best = poiType
		}
	}
	return best
}

type tripWindow struct {
	start time.Time
	end   time.Time
}

// regularTrips detects regular round-trips: destination pairs visited on
// different days whose start and end times all fall within the similarity
// window of the pair's average times. Returns the regular-trip summary plus
// the average driving distance and average duration across qualifying pairs.
func (e *Engine) regularTrips(ctx context.Context, trips []models.Trip) (string, string, string) {
	if len(trips) == 0 {
		return SentinelInsufficientData, SentinelNotApplicable, SentinelNotApplicable
	}

	type parsedTrip struct {
		poi    string
		date   string
		window tripWindow
	}
	var parsed []parsedTrip
	for _, t := range trips {
		start, errStart := timeutil.ParseTimestamp(t.StartTime)
		end, errEnd := timeutil.ParseTimestamp(t.EndTime)
		if errStart != nil || errEnd != nil {
			continue
		}
		parsed = append(parsed, parsedTrip{
			poi:    t.POI,
			date:   start.Format("2006-01-02"),
			window: tripWindow{start: start, end: end},
		})
	}

	// Group the windows of every distinct-day trip pair under the
	// unordered destination-name pair, so A->B and B->A land together.
	groups := make(map[[2]string][]tripWindow)
	for i := 0; i < len(parsed); i++ {
		for j := i + 1; j < len(parsed); j++ {
			if parsed[i].date == parsed[j].date {
				continue
			}
			key := [2]string{parsed[i].poi, parsed[j].poi}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			groups[key] = append(groups[key], parsed[i].window, parsed[j].window)
		}
	}

	var keys [][2]string
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	// Similarity is judged on time of day, so Monday 08:00 and Tuesday
	// 08:10 count as the same commute slot.
	windowSeconds := e.opts.RegularWindowMinutes * 60
	type regularPair struct {
		a, b     string
		avgStart float64
		avgEnd   float64
	}
	var qualifying []regularPair
	for _, key := range keys {
		windows := groups[key]
		if len(windows) < 2 {
			continue
		}
		avgStart := averageDaySeconds(windows, func(w tripWindow) time.Time { return w.start })
		avgEnd := averageDaySeconds(windows, func(w tripWindow) time.Time { return w.end })
		similar := true
		for _, w := range windows {
			if math.Abs(daySeconds(w.start)-avgStart) > windowSeconds ||
				math.Abs(daySeconds(w.end)-avgEnd) > windowSeconds {
				similar = false
				break
			}
		}
		if similar {
			qualifying = append(qualifying, regularPair{a: key[0], b: key[1], avgStart: avgStart, avgEnd: avgEnd})
		}
	}

	if len(qualifying) == 0 {
		return SentinelNoRegularTrips, SentinelNotApplicable, SentinelNotApplicable
	}

	city := e.resolveCity(ctx, trips)
	var sumDistance, sumHours float64
	var descriptions []string
	for _, pair := range qualifying {
		sumDistance += e.drivingDistanceByAddress(ctx, city, pair.a, pair.b)
		sumHours += (pair.avgEnd - pair.avgStart) / 3600
		descriptions = append(descriptions, fmt.Sprintf("%s <-> %s (%s-%s)",
			pair.a, pair.b,
			formatDaySeconds(pair.avgStart), formatDaySeconds(pair.avgEnd)))
	}
	n := float64(len(qualifying))
	return "regular commuter: " + strings.Join(descriptions, "; "),
		fmt.Sprintf("%.0fm", sumDistance/n),
		fmt.Sprintf("%.2fh", sumHours/n)
}

func (e *Engine) drivingDistanceByAddress(ctx context.Context, city, origin, destination string) float64 {
	if e.distance == nil {
		return 0
	}
	d, err := e.distance.DrivingDistanceByAddress(ctx, city, origin, destination)
	if err != nil {
		log.Printf("[Features] Driving distance %s -> %s in %s failed: %v", origin, destination, city, err)
		return 0
	}
	return d
}

// resolveCity returns the city of the first destination the geocoder can
// resolve, or the empty string.
func (e *Engine) resolveCity(ctx context.Context, trips []models.Trip) string {
	if e.geo == nil {
		return ""
	}
	for _, t := range trips {
		d, err := e.geo.ReverseGeocode(ctx, t.POILocation)
		if err == nil && d.City != "" {
			return d.City
		}
	}
	return ""
}

// daySeconds maps a timestamp to seconds since its own midnight.
func daySeconds(t time.Time) float64 {
	return float64(t.Hour()*3600+t.Minute()*60+t.Second()) + float64(t.Nanosecond())/1e9
}

func averageDaySeconds(windows []tripWindow, pick func(tripWindow) time.Time) float64 {
	var sum float64
	for _, w := range windows {
		sum += daySeconds(pick(w))
	}
	return sum / float64(len(windows))
}

func formatDaySeconds(s float64) string {
	total := int(s)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

// workDuration measures the span between arriving at the workplace and
// departing for the next destination.
func workDuration(trips []models.Trip, workplace string) string {
	if workplace == "" || workplace == SentinelUnknown {
		return SentinelUnknown
	}
	var durations []float64
	atWork := false
	var arrival string
	for _, t := range trips {
		if atWork && t.POI != workplace {
			seconds, err := timeutil.DiffSeconds(arrival, t.StartTime)
			if err == nil {
				durations = append(durations, seconds/3600)
			}
			atWork = false
		}
		if t.POI == workplace {
			atWork = true
			arrival = t.EndTime
		}
	}
	if len(durations) == 0 {
		return SentinelNoRecord
	}
	var sum float64
	for _, h := range durations {
		sum += h
	}
	mean := sum / float64(len(durations))
	switch {
	case mean < 6:
		return WorkDurationShort
	case mean > 10:
		return WorkDurationExcess
	default:
		return WorkDurationStandard
	}
}

package features

import (
	"sort"

	"github.com/lichen18/navi-profile-go/internal/models"
	"github.com/lichen18/navi-profile-go/internal/spatial"
	"github.com/lichen18/navi-profile-go/internal/stats"
	"github.com/lichen18/navi-profile-go/internal/timeutil"
)

// Persona is a compact spatial/behavioral summary of a profile, computed
// entirely from the trip list without oracle calls.
type Persona struct {
	// ActivityRadiusMeters is the maximum distance from the destination
	// centroid to any destination.
	ActivityRadiusMeters float64 `json:"activity_radius_meters"`
	// NewLocationDiscoveryRate is distinct destinations over total trips.
	NewLocationDiscoveryRate float64 `json:"new_location_discovery_rate"`
	// CommutingTimeMinutes is the mean duration of trips ending at home
	// or the workplace.
	CommutingTimeMinutes float64 `json:"commuting_time_minutes"`
	// POITypeEntropyBits measures how spread the destination type mix is.
	POITypeEntropyBits float64 `json:"poi_type_entropy_bits"`
	// TopActivityTypes are the most visited destination types, most
	// frequent first, home and workplace trips excluded.
	TopActivityTypes []string `json:"top_activity_types"`
}

// BuildPersona summarizes a profile.
func BuildPersona(profile *models.NaviProfile) Persona {
	trips := profile.Trips
	persona := Persona{}
	if len(trips) == 0 {
		return persona
	}

	var destinations []spatial.Point
	for _, t := range trips {
		p, err := spatial.ParseLocation(t.POILocation)
		if err != nil {
			continue
		}
		destinations = append(destinations, p)
	}
	persona.ActivityRadiusMeters = spatial.ActivityRadius(destinations)

	persona.NewLocationDiscoveryRate = float64(len(profile.DistinctPOINames())) / float64(len(trips))

	var commuteMinutes []float64
	for _, t := range trips {
		if t.POI != profile.Home && t.POI != profile.Workplace {
			continue
		}
		seconds, err := timeutil.DiffSeconds(t.StartTime, t.EndTime)
		if err != nil || seconds < 0 {
			continue
		}
		commuteMinutes = append(commuteMinutes, seconds/60)
	}
	persona.CommutingTimeMinutes = stats.Mean(commuteMinutes)

	typeCounts := make(map[string]int)
	var typeOrder []string
	for _, t := range trips {
		if t.POI == profile.Home || t.POI == profile.Workplace {
			continue
		}
		if _, ok := typeCounts[t.POIType]; !ok {
			typeOrder = append(typeOrder, t.POIType)
		}
		typeCounts[t.POIType]++
	}
	var counts []float64
	for _, name := range typeOrder {
		counts = append(counts, float64(typeCounts[name]))
	}
	persona.POITypeEntropyBits = stats.ShannonEntropy(counts)

	sort.SliceStable(typeOrder, func(i, j int) bool {
		return typeCounts[typeOrder[i]] > typeCounts[typeOrder[j]]
	})
	if len(typeOrder) > 3 {
		typeOrder = typeOrder[:3]
	}
	persona.TopActivityTypes = typeOrder

	return persona
}

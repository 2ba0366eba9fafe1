package models

// Trip is one reconstructed navigation episode: the user set a destination
// and later arrived at it. Coordinates are "lon,lat" strings, timestamps keep
// the original telemetry format.
type Trip struct {
	POI           string `json:"poi"`
	POIType       string `json:"poi_type"`
	POILocation   string `json:"poi_location"`
	StartLocation string `json:"start_location"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

// NaviProfile owns the ordered trip list for one vehicle plus the home and
// workplace resolved from it. Home and Workplace are filled in once by the
// profile service; an unresolvable location holds the oracle's refusal text.
type NaviProfile struct {
	VIN       string `json:"vin"`
	Home      string `json:"home"`
	Workplace string `json:"workplace"`
	Trips     []Trip `json:"trips"`
}

// POINames returns the POI name of every trip, in order, duplicates kept.
func (p *NaviProfile) POINames() []string {
	names := make([]string, 0, len(p.Trips))
	for _, t := range p.Trips {
		names = append(names, t.POI)
	}
	return names
}

// DistinctPOINames returns the unique POI names in first-seen order.
func (p *NaviProfile) DistinctPOINames() []string {
	seen := make(map[string]bool, len(p.Trips))
	var names []string
	for _, t := range p.Trips {
		if !seen[t.POI] {
			seen[t.POI] = true
			names = append(names, t.POI)
		}
	}
	return names
}

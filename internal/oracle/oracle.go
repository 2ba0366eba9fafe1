// Package oracle holds the external lookup services the pipeline depends on:
// driving distance and reverse geocoding (AMap web services) and free-form
// text classification (an OpenAI-compatible chat model). All of them are
// synchronous, may fail, and are treated as soft dependencies: callers
// degrade to sentinel values instead of aborting the batch.
package oracle

import "context"

// District is the administrative division of a coordinate. Fields may be
// empty when the geocoder cannot resolve them.
type District struct {
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
	Township string `json:"township"`
}

// DistanceOracle resolves driving distances in meters.
type DistanceOracle interface {
	// DrivingDistance plans a driving route between two "lon,lat"
	// coordinates and returns its length in meters.
	DrivingDistance(ctx context.Context, origin, destination string) (float64, error)

	// DrivingDistanceByAddress geocodes two free-form addresses within a
	// city and returns the driving distance between them in meters.
	DrivingDistanceByAddress(ctx context.Context, city, origin, destination string) (float64, error)
}

// GeoOracle resolves coordinates to administrative divisions.
type GeoOracle interface {
	ReverseGeocode(ctx context.Context, location string) (District, error)
}

// TextOracle answers a free-form instruction over input data. The response
// is unstructured text and may embed JSON that callers extract best-effort.
type TextOracle interface {
	Classify(ctx context.Context, input, instruction string) (string, error)
}

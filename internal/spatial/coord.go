package spatial

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is a geographic coordinate.
type Point struct {
	Lon float64
	Lat float64
}

// ParseLocation parses a "lon,lat" coordinate string as emitted by the
// vehicle telemetry (longitude first, AMap order).
func ParseLocation(s string) (Point, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("invalid location %q: want \"lon,lat\"", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	return Point{Lon: lon, Lat: lat}, nil
}

// FormatLocation renders a point back to the "lon,lat" telemetry form with
// six decimal places, matching the source data precision.
func (p Point) FormatLocation() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lon, p.Lat)
}

// Centroid calculates the arithmetic mean coordinate of a set of points.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sumLon, sumLat float64
	for _, p := range points {
		sumLon += p.Lon
		sumLat += p.Lat
	}
	n := float64(len(points))
	return Point{Lon: sumLon / n, Lat: sumLat / n}
}

// CentroidLocation parses a list of "lon,lat" strings and returns the mean
// coordinate formatted the same way. Unparseable entries are skipped; the
// empty-input centroid is "0.000000,0.000000".
func CentroidLocation(locations []string) string {
	var points []Point
	for _, loc := range locations {
		p, err := ParseLocation(loc)
		if err != nil {
			continue
		}
		points = append(points, p)
	}
	return Centroid(points).FormatLocation()
}

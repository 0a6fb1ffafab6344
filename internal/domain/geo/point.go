// Package geo parses geo_point field values.
package geo

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Parse accepts the usual geo_point spellings: an object {"lat":..,"lon":..},
// a "lat,lon" string, or a [lon, lat] array.
func Parse(v any) (Point, error) {
	var p Point
	switch x := v.(type) {
	case Point:
		p = x
	case map[string]any:
		lat, okLat := number(x["lat"])
		lon, okLon := number(x["lon"])
		if !okLat || !okLon {
			return Point{}, domain.Invalid("geo_point object needs numeric lat and lon")
		}
		p = Point{Lat: lat, Lon: lon}
	case string:
		latS, lonS, ok := strings.Cut(x, ",")
		if !ok {
			return Point{}, domain.Invalid("invalid geo_point %q, want \"lat,lon\"", x)
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(latS), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonS), 64)
		if errLat != nil || errLon != nil {
			return Point{}, domain.Invalid("invalid geo_point %q, want \"lat,lon\"", x)
		}
		p = Point{Lat: lat, Lon: lon}
	case []any:
		if len(x) != 2 {
			return Point{}, domain.Invalid("geo_point array needs [lon, lat]")
		}
		lon, okLon := number(x[0])
		lat, okLat := number(x[1])
		if !okLat || !okLon {
			return Point{}, domain.Invalid("geo_point array needs numeric [lon, lat]")
		}
		p = Point{Lat: lat, Lon: lon}
	default:
		return Point{}, domain.Invalid("cannot convert %T to geo_point", v)
	}
	if !ValidateCoordinates(p.Lat, p.Lon) {
		return Point{}, domain.Invalid("geo_point out of range: lat %g, lon %g", p.Lat, p.Lon)
	}
	return p, nil
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

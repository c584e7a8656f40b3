package geo

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0

	// KmPerDegree is the approximate length of one degree of latitude.
	KmPerDegree = 111.0

	// poleLatitude is where a longitude delta stops being meaningful.
	poleLatitude = 89.9
)

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceKm returns the great-circle distance between two points.
// Inputs outside the valid coordinate ranges give an unspecified result.
func DistanceKm(lon1, lat1, lon2, lat2 float64) float64 {
	lon1, lat1, lon2, lat2 = radians(lon1), radians(lat1), radians(lon2), radians(lat2)

	dlon := lon2 - lon1
	dlat := lat2 - lat1
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Asin(math.Sqrt(math.Min(1, a)))
	return EarthRadiusKm * c
}

// ValidCoordinates reports whether lat/lng are inside their ranges.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 &&
		!math.IsNaN(lat) && !math.IsNaN(lng)
}

// Box is a lat/lng rectangle used as a cheap prefilter.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBox converts a radius around (lat, lng) into a lat/lng rectangle.
// Near the poles the longitude span covers the whole range.
func BoundingBox(lat, lng, radiusKm float64) Box {
	latDelta := radiusKm / KmPerDegree
	box := Box{
		MinLat: math.Max(-90, lat-latDelta),
		MaxLat: math.Min(90, lat+latDelta),
		MinLng: -180,
		MaxLng: 180,
	}

	if math.Abs(lat) >= poleLatitude {
		return box
	}
	lngDelta := radiusKm / (KmPerDegree * math.Cos(radians(lat)))

	// The circle bulges past the flat estimate at high latitudes and large
	// radii; widen to its true longitude extent.
	s := math.Sin(radiusKm/EarthRadiusKm) / math.Cos(radians(lat))
	if s >= 1 {
		return box
	}
	lngDelta = math.Max(lngDelta, math.Asin(s)*180/math.Pi)
	if lng-lngDelta < -180 || lng+lngDelta > 180 {
		// Crossing the antimeridian: keep the whole longitude range.
		return box
	}
	box.MinLng = lng - lngDelta
	box.MaxLng = lng + lngDelta
	return box
}

func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// RoundKm rounds a distance to one decimal.
func RoundKm(d float64) float64 {
	return math.Round(d*10) / 10
}

package domain

import "math"

const earthRadiusKm = 6371.0

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Address struct {
	Street   string   `json:"street,omitempty"`
	City     string   `json:"city"`
	State    string   `json:"state"`
	PinCode  int      `json:"pin_code"`
	Location Location `json:"location"`
}

// DistanceKm returns the great-circle distance between two locations.
func DistanceKm(a, b Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Package geo computes great-circle distances and resolves addresses to coordinates.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// DistanceKm returns the Haversine distance between two points, rounded to 2 decimals.
func DistanceKm(latA, lonA, latB, lonB float64) float64 {
	lat1 := radians(latA)
	lat2 := radians(latB)
	dLat := radians(latB - latA)
	dLon := radians(lonB - lonA)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(EarthRadiusKm*c*100) / 100
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

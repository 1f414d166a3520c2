package services

import (
	"math"
	"sort"

	"github.com/uddalak2005/AgroSure/models"
	"github.com/uddalak2005/AgroSure/storage"
)

// LoanSearchRadiusMeters is the fixed proximity radius for bank matching.
const LoanSearchRadiusMeters = 10000.0

// BankMatch is a bank plus its distance from the query point.
type BankMatch struct {
	models.Bank
	DistanceM int `json:"distance_m"`
}

// CalculateDistance returns the haversine distance between two points in meters.
func CalculateDistance(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371000.0

	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// NearbyBanks returns every bank within radiusMeters of (lat, lng), closest
// first. A coarse bounding box narrows the SQL scan before the exact
// haversine check.
func NearbyBanks(lat, lng, radiusMeters float64) []BankMatch {
	latDelta := radiusMeters / 111320.0
	lngDelta := latDelta
	if cosLat := math.Cos(lat * math.Pi / 180); cosLat > 0.01 {
		lngDelta = radiusMeters / (111320.0 * cosLat)
	}

	var banks []models.Bank
	storage.DB.
		Where("lat BETWEEN ? AND ?", lat-latDelta, lat+latDelta).
		Where("lng BETWEEN ? AND ?", lng-lngDelta, lng+lngDelta).
		Find(&banks)

	matches := make([]BankMatch, 0, len(banks))
	for _, bank := range banks {
		d := CalculateDistance(lat, lng, bank.Lat, bank.Lng)
		if d <= radiusMeters {
			matches = append(matches, BankMatch{Bank: bank, DistanceM: int(d)})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].DistanceM < matches[j].DistanceM
	})

	return matches
}

package service

import (
	"math"
	"time"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
)

const (
	quoteCurrency  = "MXN"
	earthRadiusKm  = 6371.0
	perKgSurcharge = 2.5
)

// serviceRate holds the pricing parameters for one service type.
type serviceRate struct {
	Base  float64
	PerKm float64
}

var serviceRates = map[string]serviceRate{
	"express":  {Base: 120, PerKm: 12},
	"same_day": {Base: 80, PerKm: 9},
	"standard": {Base: 50, PerKm: 6},
}

// quoteOrder estimates the delivery price from the straight-line distance
// between pickup and dropoff plus a weight surcharge. Amounts are rounded to
// two decimals.
func quoteOrder(serviceType string, pickup, dropoff domain.Coordinates, weightKg float64) domain.Quote {
	rate, ok := serviceRates[serviceType]
	if !ok {
		rate = serviceRates["standard"]
	}

	distance := haversineKm(pickup, dropoff)
	amount := rate.Base + rate.PerKm*distance + perKgSurcharge*weightKg

	return domain.Quote{
		DistanceKm: math.Round(distance*100) / 100,
		Amount:     math.Round(amount*100) / 100,
		Currency:   quoteCurrency,
	}
}

// haversineKm returns the great-circle distance between two points.
func haversineKm(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// estimatedDelivery calculates the promised delivery time for a service type.
func estimatedDelivery(serviceType string, from time.Time) time.Time {
	endOfDay := time.Date(from.Year(), from.Month(), from.Day(), 18, 0, 0, 0, time.UTC)
	switch serviceType {
	case "express":
		return from.Add(4 * time.Hour)
	case "same_day":
		return endOfDay
	default: // "standard" or unknown
		return endOfDay.AddDate(0, 0, 2)
	}
}

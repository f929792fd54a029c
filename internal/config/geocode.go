package config

import (
	"fmt"
	"log/slog"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
)

// GeocodeFunc resolves a city to coordinates.
type GeocodeFunc func(city airquality.CitySpec) (lat, lng float64, err error)

// GoogleGeocoder returns a GeocodeFunc backed by the Google Geocoding API.
func GoogleGeocoder(apiKey string) GeocodeFunc {
	geocoder.ApiKey = apiKey
	return func(city airquality.CitySpec) (float64, float64, error) {
		loc, err := geocoder.Geocoding(geocoder.Address{
			City:    city.Name,
			Country: city.Country,
		})
		if err != nil {
			return 0, 0, fmt.Errorf("geocode %s, %s: %w", city.Name, city.Country, err)
		}
		return loc.Latitude, loc.Longitude, nil
	}
}

// BackfillCoordinates fills in coordinates for cities that have none. It runs
// once at startup, before the catalog is frozen, and returns the number of
// cities updated. Failures leave the city without coordinates.
func BackfillCoordinates(scopes map[string][]airquality.CitySpec, geocode GeocodeFunc, logger *slog.Logger) int {
	resolved := make(map[string][2]float64)
	updated := 0
	for name, cities := range scopes {
		for i, city := range cities {
			if city.HasGeo() {
				continue
			}
			key := city.Key()
			coords, ok := resolved[key]
			if !ok {
				lat, lng, err := geocode(city)
				if err != nil {
					logger.Warn("geocoder: lookup failed", "scope", name, "city", city.Name, "error", err)
					continue
				}
				coords = [2]float64{lat, lng}
				resolved[key] = coords
			}
			cities[i].Lat, cities[i].Lng = coords[0], coords[1]
			updated++
		}
	}
	return updated
}

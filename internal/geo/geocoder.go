package geo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

var geocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "community_pulse_geocode_requests_total",
	Help: "Geocoding lookups by outcome.",
}, []string{"outcome"})

// Geocoder resolves a free-text address. ok is false when the address could not be resolved;
// failures never surface as errors.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (lat, lon float64, ok bool)
}

// Nop never resolves anything. Used when no API key is configured.
type Nop struct{}

func (Nop) Resolve(context.Context, string) (float64, float64, bool) { return 0, 0, false }

// mapsClient is the subset of *maps.Client used here.
type mapsClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// Google resolves addresses with the Google Maps Geocoding API.
type Google struct {
	client  mapsClient
	timeout time.Duration
	logger  *zap.Logger
}

// NewGoogle creates a Google geocoder for apiKey.
func NewGoogle(apiKey string, logger *zap.Logger) (*Google, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &Google{client: c, timeout: 5 * time.Second, logger: logger}, nil
}

// Resolve returns the first result's location.
func (g *Google) Resolve(ctx context.Context, address string) (float64, float64, bool) {
	address = strings.TrimSpace(address)
	if address == "" {
		return 0, 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		geocodeRequests.WithLabelValues("error").Inc()
		g.logger.Warn("geocoding failed", zap.String("address", address), zap.Error(err))
		return 0, 0, false
	}
	if len(results) == 0 {
		geocodeRequests.WithLabelValues("empty").Inc()
		g.logger.Info("geocoding returned no results", zap.String("address", address))
		return 0, 0, false
	}
	geocodeRequests.WithLabelValues("ok").Inc()
	loc := results[0].Geometry.Location
	return loc.Lat, loc.Lng, true
}

// New returns a Google geocoder when apiKey is set, Nop otherwise.
func New(apiKey string, logger *zap.Logger) (Geocoder, error) {
	if apiKey == "" {
		if logger != nil {
			logger.Warn("GOOGLE_MAPS_API_KEY not set, geocoding disabled")
		}
		return Nop{}, nil
	}
	return NewGoogle(apiKey, logger)
}

// Fill geocodes address when either coordinate is missing. Existing coordinates are kept
// when resolution fails.
func Fill(ctx context.Context, g Geocoder, address string, lat, lon *float64) (*float64, *float64) {
	if lat != nil && lon != nil {
		return lat, lon
	}
	if g == nil {
		return lat, lon
	}
	la, lo, ok := g.Resolve(ctx, address)
	if !ok {
		return lat, lon
	}
	return &la, &lo
}

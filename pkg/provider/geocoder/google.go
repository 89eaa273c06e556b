package geocoder

import (
	"context"
	"net/http"
	"strings"

	"github.com/lintang-b-s/minimap/pkg/config"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/provider"
	"github.com/lintang-b-s/minimap/pkg/util"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

type GoogleGeocoder struct {
	log    *zap.Logger
	client *maps.Client
}

func NewGoogleGeocoder(cfg config.Geocoder, httpClient *http.Client, log *zap.Logger) (*GoogleGeocoder, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey), maps.WithHTTPClient(httpClient)}
	if cfg.BaseURL != "" && cfg.BaseURL != config.NOMINATIM_BASE_URL {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, util.WrapErrorf(da.ErrConfiguration, util.ErrInternalServerError,
			"failed to create maps client: %v", err)
	}
	return &GoogleGeocoder{log: log, client: client}, nil
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, query string, limit int) ([]da.CandidateLocation, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "ZERO_RESULTS"):
			return []da.CandidateLocation{}, nil
		case provider.IsTimeout(err) || ctx.Err() == context.DeadlineExceeded:
			return nil, timeoutError(query)
		default:
			return nil, providerError("google geocoding failed: %s", msg)
		}
	}

	candidates := make([]da.CandidateLocation, 0, util.MinInt(len(results), limit))
	for _, r := range results {
		if len(candidates) == limit {
			break
		}
		loc := r.Geometry.Location
		candidates = append(candidates, da.NewCandidateLocation(r.FormattedAddress, loc.Lat, loc.Lng))
	}
	return candidates, nil
}

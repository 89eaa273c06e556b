package directions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/lintang-b-s/minimap/pkg/config"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/provider"
	"github.com/lintang-b-s/minimap/pkg/util"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

type GoogleClient struct {
	log     *zap.Logger
	client  *maps.Client
	mode    maps.Mode
	timeout time.Duration
}

func NewGoogleClient(cfg config.Directions, httpClient *http.Client, log *zap.Logger) (*GoogleClient, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey), maps.WithHTTPClient(httpClient)}
	if cfg.BaseURL != "" && cfg.BaseURL != config.ORS_BASE_URL {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, util.WrapErrorf(da.ErrConfiguration, util.ErrInternalServerError,
			"failed to create maps client: %v", err)
	}
	return &GoogleClient{
		log:     log,
		client:  client,
		mode:    travelMode(cfg.Profile),
		timeout: cfg.Timeout,
	}, nil
}

// travelMode maps an openrouteservice profile name onto the google travel mode.
func travelMode(profile string) maps.Mode {
	switch {
	case strings.HasPrefix(profile, "cycling"):
		return maps.TravelModeBicycling
	case strings.HasPrefix(profile, "foot"), strings.HasPrefix(profile, "wheelchair"):
		return maps.TravelModeWalking
	default:
		return maps.TravelModeDriving
	}
}

func (c *GoogleClient) GetRoute(ctx context.Context, origin, destination geo.Coordinate) ([]geo.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	r := &maps.DirectionsRequest{
		Origin:      origin.String(),
		Destination: destination.String(),
		Mode:        c.mode,
	}

	routes, _, err := c.client.Directions(ctx, r)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "ZERO_RESULTS"), strings.Contains(msg, "NOT_FOUND"):
			return nil, routeUnavailable("no route between the given points: %s", msg)
		case provider.IsTimeout(err) || ctx.Err() == context.DeadlineExceeded:
			return nil, providerError("google directions timed out after %s (retryable)", c.timeout)
		case strings.Contains(msg, "UNKNOWN_ERROR"), strings.Contains(msg, "OVER_QUERY_LIMIT"):
			return nil, providerError("google directions failed (retryable): %s", msg)
		default:
			return nil, providerError("google directions failed: %s", msg)
		}
	}

	if len(routes) == 0 {
		return nil, routeUnavailable("directions response has no routes")
	}

	points, err := routes[0].OverviewPolyline.Decode()
	if err != nil {
		return nil, providerError("malformed overview polyline: %v", err)
	}
	if len(points) == 0 {
		return nil, routeUnavailable("directions response has an empty geometry")
	}

	waypoints := make([]geo.Coordinate, 0, len(points))
	for _, p := range points {
		coord := geo.NewCoordinate(p.Lat, p.Lng)
		if err := coord.Validate(); err != nil {
			return nil, providerError("route point out of range: %v", err)
		}
		waypoints = append(waypoints, coord)
	}

	c.log.Debug("google route", zap.Int("waypoints", len(waypoints)), zap.String("mode", string(c.mode)))
	return waypoints, nil
}

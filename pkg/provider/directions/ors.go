package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lintang-b-s/minimap/pkg/config"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/provider"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// openrouteservice error codes that mean no route exists between the points.
const (
	ORS_ERR_EXCEEDS_LIMIT   = 2004
	ORS_ERR_ROUTE_NOT_FOUND = 2009
	ORS_ERR_POINT_NOT_FOUND = 2010
)

type ORSClient struct {
	log     *zap.Logger
	http    *http.Client
	baseURL string
	apiKey  string
	profile string
	timeout time.Duration
}

func NewORSClient(cfg config.Directions, httpClient *http.Client, log *zap.Logger) *ORSClient {
	return &ORSClient{
		log:     log,
		http:    httpClient,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		profile: cfg.Profile,
		timeout: cfg.Timeout,
	}
}

type orsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

type orsErrorBody struct {
	Error json.RawMessage `json:"error"`
}

type orsErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *ORSClient) GetRoute(ctx context.Context, origin, destination geo.Coordinate) ([]geo.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// openrouteservice takes [lon, lat]
	body, err := json.Marshal(orsRequest{Coordinates: [][2]float64{
		{origin.GetLon(), origin.GetLat()},
		{destination.GetLon(), destination.GetLat()},
	}})
	if err != nil {
		return nil, providerError("encode directions request: %v", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s/geojson", c.baseURL, c.profile)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, providerError("build directions request: %v", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if provider.IsTimeout(err) {
			return nil, providerError("openrouteservice timed out after %s (retryable)", c.timeout)
		}
		return nil, providerError("openrouteservice request failed (retryable): %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, provider.MaxResponseBody))
	if err != nil {
		return nil, providerError("read openrouteservice response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp.StatusCode, data)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, providerError("malformed openrouteservice response: %v", err)
	}

	waypoints, err := waypointsFromFeatures(fc)
	if err != nil {
		return nil, err
	}

	c.log.Debug("openrouteservice route", zap.Int("waypoints", len(waypoints)),
		zap.String("profile", c.profile))
	return waypoints, nil
}

func (c *ORSClient) statusError(status int, data []byte) error {
	var body orsErrorBody
	detail := orsErrorDetail{Message: http.StatusText(status)}
	if err := json.Unmarshal(data, &body); err == nil && len(body.Error) > 0 {
		if err := json.Unmarshal(body.Error, &detail); err != nil {
			// auth and quota errors come as a plain string
			var msg string
			if json.Unmarshal(body.Error, &msg) == nil {
				detail.Message = msg
			}
		}
	}

	switch detail.Code {
	case ORS_ERR_ROUTE_NOT_FOUND, ORS_ERR_POINT_NOT_FOUND, ORS_ERR_EXCEEDS_LIMIT:
		return routeUnavailable("no route between the given points: %s", detail.Message)
	}

	if provider.Retryable(status) {
		return providerError("openrouteservice returned %d (retryable): %s", status, detail.Message)
	}
	return providerError("openrouteservice returned %d: %s", status, detail.Message)
}

// waypointsFromFeatures takes the first feature's line string and flips it to lat, lon.
func waypointsFromFeatures(fc *geojson.FeatureCollection) ([]geo.Coordinate, error) {
	if len(fc.Features) == 0 {
		return nil, routeUnavailable("directions response has no features")
	}

	ls, ok := fc.Features[0].Geometry.(orb.LineString)
	if !ok {
		if fc.Features[0].Geometry == nil {
			return nil, routeUnavailable("directions response has an empty geometry")
		}
		return nil, providerError("unexpected route geometry %s", fc.Features[0].Geometry.GeoJSONType())
	}
	if len(ls) == 0 {
		return nil, routeUnavailable("directions response has an empty geometry")
	}

	waypoints := make([]geo.Coordinate, 0, len(ls))
	for _, p := range ls {
		coord := geo.NewCoordinate(p.Lat(), p.Lon())
		if err := coord.Validate(); err != nil {
			return nil, providerError("route point out of range: %v", err)
		}
		waypoints = append(waypoints, coord)
	}
	return waypoints, nil
}

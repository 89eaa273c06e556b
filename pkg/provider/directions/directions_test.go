package directions

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lintang-b-s/minimap/pkg/config"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/provider"
	"github.com/lintang-b-s/minimap/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const orsRoute = `{
  "type": "FeatureCollection",
  "bbox": [-74.0060, 40.7128, -73.9855, 40.7580],
  "features": [{
    "type": "Feature",
    "bbox": [-74.0060, 40.7128, -73.9855, 40.7580],
    "properties": {"summary": {"distance": 6543.2, "duration": 980.1}},
    "geometry": {"type": "LineString", "coordinates": [[-74.0060, 40.7128], [-73.9950, 40.7300], [-73.9855, 40.7580]]}
  }],
  "metadata": {"service": "routing"}
}`

var (
	newYork   = geo.NewCoordinate(40.7128, -74.0060)
	timesSq   = geo.NewCoordinate(40.7580, -73.9855)
	testKey   = "test-key"
	orsConfig = func(baseURL string) config.Directions {
		return config.Directions{
			Provider: config.PROVIDER_ORS,
			APIKey:   testKey,
			BaseURL:  baseURL,
			Profile:  "driving-car",
			Timeout:  2 * time.Second,
		}
	}
)

func TestORSGetRoute(t *testing.T) {
	var gotBody orsRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/directions/driving-car/geojson", r.URL.Path)
		assert.Equal(t, testKey, r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &gotBody))

		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(orsRoute))
	}))
	defer srv.Close()

	c := NewORSClient(orsConfig(srv.URL), provider.NewHTTPClient(5*time.Second), zap.NewNop())
	waypoints, err := c.GetRoute(t.Context(), newYork, timesSq)
	require.NoError(t, err)

	assert.Equal(t, [][2]float64{{-74.0060, 40.7128}, {-73.9855, 40.7580}}, gotBody.Coordinates)
	require.Len(t, waypoints, 3)
	assert.Equal(t, newYork, waypoints[0])
	assert.Equal(t, geo.NewCoordinate(40.7300, -73.9950), waypoints[1])
	assert.Equal(t, timesSq, waypoints[2])
}

func TestORSGetRouteErrors(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		wantKind error
		wantCode error
	}{
		{
			name:     "no features",
			status:   http.StatusOK,
			body:     `{"type":"FeatureCollection","features":[]}`,
			wantKind: da.ErrRouteUnavailable,
			wantCode: util.ErrBadGateway,
		},
		{
			name:     "empty geometry",
			status:   http.StatusOK,
			body:     `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[]}}]}`,
			wantKind: da.ErrRouteUnavailable,
			wantCode: util.ErrBadGateway,
		},
		{
			name:     "route not found",
			status:   http.StatusNotFound,
			body:     `{"error":{"code":2009,"message":"Route could not be found"}}`,
			wantKind: da.ErrRouteUnavailable,
			wantCode: util.ErrBadGateway,
		},
		{
			name:     "unroutable point",
			status:   http.StatusNotFound,
			body:     `{"error":{"code":2010,"message":"Could not find routable point within a radius of 350.0 meters"}}`,
			wantKind: da.ErrRouteUnavailable,
			wantCode: util.ErrBadGateway,
		},
		{
			name:     "bad key",
			status:   http.StatusForbidden,
			body:     `{"error":"Access to this API has been disallowed"}`,
			wantKind: da.ErrProvider,
			wantCode: util.ErrServiceUnavailable,
		},
		{
			name:     "quota",
			status:   http.StatusTooManyRequests,
			body:     `{"error":"Rate limit exceeded"}`,
			wantKind: da.ErrProvider,
			wantCode: util.ErrServiceUnavailable,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `oops`,
			wantKind: da.ErrProvider,
			wantCode: util.ErrServiceUnavailable,
		},
		{
			name:     "malformed body",
			status:   http.StatusOK,
			body:     `{"type":"Feature`,
			wantKind: da.ErrProvider,
			wantCode: util.ErrServiceUnavailable,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewORSClient(orsConfig(srv.URL), provider.NewHTTPClient(5*time.Second), zap.NewNop())
			_, err := c.GetRoute(t.Context(), newYork, timesSq)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantKind), "got %v", err)
			assert.Equal(t, tt.wantCode, util.CodeOf(err))
		})
	}
}

func TestORSGetRouteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := orsConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	c := NewORSClient(cfg, provider.NewHTTPClient(5*time.Second), zap.NewNop())

	_, err := c.GetRoute(t.Context(), newYork, timesSq)
	require.Error(t, err)
	assert.True(t, errors.Is(err, da.ErrProvider))
	assert.Contains(t, err.Error(), "retryable")
}

func TestGoogleGetRoute(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		wantLen   int
		wantKind  error
		wantFirst geo.Coordinate
	}{
		{
			name:      "overview polyline",
			body:      `{"status":"OK","routes":[{"summary":"I-5","overview_polyline":{"points":"_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"},"legs":[]}]}`,
			wantLen:   3,
			wantFirst: geo.NewCoordinate(38.5, -120.2),
		},
		{
			name:     "zero results",
			body:     `{"status":"ZERO_RESULTS","routes":[]}`,
			wantKind: da.ErrRouteUnavailable,
		},
		{
			name:     "denied",
			body:     `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","routes":[]}`,
			wantKind: da.ErrProvider,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/maps/api/directions/json", r.URL.Path)
				assert.Equal(t, "driving", r.URL.Query().Get("mode"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			cfg := config.Directions{
				Provider: config.PROVIDER_GOOGLE,
				APIKey:   "AIza-test",
				BaseURL:  srv.URL,
				Profile:  "driving-car",
				Timeout:  2 * time.Second,
			}
			c, err := New(cfg, provider.NewHTTPClient(5*time.Second), zap.NewNop())
			require.NoError(t, err)

			waypoints, err := c.GetRoute(t.Context(), geo.NewCoordinate(38.5, -120.2), geo.NewCoordinate(43.252, -126.453))
			if tt.wantKind != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantKind), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Len(t, waypoints, tt.wantLen)
			assert.InDelta(t, tt.wantFirst.GetLat(), waypoints[0].GetLat(), 1e-5)
			assert.InDelta(t, tt.wantFirst.GetLon(), waypoints[0].GetLon(), 1e-5)
		})
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(config.Directions{Provider: "mapbox"}, provider.NewHTTPClient(time.Second), zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, da.ErrConfiguration))
}

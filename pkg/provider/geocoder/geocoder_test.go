package geocoder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lintang-b-s/minimap/pkg/config"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/provider"
	"github.com/lintang-b-s/minimap/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const springfield = `[
  {"place_id": 1, "display_name": "Springfield, Sangamon County, Illinois, United States", "lat": "39.7990175", "lon": "-89.6439575"},
  {"place_id": 2, "display_name": "Springfield, Hampden County, Massachusetts, United States", "lat": "42.1018764", "lon": "-72.5886727"},
  {"place_id": 3, "display_name": "Springfield, Greene County, Missouri, United States", "lat": "37.2081729", "lon": "-93.2922715"},
  {"place_id": 4, "display_name": "broken", "lat": "north", "lon": "-93.0"}
]`

func nominatimConfig(baseURL string) config.Geocoder {
	return config.Geocoder{
		Provider:      config.PROVIDER_NOMINATIM,
		BaseURL:       baseURL,
		UserAgent:     "minimap/1.0",
		Timeout:       time.Second,
		MaxCandidates: 5,
	}
}

func TestNominatimGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Springfield", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "minimap/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(springfield))
	}))
	defer srv.Close()

	g, err := New(nominatimConfig(srv.URL), provider.NewHTTPClient(5*time.Second), zap.NewNop())
	require.NoError(t, err)

	candidates, err := g.Geocode(t.Context(), "Springfield", 5)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, "Springfield, Sangamon County, Illinois, United States", candidates[0].Label)
	assert.InDelta(t, 39.7990175, candidates[0].Coordinate.GetLat(), 1e-9)
	assert.InDelta(t, -72.5886727, candidates[1].Coordinate.GetLon(), 1e-9)
}

func TestNominatimGeocodeErrors(t *testing.T) {
	testCases := []struct {
		name     string
		handler  http.HandlerFunc
		timeout  time.Duration
		wantKind error
		wantCode error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			timeout:  time.Second,
			wantKind: da.ErrProvider,
			wantCode: util.ErrServiceUnavailable,
		},
		{
			name: "malformed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"not": "a list"}`))
			},
			timeout:  time.Second,
			wantKind: da.ErrProvider,
			wantCode: util.ErrServiceUnavailable,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout:  50 * time.Millisecond,
			wantKind: da.ErrResolutionTimeout,
			wantCode: util.ErrGatewayTimeout,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			g := NewNominatim(nominatimConfig(srv.URL), provider.NewHTTPClient(5*time.Second), zap.NewNop())
			ctx, cancel := context.WithTimeout(t.Context(), tt.timeout)
			defer cancel()

			_, err := g.Geocode(ctx, "Springfield", 5)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantKind), "got %v", err)
			assert.Equal(t, tt.wantCode, util.CodeOf(err))
		})
	}
}

func TestGoogleGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"formatted_address":"Paris, France","geometry":{"location":{"lat":48.856614,"lng":2.3522219}}},
			{"formatted_address":"Paris, TX, USA","geometry":{"location":{"lat":33.6609389,"lng":-95.555513}}}
		]}`))
	}))
	defer srv.Close()

	cfg := config.Geocoder{Provider: config.PROVIDER_GOOGLE, APIKey: "AIza-test", BaseURL: srv.URL}
	g, err := New(cfg, provider.NewHTTPClient(5*time.Second), zap.NewNop())
	require.NoError(t, err)

	candidates, err := g.Geocode(t.Context(), "Paris", 1)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Paris, France", candidates[0].Label)
	assert.InDelta(t, 2.3522219, candidates[0].Coordinate.GetLon(), 1e-9)
}

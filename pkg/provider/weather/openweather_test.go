package weather

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lintang-b-s/minimap/pkg/config"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentCondition(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "rain", status: http.StatusOK, body: `{"weather":[{"id":501,"main":"Rain","description":"moderate rain"}],"name":"Yogyakarta"}`, want: "Rain"},
		{name: "first entry wins", status: http.StatusOK, body: `{"weather":[{"main":"Mist"},{"main":"Rain"}]}`, want: "Mist"},
		{name: "empty list", status: http.StatusOK, body: `{"weather":[]}`, wantErr: true},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"cod":401,"message":"Invalid API key"}`, wantErr: true},
		{name: "malformed", status: http.StatusOK, body: `<html>`, wantErr: true},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/data/2.5/weather", r.URL.Path)
				assert.Equal(t, "-7.7956", r.URL.Query().Get("lat"))
				assert.Equal(t, "110.3695", r.URL.Query().Get("lon"))
				assert.Equal(t, "owm-key", r.URL.Query().Get("appid"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			o := NewOpenWeatherMap(config.Weather{APIKey: "owm-key", BaseURL: srv.URL}, provider.NewHTTPClient(time.Second))
			got, err := o.CurrentCondition(t.Context(), geo.NewCoordinate(-7.7956, 110.3695))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

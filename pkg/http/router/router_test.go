package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/http/usecases"
	"github.com/lintang-b-s/minimap/pkg/util"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type panicService struct{}

func (panicService) PlanRoute(ctx context.Context, req da.RouteRequest) (*usecases.RoutePlan, error) {
	panic("boom")
}

func (panicService) PlanRouteByPlaces(ctx context.Context, req usecases.PlacesRequest) (*usecases.RoutePlan, *usecases.Ambiguity, error) {
	return nil, nil, util.WrapErrorf(da.ErrNoMatch, util.ErrBadParamInput, "no matching location found for %q", req.StartQuery)
}

func (panicService) Choose(ctx context.Context, token, startChoice, endChoice, strategy string) (*usecases.RoutePlan, *usecases.Ambiguity, error) {
	return nil, nil, util.WrapErrorf(da.ErrInvalidSelection, util.ErrBadParamInput, "unknown or expired session token")
}

func (panicService) GetArtifact(ctx context.Context, id string) (da.RouteArtifact, error) {
	return da.RouteArtifact{}, util.WrapErrorf(da.ErrArtifactNotFound, util.ErrNotFound, "route map %q not found", id)
}

func (panicService) GetRouteData(ctx context.Context, id string) (*geojson.FeatureCollection, error) {
	return nil, util.WrapErrorf(da.ErrArtifactNotFound, util.ErrNotFound, "route map %q not found", id)
}

func newHandler(rateLimit RateLimit) http.Handler {
	return NewAPI(zap.NewNop()).Handler(rateLimit, panicService{}, "")
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	h := newHandler(RateLimit{})

	testCases := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		wantStatus  int
		wantBody    string
	}{
		{name: "heartbeat", method: http.MethodGet, target: "/healthz", wantStatus: http.StatusOK, wantBody: "."},
		{name: "index", method: http.MethodGet, target: "/", wantStatus: http.StatusOK, wantBody: "start_city"},
		{name: "gps helper", method: http.MethodGet, target: "/static/js/gps.js", wantStatus: http.StatusOK,
			wantBody: "geolocation"},
		{name: "unknown map", method: http.MethodGet, target: "/api/map/abc", wantStatus: http.StatusNotFound,
			wantBody: "NotFoundError"},
		{name: "no match", method: http.MethodPost, target: "/api/get_route", contentType: "application/json",
			body: `{"start_city":"Atlantis","end_city":"Chicago"}`, wantStatus: http.StatusBadRequest, wantBody: "NoMatchError"},
		{name: "form body", method: http.MethodPost, target: "/api/get_route",
			contentType: "application/x-www-form-urlencoded", body: "start_city=Atlantis&end_city=Chicago",
			wantStatus: http.StatusBadRequest, wantBody: "NoMatchError"},
		{name: "xml body", method: http.MethodPost, target: "/api/get_route", contentType: "application/xml",
			body: `<start_city>Atlantis</start_city>`, wantStatus: http.StatusUnsupportedMediaType},
		{name: "panic", method: http.MethodPost, target: "/api/route", contentType: "application/json",
			body:       `{"start_lat":1,"start_lon":2,"end_lat":3,"end_lon":4}`,
			wantStatus: http.StatusInternalServerError, wantBody: "InternalError"},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := serve(h, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			if tt.name != "heartbeat" {
				assert.NotEmpty(t, rec.Header().Get(REQUEST_ID_HEADER))
			}
		})
	}
}

func TestPanicResponseIsJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/route", strings.NewReader(`{"start_lat":1,"start_lon":2,"end_lat":3,"end_lon":4}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(newHandler(RateLimit{}), req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "InternalError", body["error"]["code"])
	assert.Equal(t, util.MessageInternalServerError, body["error"]["message"])
}

func TestLabels(t *testing.T) {
	var got string
	h := Labels(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = util.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(REQUEST_ID_HEADER, "req-42")
	rec := serve(h, req)
	assert.Equal(t, "req-42", got)
	assert.Equal(t, "req-42", rec.Header().Get(REQUEST_ID_HEADER))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, got, 36)
	assert.Equal(t, got, rec.Header().Get(REQUEST_ID_HEADER))
}

func TestRealIP(t *testing.T) {
	testCases := []struct {
		name   string
		header map[string]string
		want   string
	}{
		{name: "true client ip", header: map[string]string{"True-Client-IP": "203.0.113.7"}, want: "203.0.113.7"},
		{name: "x real ip", header: map[string]string{"X-Real-IP": "203.0.113.8"}, want: "203.0.113.8"},
		{name: "first forwarded", header: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, want: "203.0.113.9"},
		{name: "garbage keeps remote addr", header: map[string]string{"X-Real-IP": "not-an-ip"}, want: "192.0.2.1:1234"},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			serve(h, req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLimit(t *testing.T) {
	h := newHandler(RateLimit{Enabled: true, RPS: 0.001, Burst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/map/abc", nil)
		req.RemoteAddr = "198.51.100.1:5555"
		codes = append(codes, serve(h, req).Code)
	}
	assert.Equal(t, []int{http.StatusNotFound, http.StatusNotFound, http.StatusTooManyRequests}, codes)

	// other clients have their own bucket
	req := httptest.NewRequest(http.MethodGet, "/api/map/abc", nil)
	req.RemoteAddr = "198.51.100.2:5555"
	assert.Equal(t, http.StatusNotFound, serve(h, req).Code)
}

package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/lintang-b-s/minimap/pkg/config"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/http/usecases"
	"github.com/lintang-b-s/minimap/pkg/util"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// slowService holds GetArtifact until release is closed.
type slowService struct {
	entered chan struct{}
	release chan struct{}
}

func (s *slowService) PlanRoute(ctx context.Context, req da.RouteRequest) (*usecases.RoutePlan, error) {
	return nil, util.WrapErrorf(da.ErrRouteUnavailable, util.ErrBadGateway, "no route")
}

func (s *slowService) PlanRouteByPlaces(ctx context.Context, req usecases.PlacesRequest) (*usecases.RoutePlan, *usecases.Ambiguity, error) {
	return nil, nil, util.WrapErrorf(da.ErrNoMatch, util.ErrBadParamInput, "no matching location found for %q", req.StartQuery)
}

func (s *slowService) Choose(ctx context.Context, token, startChoice, endChoice, strategy string) (*usecases.RoutePlan, *usecases.Ambiguity, error) {
	return nil, nil, util.WrapErrorf(da.ErrInvalidSelection, util.ErrBadParamInput, "unknown or expired session token")
}

func (s *slowService) GetArtifact(ctx context.Context, id string) (da.RouteArtifact, error) {
	close(s.entered)
	<-s.release
	if err := ctx.Err(); err != nil {
		return da.RouteArtifact{}, util.WrapErrorf(err, util.ErrServiceUnavailable, "cancelled")
	}
	return da.RouteArtifact{ID: id, Document: []byte("<html>map</html>"), ContentType: "text/html; charset=utf-8"}, nil
}

func (s *slowService) GetRouteData(ctx context.Context, id string) (*geojson.FeatureCollection, error) {
	return nil, util.WrapErrorf(da.ErrArtifactNotFound, util.ErrNotFound, "route map %q not found", id)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestServerDrainsOnShutdown(t *testing.T) {
	port := freePort(t)
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	service := &slowService{entered: make(chan struct{}), release: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := NewServer(zap.NewNop())
	_, err := api.Use(ctx, zap.NewNop(), config.API{Port: port, Timeout: 5 * time.Second}, service)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	type result struct {
		status int
		body   string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := http.Get(base + "/api/map/dr5reg-9q5ctr-1")
		if err != nil {
			done <- result{err: err}
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		done <- result{status: resp.StatusCode, body: string(body), err: err}
	}()

	<-service.entered
	cancel()
	time.AfterFunc(100*time.Millisecond, func() { close(service.release) })

	require.NoError(t, api.Wait())

	got := <-done
	require.NoError(t, got.err)
	assert.Equal(t, http.StatusOK, got.status)
	assert.Equal(t, "<html>map</html>", got.body)

	_, err = http.Get(base + "/healthz")
	assert.Error(t, err)
}

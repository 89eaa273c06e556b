package directions

import (
	"context"
	"net/http"

	"github.com/lintang-b-s/minimap/pkg/config"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/util"
	"go.uber.org/zap"
)

// Client fetches the driving path between two points. on success the waypoints are non-empty and
// in travel order.
type Client interface {
	GetRoute(ctx context.Context, origin, destination geo.Coordinate) ([]geo.Coordinate, error)
}

func New(cfg config.Directions, httpClient *http.Client, log *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case config.PROVIDER_ORS:
		return NewORSClient(cfg, httpClient, log), nil
	case config.PROVIDER_GOOGLE:
		return NewGoogleClient(cfg, httpClient, log)
	default:
		return nil, util.WrapErrorf(da.ErrConfiguration, util.ErrInternalServerError,
			"unknown directions provider %q", cfg.Provider)
	}
}

func routeUnavailable(format string, a ...interface{}) error {
	return util.WrapErrorf(da.ErrRouteUnavailable, util.ErrBadGateway, format, a...)
}

func providerError(format string, a ...interface{}) error {
	return util.WrapErrorf(da.ErrProvider, util.ErrServiceUnavailable, format, a...)
}

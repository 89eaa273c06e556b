package geocoder

import (
	"context"
	"net/http"

	"github.com/lintang-b-s/minimap/pkg/config"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/util"
	"go.uber.org/zap"
)

// Geocoder turns a free-text place name into at most limit candidates, best match first.
// candidates may carry out of range coordinates, callers validate them.
type Geocoder interface {
	Geocode(ctx context.Context, query string, limit int) ([]da.CandidateLocation, error)
}

func New(cfg config.Geocoder, httpClient *http.Client, log *zap.Logger) (Geocoder, error) {
	switch cfg.Provider {
	case config.PROVIDER_NOMINATIM:
		return NewNominatim(cfg, httpClient, log), nil
	case config.PROVIDER_GOOGLE:
		return NewGoogleGeocoder(cfg, httpClient, log)
	default:
		return nil, util.WrapErrorf(da.ErrConfiguration, util.ErrInternalServerError,
			"unknown geocoder provider %q", cfg.Provider)
	}
}

func timeoutError(query string) error {
	return util.WrapErrorf(da.ErrResolutionTimeout, util.ErrGatewayTimeout,
		"geocoder timed out resolving %q, try again", query)
}

func providerError(format string, a ...interface{}) error {
	return util.WrapErrorf(da.ErrProvider, util.ErrServiceUnavailable, format, a...)
}

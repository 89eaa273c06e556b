package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lintang-b-s/minimap/pkg"
	"github.com/lintang-b-s/minimap/pkg/artifact"
	"github.com/lintang-b-s/minimap/pkg/config"
	"github.com/lintang-b-s/minimap/pkg/engine"
	"github.com/lintang-b-s/minimap/pkg/http"
	"github.com/lintang-b-s/minimap/pkg/http/usecases"
	"github.com/lintang-b-s/minimap/pkg/logger"
	"github.com/lintang-b-s/minimap/pkg/provider"
	"github.com/lintang-b-s/minimap/pkg/provider/directions"
	"github.com/lintang-b-s/minimap/pkg/provider/geocoder"
	owm "github.com/lintang-b-s/minimap/pkg/provider/weather"
	"github.com/lintang-b-s/minimap/pkg/render"
	"github.com/lintang-b-s/minimap/pkg/resolver"
	"github.com/lintang-b-s/minimap/pkg/weather"
	"go.uber.org/zap"
)

var (
	mapZoom     = flag.Int("zoom", pkg.DEFAULT_MAP_ZOOM, "initial zoom level of rendered maps")
	trafficSeed = flag.Uint64("traffic_seed", 0, "seed of the astar traffic factors, 0 uses the clock")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logger.NewWithEnv(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // ignore

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}
	defer cleanup()

	routingService, err := newRoutingService(ctx, cfg, logger)
	if err != nil {
		logger.Error("minimap server failed to start", zap.Error(err))
		os.Exit(1)
	}

	api := http.NewServer(logger)
	if _, err := api.Use(ctx, logger, cfg.API, routingService); err != nil {
		logger.Error("minimap server failed to start", zap.Error(err))
		os.Exit(1)
	}

	go func() {
		if err := api.Wait(); err != nil && ctx.Err() == nil {
			logger.Error("minimap server stopped", zap.Error(err))
			os.Exit(1)
		}
	}()

	signal := http.GracefulShutdown()
	logger.Info("minimap server shutting down", zap.String("signal", signal.String()))

	// cancelling ctx starts the http shutdown, Wait returns once in-flight requests are drained
	cleanup()
	if err := api.Wait(); err != nil {
		logger.Error("minimap server shutdown", zap.Error(err))
	}
	logger.Info("minimap server stopped")
}

func newRoutingService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*usecases.RoutingService, error) {
	directionsClient, err := directions.New(cfg.Directions, provider.NewHTTPClient(cfg.Directions.Timeout), log)
	if err != nil {
		return nil, err
	}
	geocoderClient, err := geocoder.New(cfg.Geocoder, provider.NewHTTPClient(cfg.Geocoder.Timeout), log)
	if err != nil {
		return nil, err
	}

	locationResolver := resolver.NewResolver(log, geocoderClient, cfg.Geocoder.Timeout, cfg.Geocoder.MaxCandidates)
	sessions := resolver.NewSessions(cfg.Resolver.SessionTTL, cfg.Resolver.SelectionRetryBudget)

	var traffic engine.TrafficModel = engine.NoTraffic{}
	if cfg.AstarTrafficJitter {
		traffic = engine.NewUniformTraffic(*trafficSeed)
	}
	postProcessor := engine.NewPostProcessor(log, traffic)

	store, err := artifact.New(ctx, cfg.Artifact, log)
	if err != nil {
		return nil, err
	}

	var advisor usecases.WeatherAdvisor
	if cfg.Weather.Enabled {
		advisor = weather.NewAdvisor(log, owm.NewOpenWeatherMap(cfg.Weather, provider.NewHTTPClient(cfg.Weather.Timeout)),
			cfg.Weather.Timeout)
	}

	return usecases.NewRoutingService(log, locationResolver, sessions, directionsClient, postProcessor,
		render.NewRenderer(log, *mapZoom), store, advisor, cfg.Resolver.SelectionRetryBudget), nil
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}

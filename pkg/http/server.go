package http

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/minimap/pkg/config"
	http_router "github.com/lintang-b-s/minimap/pkg/http/router"
	"github.com/lintang-b-s/minimap/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/minimap/pkg/http/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
	g   *errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use starts the api in the background. Wait blocks until it stops.
func (s *Server) Use(
	ctx context.Context,
	log *zap.Logger,

	cfg config.API,
	routingService controllers.RoutingService,
) (*Server, error) {
	serverConfig := http_server.Config{
		Port:              cfg.Port,
		Timeout:           cfg.Timeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	server := http_router.NewAPI(log)

	g, gctx := errgroup.WithContext(ctx)
	s.g = g

	g.Go(func() error {
		return server.Run(
			gctx, serverConfig, log,
			http_router.RateLimit{Enabled: cfg.RateLimit, RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
			routingService, cfg.PublicBaseURL,
		)
	})

	return s, nil
}

func (s *Server) Wait() error {
	if s.g == nil {
		return nil
	}
	return s.g.Wait()
}

// GracefulShutdown blocks until SIGINT or SIGTERM.
func GracefulShutdown() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

package usecases

import (
	"context"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/resolver"
)

type LocationResolver interface {
	ResolveMany(ctx context.Context, query string) ([]da.CandidateLocation, error)
}

type SelectionSessions interface {
	Begin(start, end *da.PlaceQuery, strategy da.Strategy) *resolver.Session
	Choose(token, startChoice, endChoice string) (*resolver.Session, error)
}

type DirectionsClient interface {
	GetRoute(ctx context.Context, origin, destination geo.Coordinate) ([]geo.Coordinate, error)
}

type PostProcessor interface {
	Apply(strategy da.Strategy, waypoints []geo.Coordinate) ([]geo.Coordinate, error)
}

type MapRenderer interface {
	Render(req da.RouteRequest, waypoints []geo.Coordinate) (da.RouteArtifact, error)
}

type ArtifactStore interface {
	Save(ctx context.Context, artifact da.RouteArtifact) error
	Get(ctx context.Context, id string) (da.RouteArtifact, error)
}

type WeatherAdvisor interface {
	Annotate(ctx context.Context, origin, destination geo.Coordinate) da.WeatherAdvisory
}

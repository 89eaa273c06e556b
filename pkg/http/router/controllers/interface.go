package controllers

import (
	"context"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/http/usecases"
	"github.com/paulmach/orb/geojson"
)

type RoutingService interface {
	PlanRoute(ctx context.Context, req da.RouteRequest) (*usecases.RoutePlan, error)
	PlanRouteByPlaces(ctx context.Context, req usecases.PlacesRequest) (*usecases.RoutePlan, *usecases.Ambiguity, error)
	Choose(ctx context.Context, token, startChoice, endChoice, strategy string) (*usecases.RoutePlan, *usecases.Ambiguity, error)
	GetArtifact(ctx context.Context, id string) (da.RouteArtifact, error)
	GetRouteData(ctx context.Context, id string) (*geojson.FeatureCollection, error)
}

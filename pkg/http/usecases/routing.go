package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/render"
	"github.com/lintang-b-s/minimap/pkg/resolver"
	"github.com/lintang-b-s/minimap/pkg/util"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StageError tags a pipeline failure with the stage it happened in.
type StageError struct {
	Stage da.Stage
	err   error
}

func (e *StageError) Error() string {
	return e.err.Error()
}

func (e *StageError) Unwrap() error {
	return e.err
}

func failedAt(stage da.Stage, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, err: err}
}

// StageOf returns the stage err failed in, STAGE_RECEIVED when it carries none.
func StageOf(err error) da.Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return da.STAGE_RECEIVED
}

type RoutePlan struct {
	Request    da.RouteRequest
	ArtifactID string
	Waypoints  []geo.Coordinate
	Polyline   string
	Weather    *da.WeatherAdvisory
}

// Ambiguity is returned instead of a plan when a place name matched several locations.
// the caller answers with Choose and the session token.
type Ambiguity struct {
	SessionToken string
	Start        *da.PlaceQuery
	End          *da.PlaceQuery
	Remaining    int
	ExpiresAt    time.Time
}

type PlacesRequest struct {
	StartQuery string
	EndQuery   string
	Strategy   string
}

type RoutingService struct {
	log           *zap.Logger
	resolver      LocationResolver
	sessions      SelectionSessions
	directions    DirectionsClient
	postProcessor PostProcessor
	renderer      MapRenderer
	store         ArtifactStore
	weather       WeatherAdvisor
	retryBudget   int
}

// NewRoutingService. weather may be nil, then responses carry no advisory.
func NewRoutingService(log *zap.Logger, resolver LocationResolver, sessions SelectionSessions,
	directions DirectionsClient, postProcessor PostProcessor, renderer MapRenderer, store ArtifactStore,
	weather WeatherAdvisor, retryBudget int) *RoutingService {
	return &RoutingService{
		log:           log,
		resolver:      resolver,
		sessions:      sessions,
		directions:    directions,
		postProcessor: postProcessor,
		renderer:      renderer,
		store:         store,
		weather:       weather,
		retryBudget:   retryBudget,
	}
}

func (rs *RoutingService) stage(ctx context.Context, stage da.Stage) {
	rs.log.Debug("route pipeline", zap.String("request_id", util.RequestID(ctx)), zap.String("stage", string(stage)))
}

func (rs *RoutingService) fail(ctx context.Context, stage da.Stage, err error) error {
	rs.log.Debug("route pipeline failed", zap.String("request_id", util.RequestID(ctx)),
		zap.String("stage", string(stage)), zap.Error(err))
	return failedAt(stage, err)
}

// checkCancelled is called between stages, a cancelled request stops before the next one starts.
func (rs *RoutingService) checkCancelled(ctx context.Context, next da.Stage) error {
	if err := ctx.Err(); err != nil {
		return rs.fail(ctx, next, util.WrapErrorf(err, util.ErrServiceUnavailable, "request cancelled before %s", next))
	}
	return nil
}

// PlanRoute runs routing, post-processing, rendering and storing for already resolved coordinates.
// req is validated before any collaborator is called.
func (rs *RoutingService) PlanRoute(ctx context.Context, req da.RouteRequest) (*RoutePlan, error) {
	rs.stage(ctx, da.STAGE_RECEIVED)
	if err := req.Validate(); err != nil {
		return nil, rs.fail(ctx, da.STAGE_RECEIVED, err)
	}

	var weatherCh chan da.WeatherAdvisory
	if rs.weather != nil {
		weatherCh = make(chan da.WeatherAdvisory, 1)
		go func() {
			weatherCh <- rs.weather.Annotate(ctx, req.Origin, req.Destination)
		}()
	}

	rs.stage(ctx, da.STAGE_ROUTING)
	waypoints, err := rs.directions.GetRoute(ctx, req.Origin, req.Destination)
	if err != nil {
		return nil, rs.fail(ctx, da.STAGE_ROUTING, err)
	}
	if len(waypoints) < 2 {
		return nil, rs.fail(ctx, da.STAGE_ROUTING,
			util.WrapErrorf(da.ErrRouteUnavailable, util.ErrBadGateway, "directions provider returned %d waypoints", len(waypoints)))
	}

	if err := rs.checkCancelled(ctx, da.STAGE_POST_PROCESSING); err != nil {
		return nil, err
	}
	rs.stage(ctx, da.STAGE_POST_PROCESSING)
	waypoints, err = rs.postProcessor.Apply(req.Strategy, waypoints)
	if err != nil {
		return nil, rs.fail(ctx, da.STAGE_POST_PROCESSING, err)
	}

	if err := rs.checkCancelled(ctx, da.STAGE_RENDERING); err != nil {
		return nil, err
	}
	rs.stage(ctx, da.STAGE_RENDERING)
	artifact, err := rs.renderer.Render(req, waypoints)
	if err != nil {
		return nil, rs.fail(ctx, da.STAGE_RENDERING, err)
	}

	if err := rs.checkCancelled(ctx, da.STAGE_STORING); err != nil {
		return nil, err
	}
	rs.stage(ctx, da.STAGE_STORING)
	if err := rs.store.Save(ctx, artifact); err != nil {
		return nil, rs.fail(ctx, da.STAGE_STORING, err)
	}

	plan := &RoutePlan{
		Request:    req,
		ArtifactID: artifact.ID,
		Waypoints:  waypoints,
		Polyline:   geo.PolylineFromCoords(waypoints),
	}
	if weatherCh != nil {
		advisory := <-weatherCh
		plan.Weather = &advisory
	}

	rs.stage(ctx, da.STAGE_SERVED)
	rs.log.Info("route planned", zap.String("request_id", util.RequestID(ctx)),
		zap.String("artifact_id", plan.ArtifactID), zap.String("strategy", string(req.Strategy)),
		zap.Int("waypoints", len(waypoints)))
	return plan, nil
}

// PlanRouteByPlaces resolves both place names first. when either is ambiguous no route is computed
// and an Ambiguity carrying a session token is returned instead.
func (rs *RoutingService) PlanRouteByPlaces(ctx context.Context, req PlacesRequest) (*RoutePlan, *Ambiguity, error) {
	rs.stage(ctx, da.STAGE_RECEIVED)
	strategy, err := da.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, nil, rs.fail(ctx, da.STAGE_RECEIVED, err)
	}
	if strings.TrimSpace(req.StartQuery) == "" || strings.TrimSpace(req.EndQuery) == "" {
		return nil, nil, rs.fail(ctx, da.STAGE_RECEIVED,
			util.WrapErrorf(da.ErrInvalidInput, util.ErrBadParamInput, "start_city and end_city are required"))
	}

	rs.stage(ctx, da.STAGE_RESOLVING)
	var startCandidates, endCandidates []da.CandidateLocation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		startCandidates, err = rs.resolver.ResolveMany(gctx, req.StartQuery)
		return err
	})
	g.Go(func() (err error) {
		endCandidates, err = rs.resolver.ResolveMany(gctx, req.EndQuery)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, rs.fail(ctx, da.STAGE_RESOLVING, err)
	}

	start := da.NewPlaceQuery(strings.TrimSpace(req.StartQuery), startCandidates)
	end := da.NewPlaceQuery(strings.TrimSpace(req.EndQuery), endCandidates)

	if len(startCandidates) > 1 || len(endCandidates) > 1 {
		sess := rs.sessions.Begin(start, end, strategy)
		rs.log.Debug("location needs a selection", zap.String("request_id", util.RequestID(ctx)),
			zap.Int("start_candidates", len(startCandidates)), zap.Int("end_candidates", len(endCandidates)))
		return nil, &Ambiguity{
			SessionToken: sess.Token,
			Start:        sess.Start,
			End:          sess.End,
			Remaining:    rs.retryBudget,
			ExpiresAt:    sess.ExpiresAt,
		}, nil
	}

	start.Selected, end.Selected = 0, 0
	plan, err := rs.planResolved(ctx, start, end, strategy)
	return plan, nil, err
}

// Choose answers a pending Ambiguity. an invalid selection within the retry budget returns the
// same candidates again together with the error. an empty strategy keeps the one of the first call.
func (rs *RoutingService) Choose(ctx context.Context, token, startChoice, endChoice, strategy string) (*RoutePlan, *Ambiguity, error) {
	rs.stage(ctx, da.STAGE_RECEIVED)

	var override da.Strategy
	if strings.TrimSpace(strategy) != "" {
		parsed, err := da.ParseStrategy(strategy)
		if err != nil {
			return nil, nil, rs.fail(ctx, da.STAGE_RECEIVED, err)
		}
		override = parsed
	}

	rs.stage(ctx, da.STAGE_RESOLVING)
	sess, err := rs.sessions.Choose(token, startChoice, endChoice)
	if err != nil {
		var selErr *resolver.SelectionError
		if errors.As(err, &selErr) {
			return nil, &Ambiguity{
				SessionToken: selErr.Session.Token,
				Start:        selErr.Session.Start,
				End:          selErr.Session.End,
				Remaining:    selErr.Remaining,
				ExpiresAt:    selErr.Session.ExpiresAt,
			}, rs.fail(ctx, da.STAGE_RESOLVING, err)
		}
		return nil, nil, rs.fail(ctx, da.STAGE_RESOLVING, err)
	}

	if override == "" {
		override = sess.Strategy
	}
	plan, err := rs.planResolved(ctx, sess.Start, sess.End, override)
	return plan, nil, err
}

func (rs *RoutingService) planResolved(ctx context.Context, start, end *da.PlaceQuery, strategy da.Strategy) (*RoutePlan, error) {
	origin, ok := start.Resolved()
	if !ok {
		return nil, rs.fail(ctx, da.STAGE_RESOLVING,
			util.WrapErrorf(da.ErrInvalidSelection, util.ErrBadParamInput, "start location %q is not resolved", start.Query))
	}
	destination, ok := end.Resolved()
	if !ok {
		return nil, rs.fail(ctx, da.STAGE_RESOLVING,
			util.WrapErrorf(da.ErrInvalidSelection, util.ErrBadParamInput, "end location %q is not resolved", end.Query))
	}

	if err := rs.checkCancelled(ctx, da.STAGE_ROUTING); err != nil {
		return nil, err
	}

	req := da.NewRouteRequest(origin.Coordinate, destination.Coordinate, strategy)
	req.OriginLabel = origin.Label
	req.DestinationLabel = destination.Label
	return rs.PlanRoute(ctx, req)
}

func (rs *RoutingService) GetArtifact(ctx context.Context, id string) (da.RouteArtifact, error) {
	return rs.store.Get(ctx, id)
}

// GetRouteData returns the route embedded in a stored map.
func (rs *RoutingService) GetRouteData(ctx context.Context, id string) (*geojson.FeatureCollection, error) {
	artifact, err := rs.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return render.ExtractRouteData(artifact.Document)
}

package engine

import (
	"sync"
	"time"

	"github.com/lintang-b-s/minimap/pkg"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/engine/routing"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// TrafficModel gives the multiplier of path graph edge (i, i+1). it must be >= 1.
type TrafficModel interface {
	Factor(i int) float64
}

type NoTraffic struct{}

func (NoTraffic) Factor(int) float64 {
	return 1.0
}

// UniformTraffic draws factors uniformly from [TRAFFIC_FACTOR_MIN, TRAFFIC_FACTOR_MAX).
// placeholder until real traffic data exists: on a path graph it can not change the result.
type UniformTraffic struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewUniformTraffic(seed uint64) *UniformTraffic {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &UniformTraffic{rnd: rand.New(rand.NewSource(seed))}
}

func (ut *UniformTraffic) Factor(int) float64 {
	ut.mu.Lock()
	defer ut.mu.Unlock()
	return pkg.TRAFFIC_FACTOR_MIN + ut.rnd.Float64()*(pkg.TRAFFIC_FACTOR_MAX-pkg.TRAFFIC_FACTOR_MIN)
}

// PostProcessor applies a named strategy to the waypoint sequence returned by the directions provider.
//
// astar searches the chain graph built over consecutive waypoints. the chain admits exactly one path between
// its endpoints, so astar returns its input unchanged; it is not a search over alternative road segments.
// qaoa and traffic-aware are pass-throughs reserved for future strategies.
type PostProcessor struct {
	log     *zap.Logger
	traffic TrafficModel
}

func NewPostProcessor(log *zap.Logger, traffic TrafficModel) *PostProcessor {
	if traffic == nil {
		traffic = NoTraffic{}
	}
	return &PostProcessor{log: log, traffic: traffic}
}

func (pp *PostProcessor) Apply(strategy da.Strategy, waypoints []geo.Coordinate) ([]geo.Coordinate, error) {
	switch strategy {
	case da.STRATEGY_ASTAR:
		return pp.astar(waypoints)
	case da.STRATEGY_QAOA, da.STRATEGY_TRAFFIC_AWARE:
		return waypoints, nil
	default:
		return nil, util.WrapErrorf(da.ErrInvalidStrategy, util.ErrBadParamInput,
			"unknown strategy %q, expected one of astar, qaoa, traffic-aware", strategy)
	}
}

func (pp *PostProcessor) astar(waypoints []geo.Coordinate) ([]geo.Coordinate, error) {
	if len(waypoints) <= 1 {
		return waypoints, nil
	}

	graph := da.NewPathGraph(waypoints, func(i int) float64 {
		return geo.CalculateEuclideanDistance(waypoints[i], waypoints[i+1]) * pp.traffic.Factor(i)
	})

	search := routing.NewAstar(graph)
	path, weight, found, err := search.ShortestPath(0, da.Index(len(waypoints)-1))
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "astar search: %v", err)
	}
	if !found {
		return nil, util.WrapErrorf(da.ErrPathNotFound, util.ErrInternalServerError,
			"no path between first and last waypoint of a %d point route", len(waypoints))
	}

	out := make([]geo.Coordinate, len(path))
	for i, v := range path {
		out[i] = graph.GetVertexCoordinate(v)
	}

	pp.log.Debug("astar post-processing done",
		zap.Int("waypoints", len(waypoints)),
		zap.Int("settled", search.GetNumSettledNodes()),
		zap.Float64("weight", weight))
	return out, nil
}

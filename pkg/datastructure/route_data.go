package datastructure

import (
	"strings"
	"time"

	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/util"
)

type Strategy string

const (
	STRATEGY_ASTAR         Strategy = "astar"
	STRATEGY_QAOA          Strategy = "qaoa"
	STRATEGY_TRAFFIC_AWARE Strategy = "traffic-aware"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case STRATEGY_ASTAR:
		return STRATEGY_ASTAR, nil
	case STRATEGY_QAOA:
		return STRATEGY_QAOA, nil
	case STRATEGY_TRAFFIC_AWARE:
		return STRATEGY_TRAFFIC_AWARE, nil
	default:
		return "", util.WrapErrorf(ErrInvalidStrategy, util.ErrBadParamInput,
			"unknown strategy %q, expected one of astar, qaoa, traffic-aware", s)
	}
}

// Stage of one pipeline run.
type Stage string

const (
	STAGE_RECEIVED        Stage = "received"
	STAGE_RESOLVING       Stage = "resolving"
	STAGE_ROUTING         Stage = "routing"
	STAGE_POST_PROCESSING Stage = "post-processing"
	STAGE_RENDERING       Stage = "rendering"
	STAGE_STORING         Stage = "storing"
	STAGE_SERVED          Stage = "served"
)

type RouteRequest struct {
	Origin           geo.Coordinate
	Destination      geo.Coordinate
	Strategy         Strategy
	OriginLabel      string
	DestinationLabel string
}

func NewRouteRequest(origin, destination geo.Coordinate, strategy Strategy) RouteRequest {
	return RouteRequest{
		Origin:           origin,
		Destination:      destination,
		Strategy:         strategy,
		OriginLabel:      "Start",
		DestinationLabel: "Destination",
	}
}

func (r RouteRequest) Validate() error {
	if err := r.Origin.Validate(); err != nil {
		return util.WrapErrorf(ErrInvalidInput, util.ErrBadParamInput, "origin: %v", err)
	}
	if err := r.Destination.Validate(); err != nil {
		return util.WrapErrorf(ErrInvalidInput, util.ErrBadParamInput, "destination: %v", err)
	}
	if _, err := ParseStrategy(string(r.Strategy)); err != nil {
		return err
	}
	return nil
}

type CandidateLocation struct {
	Label      string         `json:"label"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

func NewCandidateLocation(label string, lat, lon float64) CandidateLocation {
	return CandidateLocation{Label: label, Coordinate: geo.NewCoordinate(lat, lon)}
}

// PlaceQuery is one free-text resolution: the geocoder candidates and the chosen index (-1 until resolved).
type PlaceQuery struct {
	Query      string
	Candidates []CandidateLocation
	Selected   int
}

func NewPlaceQuery(query string, candidates []CandidateLocation) *PlaceQuery {
	return &PlaceQuery{Query: query, Candidates: candidates, Selected: -1}
}

func (pq *PlaceQuery) IsResolved() bool {
	return pq.Selected >= 0 && pq.Selected < len(pq.Candidates)
}

func (pq *PlaceQuery) Resolved() (CandidateLocation, bool) {
	if !pq.IsResolved() {
		return CandidateLocation{}, false
	}
	return pq.Candidates[pq.Selected], true
}

type RouteArtifact struct {
	ID          string    `json:"id"`
	Document    []byte    `json:"document"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type WeatherCondition string

const (
	WEATHER_CLEAR        WeatherCondition = "Clear"
	WEATHER_CLOUDS       WeatherCondition = "Clouds"
	WEATHER_DRIZZLE      WeatherCondition = "Drizzle"
	WEATHER_RAIN         WeatherCondition = "Rain"
	WEATHER_THUNDERSTORM WeatherCondition = "Thunderstorm"
	WEATHER_SNOW         WeatherCondition = "Snow"
	WEATHER_MIST         WeatherCondition = "Mist"
	WEATHER_FOG          WeatherCondition = "Fog"
	WEATHER_EXTREME      WeatherCondition = "Extreme"
	WEATHER_UNKNOWN      WeatherCondition = "Unknown"
)

// WeatherAdvisory annotates a route. it never changes which route is returned.
type WeatherAdvisory struct {
	Origin      WeatherCondition `json:"origin"`
	Destination WeatherCondition `json:"destination"`
	Adverse     bool             `json:"adverse"`
}

package controllers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/http/usecases"
	"github.com/lintang-b-s/minimap/pkg/util"
)

// flexFloat accepts 40.7128 as well as "40.7128".
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	v, err := util.StringToFloat64(s)
	if err != nil {
		return fmt.Errorf("%s is not a number", b)
	}
	*f = flexFloat(v)
	return nil
}

// flexString accepts 2 as well as "2".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%s is neither a string nor a number", b)
	}
	*f = flexString(n.String())
	return nil
}

type routeRequest struct {
	StartLat *flexFloat `json:"start_lat" validate:"required,min=-90,max=90"`
	StartLon *flexFloat `json:"start_lon" validate:"required,min=-180,max=180"`
	EndLat   *flexFloat `json:"end_lat" validate:"required,min=-90,max=90"`
	EndLon   *flexFloat `json:"end_lon" validate:"required,min=-180,max=180"`
	Model    string     `json:"model"`
}

func (r routeRequest) toRouteRequest() (da.RouteRequest, error) {
	strategy, err := da.ParseStrategy(modelOrDefault(r.Model))
	if err != nil {
		return da.RouteRequest{}, err
	}
	origin := geo.NewCoordinate(float64(*r.StartLat), float64(*r.StartLon))
	destination := geo.NewCoordinate(float64(*r.EndLat), float64(*r.EndLon))
	return da.NewRouteRequest(origin, destination, strategy), nil
}

func modelOrDefault(model string) string {
	if strings.TrimSpace(model) == "" {
		return string(da.STRATEGY_ASTAR)
	}
	return model
}

// placesRequest is the first call (start_city, end_city) or the follow-up carrying session_token.
type placesRequest struct {
	StartCity    string     `json:"start_city" validate:"required_without=SessionToken"`
	EndCity      string     `json:"end_city" validate:"required_without=SessionToken"`
	Model        string     `json:"model"`
	SessionToken string     `json:"session_token" validate:"omitempty,uuid"`
	StartChoice  flexString `json:"start_choice"`
	EndChoice    flexString `json:"end_choice"`
}

func (p placesRequest) toPlacesRequest() usecases.PlacesRequest {
	return usecases.PlacesRequest{
		StartQuery: p.StartCity,
		EndQuery:   p.EndCity,
		Strategy:   modelOrDefault(p.Model),
	}
}

type routeResponse struct {
	Message     string              `json:"message"`
	MapURL      string              `json:"map_url"`
	ArtifactID  string              `json:"artifact_id"`
	DownloadURL string              `json:"download_url"`
	GeoJSONURL  string              `json:"geojson_url"`
	Strategy    string              `json:"strategy"`
	Origin      string              `json:"origin"`
	Destination string              `json:"destination"`
	DistanceKM  float64             `json:"distance_km"`
	Waypoints   [][2]float64        `json:"waypoints"`
	Polyline    string              `json:"polyline"`
	Weather     *da.WeatherAdvisory `json:"weather,omitempty"`
}

func NewRouteResponse(plan *usecases.RoutePlan, baseURL string) routeResponse {
	waypoints := make([][2]float64, 0, len(plan.Waypoints))
	for _, w := range plan.Waypoints {
		waypoints = append(waypoints, [2]float64{w.GetLat(), w.GetLon()})
	}

	message := "Route generated successfully"
	if plan.Weather != nil && plan.Weather.Adverse {
		message += ", bad weather reported along the route"
	}

	return routeResponse{
		Message:     message,
		MapURL:      baseURL + "/api/map/" + plan.ArtifactID,
		ArtifactID:  plan.ArtifactID,
		DownloadURL: baseURL + "/api/download_map/" + plan.ArtifactID,
		GeoJSONURL:  baseURL + "/api/map/" + plan.ArtifactID + "/geojson",
		Strategy:    string(plan.Request.Strategy),
		Origin:      plan.Request.OriginLabel,
		Destination: plan.Request.DestinationLabel,
		DistanceKM:  util.RoundFloat(geo.RouteLengthKM(plan.Waypoints), 3),
		Waypoints:   waypoints,
		Polyline:    plan.Polyline,
		Weather:     plan.Weather,
	}
}

type candidateResponse struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

type placeQueryResponse struct {
	Query      string              `json:"query"`
	Resolved   bool                `json:"resolved"`
	Selected   int                 `json:"selected,omitempty"`
	Candidates []candidateResponse `json:"candidates"`
}

func newPlaceQueryResponse(pq *da.PlaceQuery) placeQueryResponse {
	resp := placeQueryResponse{
		Query:      pq.Query,
		Resolved:   pq.IsResolved(),
		Candidates: make([]candidateResponse, 0, len(pq.Candidates)),
	}
	if resp.Resolved {
		resp.Selected = pq.Selected + 1
	}
	for i, c := range pq.Candidates {
		resp.Candidates = append(resp.Candidates, candidateResponse{
			Index: i + 1,
			Label: c.Label,
			Lat:   c.Coordinate.GetLat(),
			Lon:   c.Coordinate.GetLon(),
		})
	}
	return resp
}

type ambiguityResponse struct {
	Status            string             `json:"status"`
	Message           string             `json:"message"`
	SessionToken      string             `json:"session_token"`
	RemainingAttempts int                `json:"remaining_attempts"`
	ExpiresAt         time.Time          `json:"expires_at"`
	Start             placeQueryResponse `json:"start"`
	End               placeQueryResponse `json:"end"`
	Error             *envelope          `json:"error,omitempty"`
}

func NewAmbiguityResponse(a *usecases.Ambiguity, err error) ambiguityResponse {
	resp := ambiguityResponse{
		Status:            "ambiguous",
		Message:           "Multiple locations found, select one by number and send it back with session_token",
		SessionToken:      a.SessionToken,
		RemainingAttempts: a.Remaining,
		ExpiresAt:         a.ExpiresAt,
		Start:             newPlaceQueryResponse(a.Start),
		End:               newPlaceQueryResponse(a.End),
	}
	if err != nil {
		body := errorBody(err, err.Error())["error"].(envelope)
		resp.Error = &body
	}
	return resp
}

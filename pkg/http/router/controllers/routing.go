package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	helper "github.com/lintang-b-s/minimap/pkg/http/router/routerhelper"
	"github.com/lintang-b-s/minimap/pkg/http/usecases"
	"github.com/lintang-b-s/minimap/pkg/render"
	"github.com/lintang-b-s/minimap/pkg/util"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type routingAPI struct {
	routingService RoutingService
	log            *zap.Logger
	baseURL        string
}

// New. baseURL prefixes the map urls in responses, empty means relative urls.
func New(routingService RoutingService, log *zap.Logger, baseURL string) *routingAPI {
	return &routingAPI{
		routingService: routingService,
		log:            log,
		baseURL:        strings.TrimRight(baseURL, "/"),
	}
}

func (api *routingAPI) Routes(group *helper.RouteGroup) {
	group.POST("/route", api.route)
	group.POST("/get_route", api.getRoute)
	group.GET("/map/:id", api.showMap)
	group.GET("/map/:id/geojson", api.routeGeoJSON)
	group.GET("/download_map/:id", api.downloadMap)
}

// route
//
//	@Summary		plan a route between two coordinates
//	@Description	fetch the driving path from the directions provider, post-process it with model and render it on a map.
//	@Tags			routing
//	@Accept			json
//	@Produce		json
//	@Param			body	body		routeRequest	true	"start/end coordinates, numbers or numeric strings, and model (astar, qaoa, traffic-aware)"
//	@Success		200		{object}	routeResponse
//	@Failure		400		{object}	envelope	"InvalidInputError or InvalidStrategyError"
//	@Failure		502		{object}	envelope	"RouteUnavailableError"
//	@Failure		503		{object}	envelope	"ProviderError"
//	@Router			/route [post]
func (api *routingAPI) route(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request routeRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateStruct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	routeReq, err := request.toRouteRequest()
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	plan, err := api.routingService.PlanRoute(r.Context(), routeReq)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, NewRouteResponse(plan, api.baseURL), nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// getRoute
//
//	@Summary		plan a route between two place names
//	@Description	resolve start_city and end_city with the geocoder. "lat,lon" is accepted as a place name (browser gps).
//	@Description	when a name matches several places the response is 300 with the candidates and a session_token,
//	@Description	send {session_token, start_choice, end_choice} to continue.
//	@Tags			routing
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			body	body		placesRequest	true	"place names or a selection"
//	@Success		200		{object}	routeResponse
//	@Success		300		{object}	ambiguityResponse
//	@Failure		400		{object}	envelope	"InvalidInputError, NoMatchError or InvalidSelectionError"
//	@Failure		422		{object}	ambiguityResponse	"invalid selection, try again"
//	@Failure		504		{object}	envelope	"ResolutionTimeoutError"
//	@Router			/get_route [post]
func (api *routingAPI) getRoute(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request placesRequest
	if isForm(r) {
		if err := api.readForm(w, r, &request); err != nil {
			api.BadRequestResponse(w, r, err)
			return
		}
	} else if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateStruct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	if request.SessionToken != "" {
		plan, ambiguity, err := api.routingService.Choose(r.Context(), request.SessionToken,
			string(request.StartChoice), string(request.EndChoice), request.Model)
		api.writePlanOrAmbiguity(w, r, plan, ambiguity, err)
		return
	}

	plan, ambiguity, err := api.routingService.PlanRouteByPlaces(r.Context(), request.toPlacesRequest())
	api.writePlanOrAmbiguity(w, r, plan, ambiguity, err)
}

func (api *routingAPI) writePlanOrAmbiguity(w http.ResponseWriter, r *http.Request, plan *usecases.RoutePlan,
	ambiguity *usecases.Ambiguity, err error) {
	switch {
	case ambiguity != nil && err != nil:
		// invalid selection within budget, the client is asked again with the same candidates
		if writeErr := api.writeJSON(w, statusOf(err), NewAmbiguityResponse(ambiguity, err), nil); writeErr != nil {
			api.ServerErrorResponse(w, r, writeErr)
		}
	case err != nil:
		api.getStatusCode(w, r, err)
	case ambiguity != nil:
		if writeErr := api.writeJSON(w, http.StatusMultipleChoices, NewAmbiguityResponse(ambiguity, nil), nil); writeErr != nil {
			api.ServerErrorResponse(w, r, writeErr)
		}
	default:
		if writeErr := api.writeJSON(w, http.StatusOK, NewRouteResponse(plan, api.baseURL), nil); writeErr != nil {
			api.ServerErrorResponse(w, r, writeErr)
		}
	}
}

// showMap
//
//	@Summary	rendered route map
//	@Tags		maps
//	@Produce	html
//	@Param		id	path	string	true	"artifact id from map_url"
//	@Success	200
//	@Failure	404	{object}	envelope
//	@Router		/map/{id} [get]
func (api *routingAPI) showMap(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	api.serveArtifact(w, r, p.ByName("id"), false)
}

// downloadMap
//
//	@Summary	rendered route map as a file download
//	@Tags		maps
//	@Produce	html
//	@Param		id	path	string	true	"artifact id from map_url"
//	@Success	200
//	@Failure	404	{object}	envelope
//	@Router		/download_map/{id} [get]
func (api *routingAPI) downloadMap(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	api.serveArtifact(w, r, p.ByName("id"), true)
}

func (api *routingAPI) serveArtifact(w http.ResponseWriter, r *http.Request, id string, attachment bool) {
	artifact, err := api.routingService.GetArtifact(r.Context(), id)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if attachment {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment",
			map[string]string{"filename": "route_map_" + artifact.ID + ".html"}))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Document); err != nil {
		api.log.Warn("write map", zap.Error(err), zap.String("artifact_id", artifact.ID))
	}
}

// routeGeoJSON
//
//	@Summary	route of a rendered map as geojson
//	@Tags		maps
//	@Produce	json
//	@Param		id	path	string	true	"artifact id from map_url"
//	@Success	200
//	@Failure	404	{object}	envelope
//	@Router		/map/{id}/geojson [get]
func (api *routingAPI) routeGeoJSON(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	fc, err := api.routingService.GetRouteData(r.Context(), p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", render.CONTENT_TYPE_GEOJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func isForm(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/x-www-form-urlencoded"
}

func (api *routingAPI) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return util.WrapErrorf(da.ErrInvalidInput, util.ErrBadParamInput, "body must not be empty")
		case errors.As(err, &maxBytesErr):
			return util.WrapErrorf(da.ErrInvalidInput, util.ErrBadParamInput, "body must not be larger than %d bytes", maxBodyBytes)
		default:
			return util.WrapErrorf(da.ErrInvalidInput, util.ErrBadParamInput, "malformed json body: %v", err)
		}
	}
	return nil
}

func (api *routingAPI) readForm(w http.ResponseWriter, r *http.Request, dst *placesRequest) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return util.WrapErrorf(da.ErrInvalidInput, util.ErrBadParamInput, "malformed form body: %v", err)
	}
	dst.StartCity = r.PostForm.Get("start_city")
	dst.EndCity = r.PostForm.Get("end_city")
	dst.Model = r.PostForm.Get("model")
	dst.SessionToken = r.PostForm.Get("session_token")
	dst.StartChoice = flexString(r.PostForm.Get("start_choice"))
	dst.EndChoice = flexString(r.PostForm.Get("end_choice"))
	return nil
}

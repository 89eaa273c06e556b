package render

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"html/template"
	"time"

	"github.com/google/uuid"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/util"
	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

const (
	CONTENT_TYPE_HTML    = "text/html; charset=utf-8"
	CONTENT_TYPE_GEOJSON = "application/geo+json"

	ROUTE_COLOR       = "blue"
	ROUTE_WEIGHT      = 3
	ORIGIN_COLOR      = "green"
	DESTINATION_COLOR = "red"

	ROLE_ROUTE       = "route"
	ROLE_ORIGIN      = "origin"
	ROLE_DESTINATION = "destination"

	geohashPrecision = 6
)

//go:embed templates/route_map.html
var routeMapHTML string

var routeMapTmpl = template.Must(template.New("route_map").Parse(routeMapHTML))

type Renderer struct {
	log  *zap.Logger
	zoom int
	now  func() time.Time
}

func NewRenderer(log *zap.Logger, zoom int) *Renderer {
	return &Renderer{log: log, zoom: zoom, now: time.Now}
}

type pageData struct {
	Title     string
	Zoom      int
	RouteData template.HTML
}

// Render draws the route on a leaflet map centred on req.Origin. the markers and the artifact id use
// the requested coordinates, not the route endpoints snapped by the provider. the route itself travels
// inside the document as a geojson feature collection, see ExtractRouteData.
func (r *Renderer) Render(req da.RouteRequest, waypoints []geo.Coordinate) (da.RouteArtifact, error) {
	if len(waypoints) < 2 {
		return da.RouteArtifact{}, util.WrapErrorf(da.ErrEmptyRoute, util.ErrInternalServerError,
			"cannot render a route of %d points", len(waypoints))
	}

	fc := RouteFeatureCollection(waypoints, req.Origin, req.Destination, req.OriginLabel, req.DestinationLabel)
	// json.Marshal escapes <, > and & so the payload cannot close the script element
	data, err := json.Marshal(fc)
	if err != nil {
		return da.RouteArtifact{}, util.WrapErrorf(err, util.ErrInternalServerError, "encode route data: %v", err)
	}

	var buf bytes.Buffer
	err = routeMapTmpl.Execute(&buf, pageData{
		Title:     req.OriginLabel + " to " + req.DestinationLabel,
		Zoom:      r.zoom,
		RouteData: template.HTML(data),
	})
	if err != nil {
		return da.RouteArtifact{}, util.WrapErrorf(err, util.ErrInternalServerError, "render route map: %v", err)
	}

	artifact := da.RouteArtifact{
		ID:          NewArtifactID(req.Origin, req.Destination),
		Document:    buf.Bytes(),
		ContentType: CONTENT_TYPE_HTML,
		CreatedAt:   r.now().UTC(),
	}

	r.log.Debug("rendered route map", zap.String("artifact_id", artifact.ID),
		zap.Int("waypoints", len(waypoints)), zap.Int("bytes", len(artifact.Document)))
	return artifact, nil
}

// RouteFeatureCollection: the route line string, then the origin and destination points.
// the bbox covers both the route and the markers.
func RouteFeatureCollection(waypoints []geo.Coordinate, origin, destination geo.Coordinate,
	originLabel, destinationLabel string) *geojson.FeatureCollection {
	ls := make(orb.LineString, 0, len(waypoints))
	for _, w := range waypoints {
		ls = append(ls, orb.Point{w.GetLon(), w.GetLat()})
	}

	route := geojson.NewFeature(ls)
	route.Properties["role"] = ROLE_ROUTE
	route.Properties["stroke"] = ROUTE_COLOR
	route.Properties["stroke-width"] = ROUTE_WEIGHT
	route.Properties["polyline"] = geo.PolylineFromCoords(waypoints)
	route.Properties["distance_km"] = util.RoundFloat(geo.RouteLengthKM(waypoints), 3)

	fc := geojson.NewFeatureCollection()
	fc.Append(route)
	fc.Append(markerFeature(origin, ROLE_ORIGIN, originLabel, ORIGIN_COLOR))
	fc.Append(markerFeature(destination, ROLE_DESTINATION, destinationLabel, DESTINATION_COLOR))

	bounded := make([]geo.Coordinate, 0, len(waypoints)+2)
	bounded = append(bounded, origin, destination)
	bounded = append(bounded, waypoints...)
	sw, ne := geo.Bounds(bounded)
	fc.BBox = geojson.BBox{sw.GetLon(), sw.GetLat(), ne.GetLon(), ne.GetLat()}
	return fc
}

func markerFeature(c geo.Coordinate, role, label, color string) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{c.GetLon(), c.GetLat()})
	f.Properties["role"] = role
	f.Properties["label"] = label
	f.Properties["marker-color"] = color
	return f
}

// NewArtifactID: <geohash of origin>-<geohash of destination>-<uuid>. unique per render.
func NewArtifactID(origin, destination geo.Coordinate) string {
	return geohash.EncodeWithPrecision(origin.GetLat(), origin.GetLon(), geohashPrecision) + "-" +
		geohash.EncodeWithPrecision(destination.GetLat(), destination.GetLon(), geohashPrecision) + "-" +
		uuid.NewString()
}

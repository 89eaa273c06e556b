package render

import (
	"bytes"
	"errors"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	routeDataOpen  = []byte(`<script type="application/geo+json" id="route-data">`)
	routeDataClose = []byte(`</script>`)

	ErrNoRouteData = errors.New("document has no embedded route data")
)

// ExtractRouteData parses the feature collection embedded by Render.
func ExtractRouteData(document []byte) (*geojson.FeatureCollection, error) {
	start := bytes.Index(document, routeDataOpen)
	if start < 0 {
		return nil, util.WrapErrorf(ErrNoRouteData, util.ErrInternalServerError, "%v", ErrNoRouteData)
	}
	rest := document[start+len(routeDataOpen):]
	end := bytes.Index(rest, routeDataClose)
	if end < 0 {
		return nil, util.WrapErrorf(ErrNoRouteData, util.ErrInternalServerError, "route data is not terminated")
	}

	fc, err := geojson.UnmarshalFeatureCollection(rest[:end])
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "malformed route data: %v", err)
	}
	return fc, nil
}

// RouteWaypoints returns the route line string of fc as lat, lon coordinates.
func RouteWaypoints(fc *geojson.FeatureCollection) ([]geo.Coordinate, error) {
	for _, f := range fc.Features {
		ls, ok := f.Geometry.(orb.LineString)
		if !ok {
			continue
		}
		coords := make([]geo.Coordinate, 0, len(ls))
		for _, p := range ls {
			coords = append(coords, geo.NewCoordinate(p.Lat(), p.Lon()))
		}
		return coords, nil
	}
	return nil, util.WrapErrorf(da.ErrEmptyRoute, util.ErrInternalServerError, "route data has no line string")
}

// Marker returns the label and position of the origin or destination point feature.
func Marker(fc *geojson.FeatureCollection, role string) (string, geo.Coordinate, bool) {
	for _, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok || f.Properties.MustString("role", "") != role {
			continue
		}
		return f.Properties.MustString("label", ""), geo.NewCoordinate(p.Lat(), p.Lon()), true
	}
	return "", geo.Coordinate{}, false
}

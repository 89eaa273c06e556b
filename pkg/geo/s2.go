package geo

import (
	"github.com/golang/geo/s2"
)

// Bounds returns the south-west and north-east corners of the smallest lat/lng rectangle containing coords.
func Bounds(coords []Coordinate) (Coordinate, Coordinate) {
	rect := s2.EmptyRect()
	for _, c := range coords {
		rect = rect.AddPoint(s2.LatLngFromDegrees(c.Lat, c.Lon))
	}
	if rect.IsEmpty() {
		return Coordinate{}, Coordinate{}
	}
	lo, hi := rect.Lo(), rect.Hi()
	return NewCoordinate(lo.Lat.Degrees(), lo.Lng.Degrees()), NewCoordinate(hi.Lat.Degrees(), hi.Lng.Degrees())
}

// AngularDistanceKM is the great circle distance between a and b computed on the s2 sphere.
func AngularDistanceKM(a, b Coordinate) float64 {
	d := s2.LatLngFromDegrees(a.Lat, a.Lon).Distance(s2.LatLngFromDegrees(b.Lat, b.Lon))
	return d.Radians() * earthRadiusKM
}

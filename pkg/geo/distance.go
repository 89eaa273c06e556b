package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/lintang-b-s/minimap/pkg/util"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) GetLat() float64 {
	return c.Lat
}

func (c Coordinate) GetLon() float64 {
	return c.Lon
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lon)
}

// Validate. latitude in [-90,90], longitude in [-180,180], no NaN/Inf.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v must be within [-90, 90]", c.Lat)
	}
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %v must be within [-180, 180]", c.Lon)
	}
	return nil
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

// ParseCoordinatePair parses "lat,lon" as filled in by the browser geolocation helper.
// ok is false when s does not look like a coordinate pair at all.
func ParseCoordinatePair(s string) (Coordinate, bool, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, false, nil
	}
	lat, err := util.StringToFloat64(parts[0])
	if err != nil {
		return Coordinate{}, false, nil
	}
	lon, err := util.StringToFloat64(parts[1])
	if err != nil {
		return Coordinate{}, false, nil
	}
	c := NewCoordinate(lat, lon)
	if err := c.Validate(); err != nil {
		return Coordinate{}, true, err
	}
	return c, true, nil
}

const (
	earthRadiusKM = 6371.0
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

// CalculateHaversineDistance. calculate haversine distance in km
func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = util.DegreeToRadians(latOne)
	longOne = util.DegreeToRadians(longOne)
	latTwo = util.DegreeToRadians(latTwo)
	longTwo = util.DegreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusKM * c
}

// CalculateEuclideanDistance. plain euclidean norm of the (lon, lat) difference in degrees
func CalculateEuclideanDistance(a, b Coordinate) float64 {
	dx := b.Lon - a.Lon
	dy := b.Lat - a.Lat
	return math.Sqrt(dx*dx + dy*dy)
}

// RouteLengthKM sums the haversine distance of consecutive points.
func RouteLengthKM(coords []Coordinate) float64 {
	total := 0.0
	for i := 0; i+1 < len(coords); i++ {
		total += CalculateHaversineDistance(coords[i].Lat, coords[i].Lon, coords[i+1].Lat, coords[i+1].Lon)
	}
	return total
}

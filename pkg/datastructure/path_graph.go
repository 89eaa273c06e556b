package datastructure

import (
	"github.com/lintang-b-s/minimap/pkg/geo"
)

type PathEdge struct {
	head   Index
	weight float64
}

func (e PathEdge) GetHead() Index {
	return e.head
}

func (e PathEdge) GetWeight() float64 {
	return e.weight
}

// PathGraph is the undirected chain built over a waypoint sequence: vertex i is adjacent to i-1 and i+1 only.
// between any two vertices there is exactly one simple path.
type PathGraph struct {
	coords []geo.Coordinate
	adj    [][]PathEdge
}

// NewPathGraph. weight(i) returns the weight of edge (i, i+1).
func NewPathGraph(coords []geo.Coordinate, weight func(i int) float64) *PathGraph {
	g := &PathGraph{
		coords: coords,
		adj:    make([][]PathEdge, len(coords)),
	}
	for i := 0; i+1 < len(coords); i++ {
		w := weight(i)
		u, v := Index(i), Index(i+1)
		g.adj[u] = append(g.adj[u], PathEdge{head: v, weight: w})
		g.adj[v] = append(g.adj[v], PathEdge{head: u, weight: w})
	}
	return g
}

func (g *PathGraph) NumberOfVertices() int {
	return len(g.coords)
}

func (g *PathGraph) NumberOfEdges() int {
	if len(g.coords) == 0 {
		return 0
	}
	return len(g.coords) - 1
}

func (g *PathGraph) GetVertexCoordinate(u Index) geo.Coordinate {
	return g.coords[u]
}

func (g *PathGraph) ForOutEdgesOf(u Index, handle func(e PathEdge)) {
	for _, e := range g.adj[u] {
		handle(e)
	}
}

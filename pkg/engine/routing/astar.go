package routing

import (
	"fmt"

	"github.com/lintang-b-s/minimap/pkg"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/geo"
)

type vertexInfo struct {
	dist   float64
	parent da.Index
	node   *da.PriorityQueueNode[da.Index]
	closed bool
}

// Astar is a unidirectional A* search over a PathGraph with the euclidean distance to the target as heuristic.
// edge weights are euclidean length times a factor >= 1, so the heuristic never overestimates.
type Astar struct {
	graph *da.PathGraph

	info map[da.Index]*vertexInfo
	pq   *da.MinHeap[da.Index]

	numSettledNodes int
}

func NewAstar(graph *da.PathGraph) *Astar {
	return &Astar{
		graph: graph,
		info:  make(map[da.Index]*vertexInfo),
		pq:    da.NewFourAryHeap[da.Index](),
	}
}

func (as *Astar) heuristic(u, t da.Index) float64 {
	return geo.CalculateEuclideanDistance(as.graph.GetVertexCoordinate(u), as.graph.GetVertexCoordinate(t))
}

// ShortestPath returns the vertex path from s to t, its total weight and whether t was reached.
// an error means the priority queue rejected an operation and the search was abandoned.
func (as *Astar) ShortestPath(s, t da.Index) ([]da.Index, float64, bool, error) {
	n := da.Index(as.graph.NumberOfVertices())
	if s >= n || t >= n {
		return nil, pkg.INF_WEIGHT, false, nil
	}

	sNode := da.NewPriorityQueueNode(as.heuristic(s, t), s)
	as.info[s] = &vertexInfo{dist: 0, parent: da.INVALID_VERTEX_ID, node: sNode}
	as.pq.Insert(sNode)

	for !as.pq.IsEmpty() {
		minNode, err := as.pq.ExtractMin()
		if err != nil {
			return nil, pkg.INF_WEIGHT, false, err
		}
		u := minNode.GetItem()
		uInfo := as.info[u]
		uInfo.closed = true
		as.numSettledNodes++

		if u == t {
			return as.retrievePath(s, t), uInfo.dist, true, nil
		}

		var relaxErr error
		as.graph.ForOutEdgesOf(u, func(e da.PathEdge) {
			v := e.GetHead()
			newDist := uInfo.dist + e.GetWeight()
			if relaxErr != nil || newDist >= pkg.INF_WEIGHT {
				return
			}

			vInfo, visited := as.info[v]
			if visited && (vInfo.closed || newDist >= vInfo.dist) {
				return
			}

			priority := newDist + as.heuristic(v, t)
			if visited {
				vInfo.dist = newDist
				vInfo.parent = u
				if err := as.pq.DecreaseKey(vInfo.node, priority); err != nil {
					relaxErr = fmt.Errorf("decrease key of vertex %d: %w", v, err)
				}
				return
			}

			node := da.NewPriorityQueueNode(priority, v)
			as.info[v] = &vertexInfo{dist: newDist, parent: u, node: node}
			as.pq.Insert(node)
		})
		if relaxErr != nil {
			return nil, pkg.INF_WEIGHT, false, relaxErr
		}
	}

	return nil, pkg.INF_WEIGHT, false, nil
}

func (as *Astar) retrievePath(s, t da.Index) []da.Index {
	path := make([]da.Index, 0)
	for cur := t; cur != da.INVALID_VERTEX_ID; cur = as.info[cur].parent {
		path = append(path, cur)
		if cur == s {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (as *Astar) GetNumSettledNodes() int {
	return as.numSettledNodes
}

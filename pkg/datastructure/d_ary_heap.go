package datastructure

import (
	"errors"
)

type Index uint32

const INVALID_VERTEX_ID Index = ^Index(0)

var (
	ErrHeapEmpty       = errors.New("heap is empty")
	ErrInvalidDecrease = errors.New("node is not in the heap or the new rank is bigger")
)

// PriorityQueueNode keeps its own slot in the heap so DecreaseKey needs no lookup.
type PriorityQueueNode[T comparable] struct {
	rank float64
	item T
	pos  int
}

func NewPriorityQueueNode[T comparable](rank float64, item T) *PriorityQueueNode[T] {
	return &PriorityQueueNode[T]{rank: rank, item: item, pos: -1}
}

func (p *PriorityQueueNode[T]) GetItem() T {
	return p.item
}

func (p *PriorityQueueNode[T]) GetRank() float64 {
	return p.rank
}

// MinHeap is a d-ary min heap of nodes ordered by rank.
type MinHeap[T comparable] struct {
	nodes []*PriorityQueueNode[T]
	d     int
}

func NewFourAryHeap[T comparable]() *MinHeap[T] {
	return NewdAryHeap[T](4)
}

func NewdAryHeap[T comparable](d int) *MinHeap[T] {
	if d < 2 {
		d = 2
	}
	return &MinHeap[T]{d: d}
}

func (h *MinHeap[T]) IsEmpty() bool {
	return len(h.nodes) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.nodes)
}

func (h *MinHeap[T]) swap(i, j int) {
	h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i]
	h.nodes[i].pos = i
	h.nodes[j].pos = j
}

func (h *MinHeap[T]) up(i int) {
	for i > 0 {
		parent := (i - 1) / h.d
		if h.nodes[parent].rank <= h.nodes[i].rank {
			return
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *MinHeap[T]) down(i int) {
	for {
		first := i*h.d + 1
		if first >= len(h.nodes) {
			return
		}
		smallest := first
		for c := first + 1; c < first+h.d && c < len(h.nodes); c++ {
			if h.nodes[c].rank < h.nodes[smallest].rank {
				smallest = c
			}
		}
		if h.nodes[smallest].rank >= h.nodes[i].rank {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}

func (h *MinHeap[T]) Insert(node *PriorityQueueNode[T]) {
	node.pos = len(h.nodes)
	h.nodes = append(h.nodes, node)
	h.up(node.pos)
}

// ExtractMin pops the node with the smallest rank. O(d log n)
func (h *MinHeap[T]) ExtractMin() (*PriorityQueueNode[T], error) {
	if h.IsEmpty() {
		return nil, ErrHeapEmpty
	}
	root := h.nodes[0]
	last := len(h.nodes) - 1
	h.swap(0, last)
	h.nodes = h.nodes[:last]
	root.pos = -1
	h.down(0)
	return root, nil
}

// DecreaseKey lowers the rank of node, which must still be in the heap.
func (h *MinHeap[T]) DecreaseKey(node *PriorityQueueNode[T], rank float64) error {
	if node.pos < 0 || node.pos >= len(h.nodes) || h.nodes[node.pos] != node || rank > node.rank {
		return ErrInvalidDecrease
	}
	node.rank = rank
	h.up(node.pos)
	return nil
}

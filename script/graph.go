package script

import (
	"container/heap"
	"sort"
	"strings"
)

// GenerationOrder computes a valid generation order for the script's
// sections using Kahn's algorithm over the memory graph: for every entry
// @A -> [@B], @B appears before @A. Ties break on declaration order, so the
// result is deterministic for identical input. A cycle yields a
// KindCyclicDependency ValidationError naming the involved tokens.
//
// Graph endpoints without a section contribute no node; a symbol may be
// referenced as a dependency without ever being rendered.
func (s *Script) GenerationOrder() ([]string, error) {
	index := make(map[string]int, len(s.Sections))
	for i, sec := range s.Sections {
		if _, dup := index[sec.Symbol]; !dup {
			index[sec.Symbol] = i
		}
	}

	// deps[i] lists section indices that must precede section i.
	deps := make([][]int, len(s.Sections))
	dependents := make([][]int, len(s.Sections))
	indeg := make([]int, len(s.Sections))
	for i, sec := range s.Sections {
		for _, to := range s.Dependencies(sec.Symbol) {
			j, ok := index[to]
			if !ok || j == i {
				continue
			}
			deps[i] = append(deps[i], j)
			dependents[j] = append(dependents[j], i)
			indeg[i]++
		}
	}

	ready := &orderHeap{}
	heap.Init(ready)
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]string, 0, len(s.Sections))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		order = append(order, s.Sections[i].Symbol)
		for _, j := range dependents[i] {
			indeg[j]--
			if indeg[j] == 0 {
				heap.Push(ready, j)
			}
		}
	}

	if len(order) < len(s.Sections) {
		var stuck []string
		for i := range indeg {
			if indeg[i] > 0 {
				stuck = append(stuck, s.Sections[i].Symbol)
			}
		}
		sort.Strings(stuck)
		return nil, cyclicf("memory graph has a cycle involving %s", strings.Join(stuck, ", "))
	}
	return order, nil
}

// orderHeap is a min-heap of section indices; the lowest declaration order
// is generated first among ready sections.
type orderHeap []int

func (h orderHeap) Len() int           { return len(h) }
func (h orderHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h orderHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *orderHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *orderHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

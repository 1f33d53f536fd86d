// Package mincostflow implements a generic integer-capacity, integer-cost
// minimum-cost flow solver, decoupled from the payment-routing domain so any
// caller that can express a flow network gets to reuse it.
//
// It is grounded on the classic successive-shortest-augmenting-path method
// (Ahuja, Magnanti & Orlin, "Network Flows", ch. 9): Bellman-Ford seeds node
// potentials once up front (tolerating negative edge costs, which the
// uncertainty-cost pieces never have but fee-only instances could in
// principle), and every subsequent augmenting path is found with Dijkstra
// over reduced costs, which stay non-negative once potentials are in place.
package mincostflow

import (
	"container/heap"
	"math"

	"github.com/go-errors/errors"
)

// ErrInfeasible is returned when the graph cannot carry the required flow
// from source to sink.
var ErrInfeasible = errors.New("mincostflow: no feasible flow of the required size")

// ErrNegativeCycle is returned when the initial potential computation
// detects a negative-cost cycle, for which min-cost flow is undefined.
var ErrNegativeCycle = errors.New("mincostflow: negative cost cycle")

type arc struct {
	to       int
	cap      int64 // remaining residual capacity
	cost     int64
	flow     int64 // flow currently pushed on the forward direction
	reverse  int   // index, within graph.adj[to], of this arc's pair
	original bool  // true for arcs added by the caller, false for their residual twin
	id       int   // index into Graph.arcs, shared by an arc and its twin
}

// Graph is a directed multigraph with integer capacities and costs, built up
// via AddArc and solved with Solve.
type Graph struct {
	n     int
	adj   [][]arc
	narcs int
}

// NewGraph returns an empty graph over n nodes, numbered 0..n-1.
func NewGraph(n int) *Graph {
	return &Graph{n: n, adj: make([][]arc, n)}
}

// AddArc adds a directed edge from -> to with the given capacity and
// per-unit cost, returning an arc id that Result.ArcFlow accepts. cost may be
// negative; capacity must not be.
func (g *Graph) AddArc(from, to int, capacity, cost int64) int {
	id := g.narcs
	g.narcs++

	fwdIdx := len(g.adj[from])
	revIdx := len(g.adj[to])

	g.adj[from] = append(g.adj[from], arc{
		to: to, cap: capacity, cost: cost, reverse: revIdx, original: true, id: id,
	})
	g.adj[to] = append(g.adj[to], arc{
		to: from, cap: 0, cost: -cost, reverse: fwdIdx, original: false, id: id,
	})

	return id
}

// Result is the outcome of a successful Solve call.
type Result struct {
	Flow int64
	Cost int64
	// arcFlow maps an arc id (as returned by AddArc) to the flow pushed
	// along it.
	arcFlow map[int]int64
}

// ArcFlow returns the flow pushed along the arc with the given id.
func (r *Result) ArcFlow(id int) int64 {
	return r.arcFlow[id]
}

const infDist = math.MaxInt64 / 4

// Solve pushes exactly requiredFlow units of flow from source to sink at
// minimum total cost, or returns ErrInfeasible if the graph cannot carry that
// much. Ties between equal-length augmenting paths are broken by always
// scanning a node's arcs in the order they were added (AddArc order), giving
// deterministic output for a deterministically-built graph.
func (g *Graph) Solve(source, sink int, requiredFlow int64) (*Result, error) {
	potential, err := g.bellmanFordPotentials(source)
	if err != nil {
		return nil, err
	}

	result := &Result{arcFlow: make(map[int]int64, g.narcs)}

	for result.Flow < requiredFlow {
		dist, prevNode, prevArc, reached := g.dijkstra(source, potential)
		if !reached[sink] {
			break
		}

		for v := 0; v < g.n; v++ {
			if reached[v] {
				potential[v] += dist[v]
			}
		}

		bottleneck := requiredFlow - result.Flow
		for v := sink; v != source; v = prevNode[v] {
			a := &g.adj[prevNode[v]][prevArc[v]]
			if a.cap < bottleneck {
				bottleneck = a.cap
			}
		}
		if bottleneck <= 0 {
			break
		}

		pathCost := int64(0)
		for v := sink; v != source; v = prevNode[v] {
			u := prevNode[v]
			a := &g.adj[u][prevArc[v]]
			a.cap -= bottleneck
			a.flow += bottleneck
			twin := &g.adj[a.to][a.reverse]
			twin.cap += bottleneck
			twin.flow -= bottleneck
			pathCost += a.cost * bottleneck
		}

		result.Flow += bottleneck
		result.Cost += pathCost
	}

	if result.Flow < requiredFlow {
		return nil, errors.Wrap(ErrInfeasible, 0)
	}

	for from := 0; from < g.n; from++ {
		for _, a := range g.adj[from] {
			if a.original && a.flow > 0 {
				result.arcFlow[a.id] = a.flow
			}
		}
	}

	return result, nil
}

// bellmanFordPotentials computes shortest-path distances from source to
// every node, used to seed node potentials so Dijkstra can be used for every
// subsequent augmentation even in the presence of negative-cost arcs.
func (g *Graph) bellmanFordPotentials(source int) ([]int64, error) {
	dist := make([]int64, g.n)
	for i := range dist {
		dist[i] = infDist
	}
	dist[source] = 0

	for i := 0; i < g.n-1; i++ {
		changed := false
		for u := 0; u < g.n; u++ {
			if dist[u] == infDist {
				continue
			}
			for _, a := range g.adj[u] {
				if a.cap <= 0 {
					continue
				}
				if nd := dist[u] + a.cost; nd < dist[a.to] {
					dist[a.to] = nd
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	for u := 0; u < g.n; u++ {
		if dist[u] == infDist {
			continue
		}
		for _, a := range g.adj[u] {
			if a.cap <= 0 {
				continue
			}
			if dist[u]+a.cost < dist[a.to] {
				return nil, errors.Wrap(ErrNegativeCycle, 0)
			}
		}
	}

	for i := range dist {
		if dist[i] == infDist {
			dist[i] = 0
		}
	}

	return dist, nil
}

type heapItem struct {
	node int
	dist int64
}

type distHeap []heapItem

func (h distHeap) Len() int            { return len(h) }
func (h distHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h distHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *distHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// dijkstra computes shortest reduced-cost distances from source, returning
// per-node predecessor node/arc indices for path reconstruction.
func (g *Graph) dijkstra(source int, potential []int64) (dist []int64, prevNode, prevArc []int, reached []bool) {
	dist = make([]int64, g.n)
	prevNode = make([]int, g.n)
	prevArc = make([]int, g.n)
	reached = make([]bool, g.n)
	for i := range dist {
		dist[i] = infDist
		prevNode[i] = -1
	}
	dist[source] = 0

	h := &distHeap{{node: source, dist: 0}}
	for h.Len() > 0 {
		top := heap.Pop(h).(heapItem)
		u, d := top.node, top.dist
		if d > dist[u] {
			continue
		}
		reached[u] = true

		for i, a := range g.adj[u] {
			if a.cap <= 0 {
				continue
			}
			reduced := a.cost + potential[u] - potential[a.to]
			nd := d + reduced
			if nd < dist[a.to] {
				dist[a.to] = nd
				prevNode[a.to] = u
				prevArc[a.to] = i
				heap.Push(h, heapItem{node: a.to, dist: nd})
			}
		}
	}

	return dist, prevNode, prevArc, reached
}

package routing

import (
	"container/heap"
	"math"

	"github.com/sebulino/pickhardtpay/uncertainty"
)

// Criterion selects the per-edge weight function used by DijkstraPath.
type Criterion string

const (
	// CriterionFee weights an edge by its absolute routing fee at the
	// requested amount: ppm*amount/1e6 + base_fee.
	CriterionFee Criterion = "fee"
	// CriterionProbability weights an edge by -log(1 - amount/capacity),
	// a proxy for how much of the channel's advertised capacity this
	// payment would consume.
	CriterionProbability Criterion = "probability"
	// CriterionMixed sums both weights.
	CriterionMixed Criterion = "mixed"
)

func edgeWeight(c *uncertainty.Channel, amount int64, criterion Criterion) (float64, bool) {
	switch criterion {
	case CriterionFee:
		return float64(c.Fee(amount)), true
	case CriterionProbability:
		if c.Capacity <= amount {
			return 0, false
		}
		return -math.Log(1 - float64(amount)/float64(c.Capacity)), true
	case CriterionMixed:
		if c.Capacity <= amount {
			return 0, false
		}
		fee := float64(c.Fee(amount))
		prob := -math.Log(1 - float64(amount)/float64(c.Capacity))
		return fee + prob, true
	default:
		return 0, false
	}
}

type dijkstraItem struct {
	node string
	dist float64
}

type dijkstraHeap []dijkstraItem

func (h dijkstraHeap) Len() int            { return len(h) }
func (h dijkstraHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h dijkstraHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *dijkstraHeap) Push(x interface{}) { *h = append(*h, x.(dijkstraItem)) }
func (h *dijkstraHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// DijkstraPath finds a single shortest src->dest path under criterion,
// considering only channels whose base fee does not exceed baseThreshold,
// and returns it as one PLANNED Attempt. The probability and mixed
// criteria additionally exclude channels whose static capacity can't carry
// amount at all (see edgeWeight); the fee criterion has no capacity
// exclusion, matching the original's comparison graph construction. It is
// the "classic" single-path baseline spec.md §6 mentions as a comparison
// entry point for pickhardt_pay.
func DijkstraPath(network *uncertainty.Network, src, dest string, amount int64, criterion Criterion, baseThreshold int64) (*Attempt, error) {
	dist := map[string]float64{src: 0}
	prevNode := map[string]string{}
	prevChan := map[string]*uncertainty.Channel{}
	visited := map[string]bool{}

	h := &dijkstraHeap{{node: src, dist: 0}}
	for h.Len() > 0 {
		top := heap.Pop(h).(dijkstraItem)
		u, d := top.node, top.dist
		if visited[u] {
			continue
		}
		if du, ok := dist[u]; ok && d > du {
			continue
		}
		visited[u] = true

		for _, c := range network.OutgoingEdges(u) {
			if c.BaseFeeMilliSat > baseThreshold {
				continue
			}
			weight, ok := edgeWeight(c, amount, criterion)
			if !ok {
				continue
			}
			nd := d + weight
			if existing, seen := dist[c.Dest]; !seen || nd < existing {
				dist[c.Dest] = nd
				prevNode[c.Dest] = u
				prevChan[c.Dest] = c
				heap.Push(h, dijkstraItem{node: c.Dest, dist: nd})
			}
		}
	}

	if _, ok := dist[dest]; !ok {
		return nil, nil
	}

	var path []*uncertainty.Channel
	for node := dest; node != src; {
		c := prevChan[node]
		path = append([]*uncertainty.Channel{c}, path...)
		node = prevNode[node]
	}

	return &Attempt{Path: path, Amount: amount, Status: Planned}, nil
}

package routing

import (
	"sort"

	"github.com/go-errors/errors"

	"github.com/sebulino/pickhardtpay/mincostflow"
	"github.com/sebulino/pickhardtpay/uncertainty"
)

// ErrMCFSolver wraps any failure from the underlying min-cost-flow solver,
// most commonly infeasibility: no flow of the requested size exists given
// the network's current effective capacities.
var ErrMCFSolver = errors.New("routing: min-cost-flow planning failed")

// MCFPlanner builds a piecewise-linear min-cost-flow instance from an
// uncertainty.Network and decomposes its solution into concrete Attempts.
type MCFPlanner struct {
	Network   *uncertainty.Network
	NPieces   int
	CostScale int64
}

// NewMCFPlanner returns a planner with the given piece count and cost
// integerization scale.
func NewMCFPlanner(network *uncertainty.Network, nPieces int, costScale int64) *MCFPlanner {
	return &MCFPlanner{Network: network, NPieces: nPieces, CostScale: costScale}
}

type pieceArc struct {
	channel *uncertainty.Channel
	arcID   int
}

// Plan builds, solves, and decomposes a min-cost-flow instance delivering
// exactly amount satoshis from src to dest at the given uncertainty/fee
// balance mu, returning one Attempt per decomposed simple path. If no flow
// of that size exists it returns an error wrapping ErrMCFSolver.
func (p *MCFPlanner) Plan(src, dest string, amount int64, mu float64) ([]*Attempt, error) {
	nodeIndex := make(map[string]int)
	indexNode := func(name string) int {
		if idx, ok := nodeIndex[name]; ok {
			return idx
		}
		idx := len(nodeIndex)
		nodeIndex[name] = idx
		return idx
	}

	for _, c := range p.Network.Edges() {
		indexNode(c.Src)
		indexNode(c.Dest)
	}
	indexNode(src)
	indexNode(dest)
	superSource := len(nodeIndex)

	g := mincostflow.NewGraph(superSource + 1)
	g.AddArc(superSource, nodeIndex[src], amount, 0)

	var pieceArcs []pieceArc
	for _, c := range p.Network.Edges() {
		if c.EffectiveCapacity() <= 0 {
			continue
		}
		if p.Network.IsPrunable(c, amount) {
			continue
		}

		for _, piece := range c.CostPieces(p.NPieces, mu, p.CostScale) {
			if piece.Width <= 0 {
				continue
			}
			arcID := g.AddArc(nodeIndex[c.Src], nodeIndex[c.Dest], piece.Width, piece.UnitCost)
			pieceArcs = append(pieceArcs, pieceArc{channel: c, arcID: arcID})
		}
	}

	result, err := g.Solve(superSource, nodeIndex[dest], amount)
	if err != nil {
		return nil, errors.WrapPrefix(ErrMCFSolver, err.Error(), 0)
	}

	perChannel := make(map[string]int64, len(pieceArcs))
	for _, pa := range pieceArcs {
		if f := result.ArcFlow(pa.arcID); f > 0 {
			perChannel[channelKey(pa.channel)] += f
		}
	}

	return decompose(p.Network, src, dest, perChannel)
}

func channelKey(c *uncertainty.Channel) string {
	return c.Src + "\x00" + c.Dest + "\x00" + c.ShortChannelID
}

// decompose repeatedly extracts a simple src->dest path from the support of
// the flow in remaining, subtracting the bottleneck amount along the way,
// until no such path exists. Ties among outgoing channels are broken by
// ascending short_channel_id for determinism.
func decompose(network *uncertainty.Network, src, dest string, remaining map[string]int64) ([]*Attempt, error) {
	var attempts []*Attempt

	maxIterations := len(remaining) + 1
	for iter := 0; iter < maxIterations; iter++ {
		if totalOutflow(network, src, remaining) == 0 {
			break
		}

		path, ok := findSimplePath(network, src, dest, remaining)
		if !ok {
			// The flow's support is disconnected from src or dest;
			// should not occur for an optimal flow, but we stop and
			// return what has been decomposed so far rather than
			// looping forever.
			break
		}

		pathAmount := int64(-1)
		for _, c := range path {
			k := channelKey(c)
			if pathAmount < 0 || remaining[k] < pathAmount {
				pathAmount = remaining[k]
			}
		}
		if pathAmount <= 0 {
			break
		}

		for _, c := range path {
			remaining[channelKey(c)] -= pathAmount
		}

		attempts = append(attempts, &Attempt{
			Path:   path,
			Amount: pathAmount,
			Status: Planned,
		})
	}

	return attempts, nil
}

func totalOutflow(network *uncertainty.Network, node string, remaining map[string]int64) int64 {
	var total int64
	for _, c := range network.OutgoingEdges(node) {
		total += remaining[channelKey(c)]
	}
	return total
}

// findSimplePath walks from src choosing, at each node, the lowest
// short_channel_id outgoing channel with positive remaining flow that does
// not revisit an already-visited node, until dest is reached or no such
// channel exists.
func findSimplePath(network *uncertainty.Network, src, dest string, remaining map[string]int64) ([]*uncertainty.Channel, bool) {
	visited := map[string]bool{src: true}
	var path []*uncertainty.Channel

	node := src
	for node != dest {
		edges := network.OutgoingEdges(node)
		sort.Slice(edges, func(i, j int) bool {
			return edges[i].ShortChannelID < edges[j].ShortChannelID
		})

		next := (*uncertainty.Channel)(nil)
		for _, c := range edges {
			if remaining[channelKey(c)] > 0 && !visited[c.Dest] {
				next = c
				break
			}
		}
		if next == nil {
			return nil, false
		}

		path = append(path, next)
		visited[next.Dest] = true
		node = next.Dest
	}

	return path, true
}

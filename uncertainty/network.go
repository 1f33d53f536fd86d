package uncertainty

import (
	"sort"

	"github.com/sebulino/pickhardtpay/channeldb"
)

type edgeKey struct {
	src, dest, scid string
}

// Network is a directed multigraph of belief Channels, one per advertised
// channel in the underlying channeldb.Graph. It is owned exclusively by a
// single PaymentSession for the duration of a payment.
type Network struct {
	channels map[edgeKey]*Channel
	out      map[string][]edgeKey

	// Prune controls whether IsPrunable / the planner should exclude
	// channels whose probability at the requested amount falls below
	// PruneProbFloor. Off by default. It never deletes channels from the
	// network.
	Prune          bool
	PruneProbFloor float64
}

// NewNetwork builds an uncertainty Network with an uninformative prior over
// every channel in g.
func NewNetwork(g *channeldb.Graph) *Network {
	n := &Network{
		channels:       make(map[edgeKey]*Channel),
		out:            make(map[string][]edgeKey),
		Prune:          false,
		PruneProbFloor: 1e-6,
	}
	for _, c := range g.Edges() {
		n.insert(NewChannel(c))
	}
	return n
}

func (n *Network) insert(c *Channel) {
	key := edgeKey{c.Src, c.Dest, c.ShortChannelID}
	n.channels[key] = c
	edges := append(n.out[c.Src], key)
	sort.Slice(edges, func(i, j int) bool { return edges[i].scid < edges[j].scid })
	n.out[c.Src] = edges
}

// GetChannel looks up a directed belief channel, or nil.
func (n *Network) GetChannel(src, dest, scid string) *Channel {
	return n.channels[edgeKey{src, dest, scid}]
}

// ReturnChannel looks up the opposite direction of c.
func (n *Network) ReturnChannel(c *Channel) *Channel {
	return n.GetChannel(c.Dest, c.Src, c.ShortChannelID)
}

// Edges returns every belief channel, in deterministic order (node, then
// sorted short_channel_id).
func (n *Network) Edges() []*Channel {
	nodes := make([]string, 0, len(n.out))
	for node := range n.out {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	edges := make([]*Channel, 0, len(n.channels))
	for _, node := range nodes {
		for _, key := range n.out[node] {
			edges = append(edges, n.channels[key])
		}
	}
	return edges
}

// OutgoingEdges returns the belief channels leaving node, sorted by
// short_channel_id.
func (n *Network) OutgoingEdges(node string) []*Channel {
	keys := n.out[node]
	edges := make([]*Channel, len(keys))
	for i, k := range keys {
		edges[i] = n.channels[k]
	}
	return edges
}

// ResetUncertaintyNetwork restores every channel to the maximally
// uninformative prior (forget_information).
func (n *Network) ResetUncertaintyNetwork() {
	for _, c := range n.channels {
		c.Reset()
	}
}

// PathHop names one directed channel along a path, for the bulk
// learn-from-path helpers below.
type PathHop struct {
	Src, Dest, ShortChannelID string
}

// LearnFromPathSuccess applies LearnFromSuccessOn(amount) to every channel
// along path.
func (n *Network) LearnFromPathSuccess(path []PathHop, amount int64) {
	for _, hop := range path {
		if c := n.GetChannel(hop.Src, hop.Dest, hop.ShortChannelID); c != nil {
			c.LearnFromSuccessOn(amount)
		}
	}
}

// LearnFromPathFailure applies LearnFromFailureAt(amount) to every channel
// along path. Used when the whole path is considered to have failed at the
// same amount, as opposed to the index-specific handling the session loop
// does for a single rejected onion.
func (n *Network) LearnFromPathFailure(path []PathHop, amount int64) {
	for _, hop := range path {
		if c := n.GetChannel(hop.Src, hop.Dest, hop.ShortChannelID); c != nil {
			c.LearnFromFailureAt(amount)
		}
	}
}

// IsPrunable reports whether channel c should be excluded from a min-cost-
// flow instance being built for the given amount, per the PruneProbFloor
// policy. It never affects network iteration or lookups — only planning.
func (n *Network) IsPrunable(c *Channel, amount int64) bool {
	if !n.Prune {
		return false
	}
	return c.Probability(amount) < n.PruneProbFloor
}

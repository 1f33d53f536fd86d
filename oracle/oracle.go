// Package oracle models the ground-truth liquidity of a payment channel
// network: the arbiter a PaymentSession probes against, as distinct from the
// belief the session itself maintains (see package uncertainty). Nothing in
// this package is ever visible to the planner — only accept/reject decisions
// and settlement outcomes cross the boundary.
package oracle

import (
	"math/rand"
	"sort"

	"github.com/btcsuite/btclog"
	"github.com/go-errors/errors"

	"github.com/sebulino/pickhardtpay/channeldb"
)

var log = btclog.Disabled

// UseLogger assigns the subsystem logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// Channel is the ground-truth state of a single advertised direction: the
// actual amount currently on the sender's side (ActualLiquidity) plus
// whatever this node's probes have reserved against it but not yet settled
// (InFlight). ActualLiquidity + the return channel's ActualLiquidity always
// equals the shared Capacity.
type Channel struct {
	*channeldb.Channel
	ActualLiquidity int64
	InFlight        int64
}

// Available returns the liquidity this channel can still accept a probe
// against: actual liquidity minus whatever is already reserved in flight.
func (c *Channel) Available() int64 {
	return c.ActualLiquidity - c.InFlight
}

// Hop identifies one directed channel along a probed path. It is
// intentionally a plain tuple rather than a reference to an uncertainty or
// routing type, so this package has no dependency on the planner.
type Hop struct {
	Src, Dest, ShortChannelID string
	Amount                    int64
}

// Result is the outcome of probing a path against the oracle.
type Result struct {
	// Accepted is true if every hop had sufficient available liquidity.
	Accepted bool
	// RejectedIndex is the index into the probed path of the first hop
	// that could not carry the amount, valid only if !Accepted.
	RejectedIndex int
}

// LiquidityModel decides the initial ActualLiquidity of the send-direction of
// a freshly-loaded channel, given its return channel's partner. Grounded on
// create_random_graph.py's two observed initialization styles: a uniform
// random split and a fixed (half-and-half) split.
type LiquidityModel interface {
	// Sample returns the actual liquidity to assign to the src->dest
	// direction of a channel with the given capacity.
	Sample(capacity int64) int64
}

// UniformLiquidity samples actual_liquidity uniformly from [0, capacity].
type UniformLiquidity struct {
	Rand *rand.Rand
}

// Sample implements LiquidityModel.
func (u UniformLiquidity) Sample(capacity int64) int64 {
	if capacity <= 0 {
		return 0
	}
	r := u.Rand
	if r == nil {
		r = rand.New(rand.NewSource(1))
	}
	return r.Int63n(capacity + 1)
}

// FixedSplitLiquidity always returns exactly half the capacity, rounded down,
// mirroring channels initialized with perfectly balanced liquidity.
type FixedSplitLiquidity struct{}

// Sample implements LiquidityModel.
func (FixedSplitLiquidity) Sample(capacity int64) int64 {
	return capacity / 2
}

// Network is a directed multigraph of oracle Channels: the ground truth a
// PaymentSession probes against. It is built once from a channeldb.Graph and
// is never resized afterward; only ActualLiquidity and InFlight mutate.
type Network struct {
	channels map[edgeKey]*Channel
	out      map[string][]edgeKey
}

type edgeKey struct {
	src, dest, scid string
}

// NewNetwork builds an oracle Network over every channel in g. For each pair
// of directions sharing a short_channel_id, model assigns the src->dest
// ActualLiquidity and the reverse direction gets capacity minus that,
// preserving conservation from construction on.
func NewNetwork(g *channeldb.Graph, model LiquidityModel) *Network {
	n := &Network{
		channels: make(map[edgeKey]*Channel),
		out:      make(map[string][]edgeKey),
	}

	assigned := make(map[edgeKey]bool)
	for _, c := range g.Edges() {
		key := edgeKey{c.Src, c.Dest, c.ShortChannelID}
		if assigned[key] {
			continue
		}
		retKey := edgeKey{c.Dest, c.Src, c.ShortChannelID}

		liquidity := model.Sample(c.Capacity)
		n.insert(&Channel{Channel: c, ActualLiquidity: liquidity})
		assigned[key] = true

		if ret := g.GetChannel(c.Dest, c.Src, c.ShortChannelID); ret != nil {
			n.insert(&Channel{Channel: ret, ActualLiquidity: c.Capacity - liquidity})
			assigned[retKey] = true
		}
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

// GetChannel looks up the directed oracle channel, or nil.
func (n *Network) GetChannel(src, dest, scid string) *Channel {
	return n.channels[edgeKey{src, dest, scid}]
}

// returnChannel looks up the opposite direction of c.
func (n *Network) returnChannel(c *Channel) *Channel {
	return n.GetChannel(c.Dest, c.Src, c.ShortChannelID)
}

// SendOnion probes path, hop by hop, against this network's ground truth.
// The first hop whose available liquidity is less than its requested amount
// causes the whole probe to be rejected at that index; otherwise every hop's
// amount is reserved as oracle-side in-flight.
func (n *Network) SendOnion(path []Hop) Result {
	for i, hop := range path {
		ch := n.GetChannel(hop.Src, hop.Dest, hop.ShortChannelID)
		if ch == nil || ch.Available() < hop.Amount {
			return Result{Accepted: false, RejectedIndex: i}
		}
	}
	for _, hop := range path {
		ch := n.GetChannel(hop.Src, hop.Dest, hop.ShortChannelID)
		ch.InFlight += hop.Amount
	}
	return Result{Accepted: true}
}

// Settle finalizes an accepted probe: for each hop, the sender's side loses
// amount, the return channel's side gains it, and the oracle-side in-flight
// reservation made by SendOnion is released. Conservation across the pair is
// preserved by construction.
func (n *Network) Settle(path []Hop) error {
	for _, hop := range path {
		ch := n.GetChannel(hop.Src, hop.Dest, hop.ShortChannelID)
		if ch == nil {
			return errors.Errorf("settle: unknown channel %s->%s(%s)", hop.Src, hop.Dest, hop.ShortChannelID)
		}
		if hop.Amount > ch.InFlight {
			return errors.Errorf("settle: amount %d exceeds in-flight %d on %s", hop.Amount, ch.InFlight, hop.ShortChannelID)
		}
		ret := n.returnChannel(ch)
		if ret == nil {
			return errors.Errorf("settle: %s has no return channel", ch.ShortChannelID)
		}

		ch.InFlight -= hop.Amount
		ch.ActualLiquidity -= hop.Amount
		ret.ActualLiquidity += hop.Amount
	}
	return nil
}

// ReleaseInFlight undoes a SendOnion reservation without settling it, used
// when a payment is abandoned with attempts the oracle accepted but that
// will never be settled.
func (n *Network) ReleaseInFlight(path []Hop) {
	for _, hop := range path {
		if ch := n.GetChannel(hop.Src, hop.Dest, hop.ShortChannelID); ch != nil {
			ch.InFlight -= hop.Amount
		}
	}
}

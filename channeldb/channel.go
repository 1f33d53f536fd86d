// Package channeldb holds the immutable, advertised view of the payment
// channel graph: the Channel records themselves and the directed multigraph
// that indexes them. It knows nothing about liquidity, belief, or flow — that
// lives in the oracle and uncertainty packages, which are both built on top
// of the Channel records held here.
package channeldb

import (
	"fmt"
	"sort"

	"github.com/go-errors/errors"
)

// Channel is an immutable, advertised payment channel edge identified by the
// ordered pair of endpoints plus a short channel id, matching the teacher's
// convention of treating short_channel_id (not a node pair) as the
// multigraph's edge key.
type Channel struct {
	Src             string
	Dest            string
	ShortChannelID  string
	Capacity        int64 // satoshis, > 0
	PPM             int64 // proportional fee, parts-per-million, >= 0
	BaseFeeMilliSat int64 // >= 0
}

// ID returns the tuple that uniquely identifies this channel within a Graph.
func (c *Channel) ID() (src, dest, scid string) {
	return c.Src, c.Dest, c.ShortChannelID
}

// Fee returns the routing fee, in satoshis, for forwarding amount sats over
// this channel: base fee (converted from millisatoshis, rounding down) plus
// the proportional fee.
func (c *Channel) Fee(amount int64) int64 {
	return c.BaseFeeMilliSat/1000 + (amount*c.PPM)/1_000_000
}

func validateChannel(c *Channel) error {
	if c.Capacity <= 0 {
		return errors.Errorf("channel %s: capacity must be positive, got %d",
			c.ShortChannelID, c.Capacity)
	}
	if c.PPM < 0 || c.BaseFeeMilliSat < 0 {
		return errors.Errorf("channel %s: fees must be non-negative", c.ShortChannelID)
	}
	return nil
}

// edgeKey identifies a directed edge within a Graph's adjacency maps.
type edgeKey struct {
	src, dest, scid string
}

// Graph is a directed multigraph of Channels, keyed by (src, dest,
// short_channel_id). Edges fan out of a node in sorted short_channel_id order
// so that any traversal over the graph is deterministic.
type Graph struct {
	channels map[edgeKey]*Channel
	out      map[string][]edgeKey // node -> sorted outgoing edges
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		channels: make(map[edgeKey]*Channel),
		out:      make(map[string][]edgeKey),
	}
}

// AddChannel inserts c into the graph. It is an error to insert a duplicate
// (src, dest, short_channel_id).
func (g *Graph) AddChannel(c *Channel) error {
	if err := validateChannel(c); err != nil {
		return err
	}
	key := edgeKey{c.Src, c.Dest, c.ShortChannelID}
	if _, ok := g.channels[key]; ok {
		return errors.Errorf("duplicate channel %s %s->%s", c.ShortChannelID, c.Src, c.Dest)
	}
	g.channels[key] = c

	edges := append(g.out[c.Src], key)
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].scid < edges[j].scid
	})
	g.out[c.Src] = edges

	return nil
}

// RemoveChannel deletes a single directed edge from the graph, if present.
func (g *Graph) RemoveChannel(src, dest, scid string) {
	key := edgeKey{src, dest, scid}
	if _, ok := g.channels[key]; !ok {
		return
	}
	delete(g.channels, key)

	edges := g.out[src]
	for i, e := range edges {
		if e == key {
			g.out[src] = append(edges[:i], edges[i+1:]...)
			break
		}
	}
}

// GetChannel looks up the directed channel (src, dest, scid), returning nil
// if it does not exist.
func (g *Graph) GetChannel(src, dest, scid string) *Channel {
	return g.channels[edgeKey{src, dest, scid}]
}

// ReturnChannel looks up the return channel of c: same short_channel_id,
// opposite direction.
func (g *Graph) ReturnChannel(c *Channel) *Channel {
	return g.GetChannel(c.Dest, c.Src, c.ShortChannelID)
}

// Edges returns every channel in the graph, in deterministic (node, then
// sorted short_channel_id) order.
func (g *Graph) Edges() []*Channel {
	nodes := make([]string, 0, len(g.out))
	for n := range g.out {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	edges := make([]*Channel, 0, len(g.channels))
	for _, n := range nodes {
		for _, key := range g.out[n] {
			edges = append(edges, g.channels[key])
		}
	}
	return edges
}

// OutgoingEdges returns the channels leaving node, in sorted
// short_channel_id order.
func (g *Graph) OutgoingEdges(node string) []*Channel {
	keys := g.out[node]
	edges := make([]*Channel, len(keys))
	for i, k := range keys {
		edges[i] = g.channels[k]
	}
	return edges
}

// Nodes returns the set of distinct endpoints seen in the graph.
func (g *Graph) Nodes() []string {
	seen := make(map[string]struct{})
	for key := range g.channels {
		seen[key.src] = struct{}{}
		seen[key.dest] = struct{}{}
	}
	nodes := make([]string, 0, len(seen))
	for n := range seen {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// DroppedChannel records a channel removed at load time for lacking a return
// channel, along with why, so the caller can log a warning (§4 of the
// specification: "the offending edge is dropped with a warning").
type DroppedChannel struct {
	Channel *Channel
	Reason  error
}

// ErrMissingReturnChannel is returned, wrapped in a DroppedChannel, for every
// edge that has no matching reverse direction with the same short channel id
// and capacity.
var ErrMissingReturnChannel = errors.New("channel has no matching return channel")

// PruneUnpaired drops every channel in g that lacks a return channel with an
// identical short_channel_id and capacity, returning the dropped edges.
func (g *Graph) PruneUnpaired() []DroppedChannel {
	var dropped []DroppedChannel
	for _, c := range g.Edges() {
		ret := g.ReturnChannel(c)
		if ret == nil || ret.Capacity != c.Capacity {
			dropped = append(dropped, DroppedChannel{
				Channel: c,
				Reason:  errors.Wrap(ErrMissingReturnChannel, 0),
			})
			g.RemoveChannel(c.Src, c.Dest, c.ShortChannelID)
		}
	}
	return dropped
}

// String renders a channel for logs and error messages.
func (c *Channel) String() string {
	return fmt.Sprintf("%s->%s(%s)", c.Src, c.Dest, c.ShortChannelID)
}

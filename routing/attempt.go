// Package routing turns an uncertainty.Network into concrete payment
// attempts: a min-cost-flow planner that optimizes a convex combination of
// routing fees and liquidity uncertainty, plus a single-path Dijkstra
// baseline kept around for comparison.
package routing

import (
	"github.com/btcsuite/btclog"

	"github.com/sebulino/pickhardtpay/uncertainty"
)

var log = btclog.Disabled

// UseLogger assigns the subsystem logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// Status is the lifecycle state of an Attempt.
type Status int

const (
	// Planned is the initial state: a path and amount have been chosen
	// but nothing has been allocated or probed yet.
	Planned Status = iota
	// InFlight means the oracle accepted the probe and the amount is
	// reserved in the uncertainty network awaiting settlement.
	InFlight
	// Failed means the oracle rejected the probe, or the attempt was
	// abandoned before settlement.
	Failed
	// Settled means the payment this attempt belongs to fully delivered
	// and balances have moved across every channel on the path.
	Settled
)

// String renders a Status for logs.
func (s Status) String() string {
	switch s {
	case Planned:
		return "PLANNED"
	case InFlight:
		return "INFLIGHT"
	case Failed:
		return "FAILED"
	case Settled:
		return "SETTLED"
	default:
		return "UNKNOWN"
	}
}

// Attempt is a single candidate path plus amount: one onion, in lnd
// terminology, though no actual onion is ever constructed here.
type Attempt struct {
	Path   []*uncertainty.Channel
	Amount int64
	Status Status
}

// Probability is the product of each channel's success probability at this
// attempt's amount, evaluated against the channels' current belief state.
func (a *Attempt) Probability() float64 {
	p := 1.0
	for _, c := range a.Path {
		p *= c.Probability(a.Amount)
	}
	return p
}

// RoutingFee is the sum of each hop's base fee plus proportional fee on this
// attempt's amount.
func (a *Attempt) RoutingFee() int64 {
	var fee int64
	for _, c := range a.Path {
		fee += c.Fee(a.Amount)
	}
	return fee
}

// PathLength is the number of hops in this attempt's path.
func (a *Attempt) PathLength() int {
	return len(a.Path)
}

// MinCapacity is the smallest effective capacity among the channels on the
// path, an upper bound on any amount this attempt could legally carry.
func (a *Attempt) MinCapacity() int64 {
	min := int64(-1)
	for _, c := range a.Path {
		if min < 0 || c.EffectiveCapacity() < min {
			min = c.EffectiveCapacity()
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

// Hops renders the path as uncertainty.PathHop tuples, the shape the
// uncertainty network's bulk-learn helpers expect.
func (a *Attempt) Hops() []uncertainty.PathHop {
	hops := make([]uncertainty.PathHop, len(a.Path))
	for i, c := range a.Path {
		hops[i] = uncertainty.PathHop{Src: c.Src, Dest: c.Dest, ShortChannelID: c.ShortChannelID}
	}
	return hops
}

// Package payment aggregates routing Attempts into a Payment and drives the
// top-level PaymentSession loop: plan, probe, learn, settle.
package payment

import (
	"github.com/btcsuite/btclog"
	"github.com/go-errors/errors"

	"github.com/sebulino/pickhardtpay/oracle"
	"github.com/sebulino/pickhardtpay/routing"
	"github.com/sebulino/pickhardtpay/uncertainty"
)

var log = btclog.Disabled

// UseLogger assigns the subsystem logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// ErrNotFullyAllocated is returned by Execute when called before the
// payment's residual amount has reached zero.
var ErrNotFullyAllocated = errors.New("payment: execute called with nonzero residual amount")

// Payment aggregates every Attempt made while trying to deliver
// RequestedAmount from Sender to Receiver, and the two networks its attempts
// are settled against.
type Payment struct {
	Sender          string
	Receiver        string
	RequestedAmount int64
	Mu              float64
	BaseThreshold   int64

	Attempts []*routing.Attempt

	// PickhardtPaymentRounds counts planning rounds attempted so far.
	// Monotone: only ever incremented, even across sub-payments folded
	// into this one via RegisterSubPayment.
	PickhardtPaymentRounds int

	uncertaintyNetwork *uncertainty.Network
	oracleNetwork      *oracle.Network
}

// New returns a Payment ready to accumulate attempts toward
// requestedAmount, settled against the given networks.
func New(uncertaintyNetwork *uncertainty.Network, oracleNetwork *oracle.Network,
	sender, receiver string, requestedAmount int64, mu float64, baseThreshold int64) *Payment {

	return &Payment{
		Sender:             sender,
		Receiver:           receiver,
		RequestedAmount:    requestedAmount,
		Mu:                 mu,
		BaseThreshold:      baseThreshold,
		uncertaintyNetwork: uncertaintyNetwork,
		oracleNetwork:      oracleNetwork,
	}
}

// ResidualAmount is the amount still left to deliver: requested minus
// whatever is already in flight or settled.
func (p *Payment) ResidualAmount() int64 {
	var accounted int64
	for _, a := range p.Attempts {
		if a.Status == routing.InFlight || a.Status == routing.Settled {
			accounted += a.Amount
		}
	}
	return p.RequestedAmount - accounted
}

// IncrementPickhardtPaymentRounds advances the round counter.
func (p *Payment) IncrementPickhardtPaymentRounds() {
	p.PickhardtPaymentRounds++
}

// RegisterSubPayment appends sub's attempts (carrying their current status)
// to this payment. sub's round count is not added to this payment's.
func (p *Payment) RegisterSubPayment(sub *Payment) {
	p.Attempts = append(p.Attempts, sub.Attempts...)
}

// Execute settles every INFLIGHT attempt: the oracle's ground-truth balances
// move across each hop and the uncertainty belief narrows to reflect the
// transfer, after which the attempt is marked SETTLED. Requires
// ResidualAmount() == 0.
func (p *Payment) Execute() error {
	if p.ResidualAmount() != 0 {
		return errors.Wrap(ErrNotFullyAllocated, 0)
	}

	for _, a := range p.Attempts {
		if a.Status != routing.InFlight {
			continue
		}

		if err := p.oracleNetwork.Settle(oracleHops(a)); err != nil {
			return err
		}
		for _, c := range a.Path {
			reverse := p.uncertaintyNetwork.ReturnChannel(c)
			if reverse == nil {
				return errors.Errorf("execute: channel %s has no return channel", c.ShortChannelID)
			}
			if err := c.Settle(a.Amount, reverse); err != nil {
				return err
			}
		}

		a.Status = routing.Settled
	}

	return nil
}

// oracleHops renders an Attempt's path as oracle.Hop probes, each carrying
// the attempt's full amount.
func oracleHops(a *routing.Attempt) []oracle.Hop {
	hops := make([]oracle.Hop, len(a.Path))
	for i, c := range a.Path {
		hops[i] = oracle.Hop{Src: c.Src, Dest: c.Dest, ShortChannelID: c.ShortChannelID, Amount: a.Amount}
	}
	return hops
}

// Summary reports aggregate totals over a Payment's attempts.
type Summary struct {
	RequestedAmount int64
	ResidualAmount  int64
	FeesPaid        int64
	Rounds          int
	Planned         int
	InFlight        int
	Failed          int
	Settled         int
}

// GetSummary computes totals over the payment's current attempts: fees are
// only counted over SETTLED attempts, matching the rule that failed onions
// never cost anything.
func (p *Payment) GetSummary() Summary {
	s := Summary{
		RequestedAmount: p.RequestedAmount,
		ResidualAmount:  p.ResidualAmount(),
		Rounds:          p.PickhardtPaymentRounds,
	}
	for _, a := range p.Attempts {
		switch a.Status {
		case routing.Planned:
			s.Planned++
		case routing.InFlight:
			s.InFlight++
		case routing.Failed:
			s.Failed++
		case routing.Settled:
			s.Settled++
			s.FeesPaid += a.RoutingFee()
		}
	}
	return s
}

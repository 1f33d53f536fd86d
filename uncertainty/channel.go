// Package uncertainty implements the Bayesian liquidity belief the planner
// optimizes over: a [min_liquidity, max_liquidity] interval per channel plus
// an in-flight reservation count, narrowed by observed successes and
// failures against the oracle.
package uncertainty

import (
	"math"

	"github.com/btcsuite/btclog"
	"github.com/go-errors/errors"

	"github.com/sebulino/pickhardtpay/channeldb"
)

var log = btclog.Disabled

// UseLogger assigns the subsystem logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// ErrInvariantViolation prefixes the error Allocate/Release return when the
// caller passes a negative amount or one that would push in_flight below
// zero or above max_liquidity. It indicates a programming bug in the caller,
// not an observation about the network, and must abort the payment per the
// error handling design.
var ErrInvariantViolation = errors.New("uncertainty: invariant violation")

// Channel is the belief held about a single directed advertised channel: the
// inclusive posterior interval over its true send-direction liquidity, plus
// whatever amount is tentatively reserved against it right now.
type Channel struct {
	*channeldb.Channel
	MinLiquidity int64
	MaxLiquidity int64
	InFlight     int64
}

// NewChannel returns a Channel with the maximally uninformative prior: the
// entire advertised capacity is plausible send-direction liquidity.
func NewChannel(c *channeldb.Channel) *Channel {
	return &Channel{
		Channel:      c,
		MinLiquidity: 0,
		MaxLiquidity: c.Capacity,
		InFlight:     0,
	}
}

// Reset restores the channel to its initial, maximally uninformative state.
// Used by UncertaintyNetwork.ResetUncertaintyNetwork (forget_information).
func (c *Channel) Reset() {
	c.MinLiquidity = 0
	c.MaxLiquidity = c.Capacity
	c.InFlight = 0
}

// EffectiveCapacity is the amount of flow this channel could still carry
// given what is already reserved: max_liquidity - in_flight.
func (c *Channel) EffectiveCapacity() int64 {
	return c.MaxLiquidity - c.InFlight
}

// Probability returns P(actual_liquidity >= amount + in_flight), assuming
// actual_liquidity is uniform over the integers in
// [min_liquidity, max_liquidity]. Monotone non-increasing in amount.
func (c *Channel) Probability(amount int64) float64 {
	x := amount + c.InFlight
	if x <= c.MinLiquidity {
		return 1
	}
	if x > c.MaxLiquidity {
		return 0
	}
	return float64(c.MaxLiquidity-c.InFlight-amount+1) / float64(c.MaxLiquidity-c.MinLiquidity+1)
}

// LearnFromSuccessOn narrows the lower bound after observing that the
// channel forwarded amount successfully (on top of whatever was already
// in-flight at the time of the observation).
func (c *Channel) LearnFromSuccessOn(amount int64) {
	lowerBound := amount + c.InFlight
	if lowerBound > c.MinLiquidity {
		c.MinLiquidity = lowerBound
	}
}

// LearnFromFailureAt narrows the upper bound after observing that the
// channel rejected amount.
func (c *Channel) LearnFromFailureAt(amount int64) {
	upperBound := amount + c.InFlight - 1
	if upperBound < c.MaxLiquidity {
		c.MaxLiquidity = upperBound
	}
}

// Allocate reserves amount against this channel's effective capacity.
func (c *Channel) Allocate(amount int64) error {
	if amount < 0 || amount > c.MaxLiquidity-c.InFlight {
		return errors.Errorf("%v: allocate %d on %s exceeds effective capacity %d",
			ErrInvariantViolation, amount, c.ShortChannelID, c.MaxLiquidity-c.InFlight)
	}
	c.InFlight += amount
	return nil
}

// Release frees a previously allocated amount.
func (c *Channel) Release(amount int64) error {
	if amount < 0 || amount > c.InFlight {
		return errors.Errorf("%v: release %d on %s exceeds in-flight %d",
			ErrInvariantViolation, amount, c.ShortChannelID, c.InFlight)
	}
	c.InFlight -= amount
	return nil
}

// Settle finalizes a successful transfer of amount across this channel: the
// in-flight reservation is released, this channel's interval shifts down by
// amount (it has less liquidity now), and reverse's interval shifts up by
// amount (it gained liquidity).
func (c *Channel) Settle(amount int64, reverse *Channel) error {
	if err := c.Release(amount); err != nil {
		return err
	}

	c.MaxLiquidity -= amount
	c.MinLiquidity -= amount
	if c.MinLiquidity < 0 {
		c.MinLiquidity = 0
	}
	if c.MinLiquidity > c.MaxLiquidity {
		c.MinLiquidity = c.MaxLiquidity
	}

	reverse.MinLiquidity += amount
	reverse.MaxLiquidity += amount
	if reverse.MaxLiquidity > reverse.Capacity {
		reverse.MaxLiquidity = reverse.Capacity
	}
	if reverse.MinLiquidity > reverse.MaxLiquidity {
		reverse.MinLiquidity = reverse.MaxLiquidity
	}

	return nil
}

// Piece is one segment of a channel's piecewise-linear cost curve, consumed
// by the planner as a single parallel arc.
type Piece struct {
	Width int64
	// UnitCost is the integer, COST_SCALE-scaled per-unit cost for flow
	// routed through this piece.
	UnitCost int64
}

// CostPieces approximates -log(P(x)) + mu*ppm*1e-6 as nPieces equal-width
// linear segments over [0, EffectiveCapacity()]. Unit costs are monotone
// non-decreasing in piece index, which is what makes the resulting parallel
// arcs usable by any min-cost-flow solver expecting a convex cost.
func (c *Channel) CostPieces(nPieces int, mu float64, costScale int64) []Piece {
	effective := c.EffectiveCapacity()
	if effective <= 0 || nPieces <= 0 {
		return nil
	}

	pieceWidth := (effective + int64(nPieces) - 1) / int64(nPieces)
	feeUnitCost := mu * float64(c.PPM) / 1_000_000

	pieces := make([]Piece, 0, nPieces)
	var cumulative int64
	for k := 0; k < nPieces && cumulative < effective; k++ {
		width := pieceWidth
		if remaining := effective - cumulative; width > remaining {
			width = remaining
		}
		cumulative += width

		prob := c.Probability(cumulative)
		slope := feeUnitCost
		if prob > 0 {
			slope += -math.Log(prob)
		}

		pieces = append(pieces, Piece{
			Width:    width,
			UnitCost: int64(math.Round(slope * float64(costScale))),
		})
	}

	return pieces
}

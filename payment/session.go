package payment

import (
	"math/rand"

	"github.com/sebulino/pickhardtpay/oracle"
	"github.com/sebulino/pickhardtpay/routing"
	"github.com/sebulino/pickhardtpay/uncertainty"
)

// DefaultRoundCap bounds how many planning rounds PickhardtPay will attempt
// before giving up on a payment, matching the reference simulator's
// ROUND_CAP.
const DefaultRoundCap = 10

// DefaultPMin is the probability floor below which PickhardtPay abandons a
// payment rather than keep probing an increasingly implausible path.
const DefaultPMin = 0.1

// PaymentSession ties an oracle Network (ground truth) to an uncertainty
// Network (belief) and drives rounds of planning, probing, and learning
// toward delivering a payment. One session is reused across many payments
// against the same pair of networks; ForgetInformation resets the belief
// between independent runs.
type PaymentSession struct {
	OracleNetwork      *oracle.Network
	UncertaintyNetwork *uncertainty.Network

	// RoundCap bounds planning rounds per payment; zero means
	// DefaultRoundCap.
	RoundCap int
	// PMin is the probability floor below which a payment is abandoned;
	// zero means DefaultPMin.
	PMin float64

	NPieces   int
	CostScale int64
}

// NewPaymentSession returns a session with the reference defaults for
// RoundCap, PMin, NPieces, and CostScale.
func NewPaymentSession(oracleNetwork *oracle.Network, uncertaintyNetwork *uncertainty.Network) *PaymentSession {
	return &PaymentSession{
		OracleNetwork:      oracleNetwork,
		UncertaintyNetwork: uncertaintyNetwork,
		RoundCap:           DefaultRoundCap,
		PMin:               DefaultPMin,
		NPieces:            5,
		CostScale:          1_000_000_000,
	}
}

func (s *PaymentSession) roundCap() int {
	if s.RoundCap > 0 {
		return s.RoundCap
	}
	return DefaultRoundCap
}

func (s *PaymentSession) pMin() float64 {
	if s.PMin > 0 {
		return s.PMin
	}
	return DefaultPMin
}

// ForgetInformation resets every channel in the uncertainty network back to
// its uninformative prior, discarding everything learned from prior rounds
// or prior payments.
func (s *PaymentSession) ForgetInformation() {
	s.UncertaintyNetwork.ResetUncertaintyNetwork()
}

// ActivateNetworkWideUncertaintyReduction simulates n independent random
// probes scattered across the network, each learning from its outcome
// exactly as a real round would. Used to study how much residual uncertainty
// a warm network carries into a payment, without actually delivering one.
func (s *PaymentSession) ActivateNetworkWideUncertaintyReduction(n int, rng *rand.Rand) {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	edges := s.UncertaintyNetwork.Edges()
	if len(edges) == 0 {
		return
	}

	for i := 0; i < n; i++ {
		c := edges[rng.Intn(len(edges))]
		probe := c.EffectiveCapacity() / 2
		if probe <= 0 {
			continue
		}

		ch := s.OracleNetwork.GetChannel(c.Src, c.Dest, c.ShortChannelID)
		if ch == nil {
			continue
		}
		if ch.Available() >= probe {
			c.LearnFromSuccessOn(probe)
		} else {
			c.LearnFromFailureAt(probe)
		}
	}
}

// allocateAttempt reserves an attempt's amount against every channel on its
// path in the uncertainty network. On partial failure (one of the later
// hops exceeds effective capacity, which can happen if an earlier round's
// learning narrowed a shared channel since planning), everything already
// allocated for this attempt is released before returning the error.
func allocateAttempt(a *routing.Attempt) error {
	for i, c := range a.Path {
		if err := c.Allocate(a.Amount); err != nil {
			for j := 0; j < i; j++ {
				a.Path[j].Release(a.Amount)
			}
			return err
		}
	}
	return nil
}

// releaseAttempt frees an attempt's reservation from every channel on its
// path.
func releaseAttempt(a *routing.Attempt) {
	for _, c := range a.Path {
		c.Release(a.Amount)
	}
}

// PickhardtPay drives the full min-cost-flow payment loop described by
// spec.md's session algorithm: plan a multi-path flow at the current belief,
// allocate and probe every candidate attempt against the oracle, learn from
// every outcome, and repeat against the shrinking residual amount until it
// reaches zero, the round cap is hit, or the best remaining attempt's
// probability falls below PMin. Returns the Payment whether or not delivery
// fully completed; callers should inspect GetSummary().ResidualAmount.
func (s *PaymentSession) PickhardtPay(src, dest string, amount int64, mu float64, baseThreshold int64) (*Payment, error) {
	p := New(s.UncertaintyNetwork, s.OracleNetwork, src, dest, amount, mu, baseThreshold)
	planner := routing.NewMCFPlanner(s.UncertaintyNetwork, s.nPieces(), s.costScale())

	belowFloor := false
	for p.ResidualAmount() > 0 && p.PickhardtPaymentRounds < s.roundCap() && !belowFloor {
		p.IncrementPickhardtPaymentRounds()

		attempts, err := planner.Plan(src, dest, p.ResidualAmount(), mu)
		if err != nil {
			log.Debugf("pickhardt_pay: round %d planning failed: %v", p.PickhardtPaymentRounds, err)
			break
		}
		if len(attempts) == 0 {
			break
		}

		bestProbability := 0.0
		for _, a := range attempts {
			if prob := a.Probability(); prob > bestProbability {
				bestProbability = prob
			}
		}

		for i, a := range attempts {
			if err := allocateAttempt(a); err != nil {
				a.Status = routing.Failed
				continue
			}

			result := s.OracleNetwork.SendOnion(oracleHops(a))
			if result.Accepted {
				a.Status = routing.InFlight
				// Allocate already folded this amount into every hop's
				// in_flight; learning with amount=0 reads that reservation
				// back out as the new floor instead of double-counting it.
				s.UncertaintyNetwork.LearnFromPathSuccess(a.Hops(), 0)
				continue
			}

			failedChannel := a.Path[result.RejectedIndex]
			failedChannel.LearnFromFailureAt(0)
			for j := 0; j < result.RejectedIndex; j++ {
				a.Path[j].LearnFromSuccessOn(0)
			}
			releaseAttempt(a)
			a.Status = routing.Failed

			// The rest of this round's attempts were planned against a
			// flow that assumed this hop would carry its share; once it
			// hasn't, re-plan from scratch next round rather than keep
			// sending attempts built on stale capacity.
			for _, remaining := range attempts[i+1:] {
				remaining.Status = routing.Failed
			}
			p.Attempts = append(p.Attempts, attempts[:i+1]...)
			attempts = nil
			break
		}

		if attempts != nil {
			p.Attempts = append(p.Attempts, attempts...)
		}

		// This round always runs in full regardless of bestProbability;
		// the floor only gates whether a further round is allowed to
		// start, matching the original session's attempt-then-check order.
		if bestProbability < s.pMin() {
			log.Debugf("pickhardt_pay: round %d best attempt probability %.6f below floor %.6f, no further rounds",
				p.PickhardtPaymentRounds, bestProbability, s.pMin())
			belowFloor = true
		}
	}

	if p.ResidualAmount() == 0 {
		if err := p.Execute(); err != nil {
			return p, err
		}
	} else {
		cleanupInFlight(p)
	}

	return p, nil
}

// cleanupInFlight releases every still-INFLIGHT attempt's reservation when a
// payment terminates without fully delivering: those amounts were accepted
// by the oracle but will never be settled, so the in-flight counters of both
// the uncertainty and the oracle network must be unwound or they would leak
// capacity forever.
func cleanupInFlight(p *Payment) {
	for _, a := range p.Attempts {
		if a.Status == routing.InFlight {
			releaseAttempt(a)
			p.oracleNetwork.ReleaseInFlight(oracleHops(a))
			a.Status = routing.Failed
		}
	}
}

func (s *PaymentSession) nPieces() int {
	if s.NPieces > 0 {
		return s.NPieces
	}
	return 5
}

func (s *PaymentSession) costScale() int64 {
	if s.CostScale > 0 {
		return s.CostScale
	}
	return 1_000_000_000
}

// DijkstraPay runs the single-path baseline: one shortest path under
// criterion, probed once against the oracle with no retry or learning loop.
// Kept alongside PickhardtPay as the "classic" comparison spec.md's external
// interface exposes.
func (s *PaymentSession) DijkstraPay(src, dest string, amount int64, criterion routing.Criterion, baseThreshold int64) (*Payment, error) {
	p := New(s.UncertaintyNetwork, s.OracleNetwork, src, dest, amount, 0, baseThreshold)
	p.IncrementPickhardtPaymentRounds()

	attempt, err := routing.DijkstraPath(s.UncertaintyNetwork, src, dest, amount, criterion, baseThreshold)
	if err != nil {
		return p, err
	}
	if attempt == nil {
		return p, nil
	}

	if err := allocateAttempt(attempt); err != nil {
		attempt.Status = routing.Failed
		p.Attempts = append(p.Attempts, attempt)
		return p, nil
	}

	result := s.OracleNetwork.SendOnion(oracleHops(attempt))
	if !result.Accepted {
		attempt.Path[result.RejectedIndex].LearnFromFailureAt(0)
		for j := 0; j < result.RejectedIndex; j++ {
			attempt.Path[j].LearnFromSuccessOn(0)
		}
		releaseAttempt(attempt)
		attempt.Status = routing.Failed
		p.Attempts = append(p.Attempts, attempt)
		return p, nil
	}

	attempt.Status = routing.InFlight
	s.UncertaintyNetwork.LearnFromPathSuccess(attempt.Hops(), 0)
	p.Attempts = append(p.Attempts, attempt)

	if err := p.Execute(); err != nil {
		return p, err
	}
	return p, nil
}

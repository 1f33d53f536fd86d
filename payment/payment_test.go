package payment

import (
	"testing"

	"github.com/sebulino/pickhardtpay/channeldb"
	"github.com/sebulino/pickhardtpay/oracle"
	"github.com/sebulino/pickhardtpay/routing"
	"github.com/sebulino/pickhardtpay/uncertainty"
)

func addPair(t *testing.T, g *channeldb.Graph, src, dest, scid string, cap, ppm int64) {
	t.Helper()
	if err := g.AddChannel(&channeldb.Channel{Src: src, Dest: dest, ShortChannelID: scid, Capacity: cap, PPM: ppm}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.AddChannel(&channeldb.Channel{Src: dest, Dest: src, ShortChannelID: scid, Capacity: cap, PPM: ppm}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResidualAmountAccountsOnlyInFlightAndSettled(t *testing.T) {
	g := channeldb.NewGraph()
	addPair(t, g, "A", "B", "1x1", 100_000, 10)
	un := uncertainty.NewNetwork(g)
	on := oracle.NewNetwork(g, oracle.FixedSplitLiquidity{})

	p := New(un, on, "A", "B", 10_000, 0, 0)
	p.Attempts = append(p.Attempts,
		&routing.Attempt{Amount: 3000, Status: routing.Planned},
		&routing.Attempt{Amount: 4000, Status: routing.InFlight},
		&routing.Attempt{Amount: 1000, Status: routing.Failed},
	)

	if got := p.ResidualAmount(); got != 6000 {
		t.Fatalf("ResidualAmount() = %d, want 6000 (planned and failed attempts don't count)", got)
	}
}

func TestExecuteRejectsNonzeroResidual(t *testing.T) {
	g := channeldb.NewGraph()
	addPair(t, g, "A", "B", "1x1", 100_000, 10)
	un := uncertainty.NewNetwork(g)
	on := oracle.NewNetwork(g, oracle.FixedSplitLiquidity{})

	p := New(un, on, "A", "B", 10_000, 0, 0)
	if err := p.Execute(); err == nil {
		t.Fatalf("expected Execute to reject a nonzero residual")
	}
}

func TestExecuteSettlesInFlightAttempts(t *testing.T) {
	g := channeldb.NewGraph()
	addPair(t, g, "A", "B", "1x1", 100_000, 10)
	un := uncertainty.NewNetwork(g)
	on := oracle.NewNetwork(g, oracle.FixedSplitLiquidity{})

	ab := un.GetChannel("A", "B", "1x1")
	if err := ab.Allocate(10_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	onAB := on.GetChannel("A", "B", "1x1")
	onAB.InFlight = 10_000

	attempt := &routing.Attempt{Path: []*uncertainty.Channel{ab}, Amount: 10_000, Status: routing.InFlight}
	p := New(un, on, "A", "B", 10_000, 0, 0)
	p.Attempts = append(p.Attempts, attempt)

	if err := p.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.Status != routing.Settled {
		t.Fatalf("attempt status = %v, want SETTLED", attempt.Status)
	}
	if onAB.ActualLiquidity != 50_000-10_000 {
		t.Fatalf("oracle A->B liquidity = %d, want %d", onAB.ActualLiquidity, 50_000-10_000)
	}
	if onAB.InFlight != 0 {
		t.Fatalf("oracle A->B in-flight = %d, want 0 after settle", onAB.InFlight)
	}
}

func TestGetSummaryCountsFeesOnlyOverSettled(t *testing.T) {
	g := channeldb.NewGraph()
	addPair(t, g, "A", "B", "1x1", 100_000, 100)
	un := uncertainty.NewNetwork(g)
	on := oracle.NewNetwork(g, oracle.FixedSplitLiquidity{})

	ab := un.GetChannel("A", "B", "1x1")
	settled := &routing.Attempt{Path: []*uncertainty.Channel{ab}, Amount: 10_000, Status: routing.Settled}
	failed := &routing.Attempt{Path: []*uncertainty.Channel{ab}, Amount: 5_000, Status: routing.Failed}

	p := New(un, on, "A", "B", 10_000, 0, 0)
	p.Attempts = append(p.Attempts, settled, failed)

	summary := p.GetSummary()
	if summary.Settled != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected status counts: %+v", summary)
	}
	if summary.FeesPaid != settled.RoutingFee() {
		t.Fatalf("FeesPaid = %d, want %d (failed attempt's fee must not count)", summary.FeesPaid, settled.RoutingFee())
	}
}

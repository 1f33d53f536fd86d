package routing

import (
	"testing"

	"github.com/sebulino/pickhardtpay/channeldb"
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

func TestPlanDirectPathDeliversFullAmount(t *testing.T) {
	g := channeldb.NewGraph()
	addPair(t, g, "A", "B", "1x1", 1_000_000, 100)
	network := uncertainty.NewNetwork(g)

	planner := NewMCFPlanner(network, 5, 1_000_000_000)
	attempts, err := planner.Plan("A", "B", 50_000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var total int64
	for _, a := range attempts {
		total += a.Amount
	}
	if total != 50_000 {
		t.Fatalf("total decomposed amount = %d, want 50000", total)
	}
}

func TestPlanSplitsAcrossParallelPaths(t *testing.T) {
	g := channeldb.NewGraph()
	addPair(t, g, "A", "B", "1x1", 30_000, 10)
	addPair(t, g, "A", "C", "2x1", 30_000, 10)
	addPair(t, g, "C", "B", "3x1", 30_000, 10)
	network := uncertainty.NewNetwork(g)

	planner := NewMCFPlanner(network, 5, 1_000_000_000)
	attempts, err := planner.Plan("A", "B", 50_000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) < 2 {
		t.Fatalf("expected the payment to split across at least 2 paths, got %d", len(attempts))
	}

	var total int64
	for _, a := range attempts {
		if a.Amount > 30_000 {
			t.Fatalf("attempt amount %d exceeds per-channel capacity", a.Amount)
		}
		total += a.Amount
	}
	if total != 50_000 {
		t.Fatalf("total decomposed amount = %d, want 50000", total)
	}
}

func TestPlanInfeasibleReturnsMCFSolverError(t *testing.T) {
	g := channeldb.NewGraph()
	addPair(t, g, "A", "B", "1x1", 1000, 10)
	network := uncertainty.NewNetwork(g)

	planner := NewMCFPlanner(network, 5, 1_000_000_000)
	_, err := planner.Plan("A", "B", 5000, 0)
	if err == nil {
		t.Fatalf("expected infeasibility error")
	}
}

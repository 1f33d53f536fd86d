package routing

import (
	"testing"

	"github.com/sebulino/pickhardtpay/channeldb"
	"github.com/sebulino/pickhardtpay/uncertainty"
)

func TestDijkstraPathFeeCriterionPrefersCheaperRoute(t *testing.T) {
	g := channeldb.NewGraph()
	addPair(t, g, "A", "B", "1x1", 100_000, 1000) // expensive direct
	addPair(t, g, "A", "C", "2x1", 100_000, 10)
	addPair(t, g, "C", "B", "3x1", 100_000, 10)
	network := uncertainty.NewNetwork(g)

	attempt, err := DijkstraPath(network, "A", "B", 10_000, CriterionFee, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt == nil {
		t.Fatalf("expected a path")
	}
	if attempt.PathLength() != 2 {
		t.Fatalf("expected the cheaper 2-hop path, got %d hops", attempt.PathLength())
	}
}

func TestDijkstraPathExcludesUndersizedChannels(t *testing.T) {
	g := channeldb.NewGraph()
	addPair(t, g, "A", "B", "1x1", 5000, 10)
	network := uncertainty.NewNetwork(g)

	attempt, err := DijkstraPath(network, "A", "B", 10_000, CriterionProbability, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt != nil {
		t.Fatalf("expected no path since capacity <= amount")
	}
}

func TestDijkstraPathReturnsNilWhenUnreachable(t *testing.T) {
	g := channeldb.NewGraph()
	addPair(t, g, "A", "B", "1x1", 100_000, 10)
	network := uncertainty.NewNetwork(g)

	attempt, err := DijkstraPath(network, "A", "Z", 1000, CriterionMixed, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt != nil {
		t.Fatalf("expected nil attempt for unreachable destination")
	}
}

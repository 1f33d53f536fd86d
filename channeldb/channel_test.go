package channeldb

import "testing"

func chan1(src, dest, scid string, cap, ppm, base int64) *Channel {
	return &Channel{
		Src: src, Dest: dest, ShortChannelID: scid,
		Capacity: cap, PPM: ppm, BaseFeeMilliSat: base,
	}
}

func TestAddChannelRejectsDuplicate(t *testing.T) {
	g := NewGraph()
	if err := g.AddChannel(chan1("A", "B", "1x1", 1_000_000, 100, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.AddChannel(chan1("A", "B", "1x1", 1_000_000, 100, 0)); err == nil {
		t.Fatalf("expected duplicate channel to be rejected")
	}
}

func TestAddChannelRejectsNonPositiveCapacity(t *testing.T) {
	g := NewGraph()
	if err := g.AddChannel(chan1("A", "B", "1x1", 0, 100, 0)); err == nil {
		t.Fatalf("expected non-positive capacity to be rejected")
	}
}

func TestOutgoingEdgesDeterministicOrder(t *testing.T) {
	g := NewGraph()
	must(t, g.AddChannel(chan1("A", "B", "2x1", 1000, 10, 0)))
	must(t, g.AddChannel(chan1("A", "C", "1x1", 1000, 10, 0)))
	must(t, g.AddChannel(chan1("A", "D", "3x1", 1000, 10, 0)))

	edges := g.OutgoingEdges("A")
	want := []string{"1x1", "2x1", "3x1"}
	if len(edges) != len(want) {
		t.Fatalf("got %d edges, want %d", len(edges), len(want))
	}
	for i, e := range edges {
		if e.ShortChannelID != want[i] {
			t.Fatalf("edge %d: got %s, want %s", i, e.ShortChannelID, want[i])
		}
	}
}

func TestPruneUnpairedDropsOneDirectional(t *testing.T) {
	g := NewGraph()
	must(t, g.AddChannel(chan1("A", "B", "1x1", 1000, 10, 0)))
	must(t, g.AddChannel(chan1("B", "A", "1x1", 1000, 10, 0)))
	// C->D has no return.
	must(t, g.AddChannel(chan1("C", "D", "2x1", 500, 10, 0)))

	dropped := g.PruneUnpaired()
	if len(dropped) != 1 {
		t.Fatalf("expected 1 dropped channel, got %d", len(dropped))
	}
	if dropped[0].Channel.ShortChannelID != "2x1" {
		t.Fatalf("unexpected channel dropped: %v", dropped[0].Channel)
	}
	if g.GetChannel("A", "B", "1x1") == nil {
		t.Fatalf("paired channel should survive pruning")
	}
	if g.GetChannel("C", "D", "2x1") != nil {
		t.Fatalf("unpaired channel should have been removed")
	}
}

func TestPruneUnpairedRequiresMatchingCapacity(t *testing.T) {
	g := NewGraph()
	must(t, g.AddChannel(chan1("A", "B", "1x1", 1000, 10, 0)))
	must(t, g.AddChannel(chan1("B", "A", "1x1", 2000, 10, 0)))

	dropped := g.PruneUnpaired()
	if len(dropped) != 2 {
		t.Fatalf("expected both mismatched-capacity sides dropped, got %d", len(dropped))
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

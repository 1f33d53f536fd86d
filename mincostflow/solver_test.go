package mincostflow

import "testing"

func TestSolveSingleArc(t *testing.T) {
	g := NewGraph(2)
	a := g.AddArc(0, 1, 100, 5)

	res, err := g.Solve(0, 1, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Flow != 60 {
		t.Fatalf("flow = %d, want 60", res.Flow)
	}
	if res.Cost != 300 {
		t.Fatalf("cost = %d, want 300", res.Cost)
	}
	if res.ArcFlow(a) != 60 {
		t.Fatalf("arc flow = %d, want 60", res.ArcFlow(a))
	}
}

func TestSolvePrefersCheaperParallelPath(t *testing.T) {
	g := NewGraph(4)
	// 0->1->3 expensive direct-ish path, 0->2->3 cheap path.
	cheap1 := g.AddArc(0, 2, 50, 1)
	cheap2 := g.AddArc(2, 3, 50, 1)
	expensive1 := g.AddArc(0, 1, 50, 10)
	expensive2 := g.AddArc(1, 3, 50, 10)

	res, err := g.Solve(0, 3, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Flow != 80 {
		t.Fatalf("flow = %d, want 80", res.Flow)
	}
	// Cheap path should be saturated (50) before the expensive one is used (30).
	if res.ArcFlow(cheap1) != 50 || res.ArcFlow(cheap2) != 50 {
		t.Fatalf("expected cheap path saturated, got %d/%d", res.ArcFlow(cheap1), res.ArcFlow(cheap2))
	}
	if res.ArcFlow(expensive1) != 30 || res.ArcFlow(expensive2) != 30 {
		t.Fatalf("expected 30 over expensive path, got %d/%d", res.ArcFlow(expensive1), res.ArcFlow(expensive2))
	}
}

func TestSolveInfeasibleReturnsError(t *testing.T) {
	g := NewGraph(2)
	g.AddArc(0, 1, 10, 1)

	_, err := g.Solve(0, 1, 50)
	if err == nil {
		t.Fatalf("expected infeasibility error")
	}
}

func TestSolveSplitsAcrossParallelArcsOfEqualCost(t *testing.T) {
	g := NewGraph(2)
	a1 := g.AddArc(0, 1, 30, 2)
	a2 := g.AddArc(0, 1, 30, 2)

	res, err := g.Solve(0, 1, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ArcFlow(a1)+res.ArcFlow(a2) != 50 {
		t.Fatalf("total flow across parallel arcs = %d, want 50", res.ArcFlow(a1)+res.ArcFlow(a2))
	}
}

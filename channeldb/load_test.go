package channeldb

import "testing"

func TestLoadGraphInsertsValidRecords(t *testing.T) {
	records := []ChannelRecord{
		{Src: "A", Dest: "B", ShortChannelID: "1x1", Capacity: 1000, PPM: 10},
		{Src: "B", Dest: "A", ShortChannelID: "1x1", Capacity: 1000, PPM: 10},
	}

	g, err := LoadGraph(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Edges()) != 2 {
		t.Fatalf("got %d edges, want 2", len(g.Edges()))
	}
}

func TestLoadGraphRejectsInvalidRecord(t *testing.T) {
	records := []ChannelRecord{
		{Src: "A", Dest: "B", ShortChannelID: "1x1", Capacity: -5, PPM: 10},
	}

	if _, err := LoadGraph(records); err == nil {
		t.Fatalf("expected an error for a non-positive capacity record")
	}
}

func TestLoadGraphRejectsDuplicateRecord(t *testing.T) {
	records := []ChannelRecord{
		{Src: "A", Dest: "B", ShortChannelID: "1x1", Capacity: 1000, PPM: 10},
		{Src: "A", Dest: "B", ShortChannelID: "1x1", Capacity: 1000, PPM: 10},
	}

	if _, err := LoadGraph(records); err == nil {
		t.Fatalf("expected an error for a duplicate channel")
	}
}

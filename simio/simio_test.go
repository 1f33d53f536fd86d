package simio

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoadChannelGraphDropsUnpairedChannel(t *testing.T) {
	doc := `{"channels": [
		{"source": "A", "destination": "B", "short_channel_id": "1x1", "satoshis": 1000, "base_fee_millisatoshi": 1000, "fee_per_millionth": 10},
		{"source": "B", "destination": "A", "short_channel_id": "1x1", "satoshis": 1000, "base_fee_millisatoshi": 1000, "fee_per_millionth": 10},
		{"source": "A", "destination": "C", "short_channel_id": "2x1", "satoshis": 2000, "base_fee_millisatoshi": 0, "fee_per_millionth": 5}
	]}`

	graph, dropped, err := LoadChannelGraph(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dropped) != 1 {
		t.Fatalf("got %d dropped channels, want 1", len(dropped))
	}
	if len(graph.Edges()) != 2 {
		t.Fatalf("got %d surviving edges, want 2", len(graph.Edges()))
	}
}

func TestReadPaymentsSkipsBlankLines(t *testing.T) {
	input := "{\"sender\":\"A\",\"receiver\":\"B\",\"amount\":1000}\n\n{\"sender\":\"B\",\"receiver\":\"C\",\"amount\":2000}\n"

	records, err := ReadPayments(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[1].Amount != 2000 {
		t.Fatalf("records[1].Amount = %d, want 2000", records[1].Amount)
	}
}

func TestReadPaymentsRejectsMalformedLine(t *testing.T) {
	if _, err := ReadPayments(strings.NewReader("not json\n")); err == nil {
		t.Fatalf("expected an error for a malformed line")
	}
}

func TestWriteResultEmitsOneLineOfJSON(t *testing.T) {
	var buf bytes.Buffer
	rec := ResultRecord{
		Sender: "A", Receiver: "B", Amount: 1000,
		DeliveryMethod: DeliveryPickhardtPayMixed,
		Fees:           5,
		ResidualAmount: 0,
		Success:        OutcomeSuccess,
	}
	if err := WriteResult(&buf, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Fatalf("expected exactly one newline, got %d", got)
	}
	if !strings.Contains(buf.String(), `"delivery_method":"pickhardt_pay_mixed"`) {
		t.Fatalf("output missing delivery_method field: %s", buf.String())
	}
}

func TestClassifyOutcome(t *testing.T) {
	cases := []struct {
		requested, residual int64
		everInFlight        bool
		want                Outcome
	}{
		{1000, 0, true, OutcomeSuccess},
		{1000, 1000, false, OutcomeNoPathFound},
		{1000, 400, true, OutcomeDeliveryFailed},
	}
	for _, c := range cases {
		if got := ClassifyOutcome(c.requested, c.residual, c.everInFlight); got != c.want {
			t.Fatalf("ClassifyOutcome(%d,%d,%v) = %v, want %v", c.requested, c.residual, c.everInFlight, got, c.want)
		}
	}
}

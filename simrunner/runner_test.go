package simrunner

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebulino/pickhardtpay/simconfig"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestRunWritesOneResultPerPayment(t *testing.T) {
	dir := t.TempDir()

	graph := `{"channels": [
		{"source": "A", "destination": "B", "short_channel_id": "1x1", "satoshis": 1000000, "base_fee_millisatoshi": 1000, "fee_per_millionth": 10},
		{"source": "B", "destination": "A", "short_channel_id": "1x1", "satoshis": 1000000, "base_fee_millisatoshi": 1000, "fee_per_millionth": 10}
	]}`
	payments := `{"sender":"A","receiver":"B","amount":10000}
{"sender":"A","receiver":"B","amount":20000}
`

	cfg := simconfig.DefaultConfig()
	cfg.GraphFile = writeTempFile(t, dir, "graph.json", graph)
	cfg.PaymentsFile = writeTempFile(t, dir, "payments.ndjson", payments)

	var out bytes.Buffer
	if err := Run(cfg, MethodPickhardtMixed, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d result lines, want 2: %q", len(lines), out.String())
	}
	for _, l := range lines {
		if !strings.Contains(l, `"success":"success"`) {
			t.Fatalf("expected a successful delivery on ample capacity, got %s", l)
		}
	}
}

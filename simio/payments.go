package simio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/go-errors/errors"
)

// PaymentRecord is one line of the ndjson payment set input: a single
// sender/receiver/amount triple to run through a PaymentSession.
type PaymentRecord struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Amount   int64  `json:"amount"`
}

// ReadPayments scans r line by line and decodes each non-blank line as a
// PaymentRecord. No third-party ndjson library appears anywhere in the
// retrieval pack, so this is read with bufio.Scanner and encoding/json
// directly rather than reaching for an external dependency that has no
// precedent here.
func ReadPayments(r io.Reader) ([]PaymentRecord, error) {
	var records []PaymentRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec PaymentRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, errors.Errorf("simio: payment set line %d: %v", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapPrefix(err, "simio: reading payment set", 0)
	}

	return records, nil
}


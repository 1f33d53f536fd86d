// Package simio implements the simulator's on-disk surface: decoding a
// channel graph and a payment set, and encoding result records, exactly as
// spec.md §6 describes them. It holds no policy of its own — callers decide
// what to do with dropped channels or parse errors.
package simio

import (
	"encoding/json"
	"io"

	"github.com/go-errors/errors"

	"github.com/sebulino/pickhardtpay/channeldb"
)

// channelGraphDocument is the on-the-wire shape of the channel graph input
// file: a single JSON document wrapping an array of directed channel
// records.
type channelGraphDocument struct {
	Channels []channelRecordJSON `json:"channels"`
}

type channelRecordJSON struct {
	Source             string `json:"source"`
	Destination        string `json:"destination"`
	ShortChannelID     string `json:"short_channel_id"`
	Satoshis           int64  `json:"satoshis"`
	BaseFeeMillisatoshi int64  `json:"base_fee_millisatoshi"`
	FeePerMillionth    int64  `json:"fee_per_millionth"`
}

// LoadChannelGraph decodes a channel graph document from r, validates and
// inserts every directed record into a channeldb.Graph, and drops any
// channel lacking a matching return channel (same short_channel_id and
// capacity), returning the survivors plus the dropped list for the caller
// to log. It never logs itself, matching how channeldb's own loader
// returns errors rather than writing to a logger.
func LoadChannelGraph(r io.Reader) (*channeldb.Graph, []channeldb.DroppedChannel, error) {
	var doc channelGraphDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, errors.WrapPrefix(err, "simio: decoding channel graph", 0)
	}

	records := make([]channeldb.ChannelRecord, len(doc.Channels))
	for i, c := range doc.Channels {
		records[i] = channeldb.ChannelRecord{
			Src:             c.Source,
			Dest:            c.Destination,
			ShortChannelID:  c.ShortChannelID,
			Capacity:        c.Satoshis,
			PPM:             c.FeePerMillionth,
			BaseFeeMilliSat: c.BaseFeeMillisatoshi,
		}
	}

	graph, err := channeldb.LoadGraph(records)
	if err != nil {
		return nil, nil, err
	}

	dropped := graph.PruneUnpaired()
	return graph, dropped, nil
}

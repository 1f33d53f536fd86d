package channeldb

import (
	"golang.org/x/sync/errgroup"
)

// maxValidationWorkers bounds how many channel records are validated
// concurrently by LoadGraph. Validation is pure CPU work over a record
// slice, so there is no benefit to unbounded fan-out on a large graph file.
const maxValidationWorkers = 8

// ChannelRecord is the on-the-wire shape of one channel graph entry, as
// decoded from the simulator's input file by package simio. It is kept
// separate from Channel so this package's core type stays free of
// encoding-tag churn.
type ChannelRecord struct {
	Src             string
	Dest            string
	ShortChannelID  string
	Capacity        int64
	PPM             int64
	BaseFeeMilliSat int64
}

func (r ChannelRecord) toChannel() *Channel {
	return &Channel{
		Src:             r.Src,
		Dest:            r.Dest,
		ShortChannelID:  r.ShortChannelID,
		Capacity:        r.Capacity,
		PPM:             r.PPM,
		BaseFeeMilliSat: r.BaseFeeMilliSat,
	}
}

// LoadGraph validates every record in records concurrently (bounded by
// maxValidationWorkers, since construction itself is inherently sequential
// once validateChannel has passed) and, if every one is well-formed,
// inserts them all into a fresh Graph in input order. The first validation
// failure encountered aborts the whole load; partial graphs are never
// returned.
func LoadGraph(records []ChannelRecord) (*Graph, error) {
	channels := make([]*Channel, len(records))
	for i, r := range records {
		channels[i] = r.toChannel()
	}

	var g errgroup.Group
	sem := make(chan struct{}, maxValidationWorkers)
	for _, c := range channels {
		c := c
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			return validateChannel(c)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	graph := NewGraph()
	for _, c := range channels {
		if err := graph.AddChannel(c); err != nil {
			return nil, err
		}
	}
	return graph, nil
}

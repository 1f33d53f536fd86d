package channeldb

import "github.com/btcsuite/btclog"

// log is the package-wide logger, disabled until UseLogger is called by the
// CLI entry point.
var log = btclog.Disabled

// UseLogger assigns the subsystem logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}

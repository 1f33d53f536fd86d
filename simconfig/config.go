// Package simconfig defines the simulator's command-line/config-file
// surface: everything that tunes a PickhardtPay session without touching
// code, parsed with jessevdk/go-flags the way the teacher's cmd/lnd entry
// point parses its own.
package simconfig

import (
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/btcsuite/btcutil"
	"github.com/go-errors/errors"
)

const (
	defaultRoundCap        = 10
	defaultPMin            = 0.1
	defaultNPieces         = 5
	defaultCostScale       = 1_000_000_000
	defaultPruneProbFloor  = 1e-6
	defaultMuFeeWeighted   = 1000
	defaultMuProbWeighted  = 0
	defaultMuBalanced      = 500
	defaultLogLevel        = "info"
	defaultLogFilename     = "pickhardtsim.log"
	defaultMaxLogFiles     = 3
	appName                = "pickhardtsim"
)

// DefaultDataDir is the simulator's default data directory, resolved the
// same way the teacher resolves lnd's: per-OS application data folder.
var DefaultDataDir = btcutil.AppDataDir(appName, false)

// ErrInvalidLogLevel is returned by ParseLogLevel for a string that isn't a
// recognized btclog level name.
var ErrInvalidLogLevel = errors.New("simconfig: invalid log level")

// Config holds every tunable of a pickhardtsim run: the simulation
// constants from spec.md's glossary, plus the ambient logging and I/O
// options every subcommand shares.
type Config struct {
	DataDir string `short:"b" long:"datadir" description:"directory to store simulator output in"`
	LogDir  string `long:"logdir" description:"directory to log output to"`

	DebugLevel string `long:"debuglevel" description:"logging level for all subsystems {trace, debug, info, warn, error, critical}"`

	RoundCap       int     `long:"roundcap" description:"maximum number of planning rounds PickhardtPay attempts per payment"`
	PMin           float64 `long:"pmin" description:"probability floor below which a payment is abandoned"`
	NPieces        int     `long:"npieces" description:"number of linear pieces used to approximate each channel's convex cost curve"`
	CostScale      int64   `long:"costscale" description:"integer scale factor applied to piecewise-linear arc costs before min-cost-flow solving"`
	PruneProbFloor float64 `long:"pruneprobfloor" description:"probability floor below which a channel is excluded from planning"`

	MuFeeWeighted  float64 `long:"mu-fee-weighted" description:"mu value biasing the cost function toward routing fees"`
	MuProbWeighted float64 `long:"mu-prob-weighted" description:"mu value biasing the cost function toward delivery probability"`
	MuBalanced     float64 `long:"mu-balanced" description:"mu value balancing fees and delivery probability"`

	GraphFile    string `short:"g" long:"graphfile" description:"path to the channel graph JSON file to load"`
	PaymentsFile string `short:"p" long:"paymentsfile" description:"path to the ndjson file of payments to run"`
	ResultsFile  string `short:"o" long:"resultsfile" description:"path to write ndjson result records to"`

	Seed int64 `long:"seed" description:"seed for the random number generator backing uncertain liquidity sampling"`
}

// DefaultConfig returns a Config populated with the reference simulator's
// constants, ready to be overridden by flags or a config file.
func DefaultConfig() *Config {
	return &Config{
		DataDir:        DefaultDataDir,
		LogDir:         filepath.Join(DefaultDataDir, "logs"),
		DebugLevel:     defaultLogLevel,
		RoundCap:       defaultRoundCap,
		PMin:           defaultPMin,
		NPieces:        defaultNPieces,
		CostScale:      defaultCostScale,
		PruneProbFloor: defaultPruneProbFloor,
		MuFeeWeighted:  defaultMuFeeWeighted,
		MuProbWeighted: defaultMuProbWeighted,
		MuBalanced:     defaultMuBalanced,
		ResultsFile:    "results.ndjson",
	}
}

// LogFilename is the basename used under LogDir for the rotating log file.
func (c *Config) LogFilename() string {
	return defaultLogFilename
}

// MaxLogFiles is the number of rolled log files InitLogRotator keeps.
func (c *Config) MaxLogFiles() int {
	return defaultMaxLogFiles
}

var logLevels = map[string]btclog.Level{
	"trace":    btclog.LevelTrace,
	"debug":    btclog.LevelDebug,
	"info":     btclog.LevelInfo,
	"warn":     btclog.LevelWarn,
	"error":    btclog.LevelError,
	"critical": btclog.LevelCritical,
	"off":      btclog.LevelOff,
}

// ParseLogLevel validates and converts a --debuglevel string into a
// btclog.Level, mirroring the level-name table the teacher's log
// subsystem recognizes.
func ParseLogLevel(level string) (btclog.Level, error) {
	if lvl, ok := logLevels[level]; ok {
		return lvl, nil
	}
	return 0, errors.Wrap(ErrInvalidLogLevel, 0)
}

// Validate checks cross-field invariants that a plain flags struct can't
// express on its own.
func (c *Config) Validate() error {
	if c.RoundCap <= 0 {
		return errors.Errorf("simconfig: roundcap must be positive, got %d", c.RoundCap)
	}
	if c.PMin <= 0 || c.PMin > 1 {
		return errors.Errorf("simconfig: pmin must be in (0, 1], got %v", c.PMin)
	}
	if c.NPieces <= 0 {
		return errors.Errorf("simconfig: npieces must be positive, got %d", c.NPieces)
	}
	if c.CostScale <= 0 {
		return errors.Errorf("simconfig: costscale must be positive, got %d", c.CostScale)
	}
	if _, err := ParseLogLevel(c.DebugLevel); err != nil {
		return errors.Errorf("simconfig: %v: %q", ErrInvalidLogLevel, c.DebugLevel)
	}
	return nil
}

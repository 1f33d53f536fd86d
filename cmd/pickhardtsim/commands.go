package main

import (
	"os"

	"github.com/go-errors/errors"
	"github.com/urfave/cli"

	"github.com/sebulino/pickhardtpay/simconfig"
	"github.com/sebulino/pickhardtpay/simrunner"
)

var defaultConfig = simconfig.DefaultConfig()

var globalFlags = []cli.Flag{
	cli.StringFlag{Name: "configfile", Value: "", Usage: "path to an ini-style config file"},
	cli.StringFlag{Name: "graphfile", Value: defaultConfig.GraphFile, Usage: "path to the channel graph JSON file"},
	cli.StringFlag{Name: "paymentsfile", Value: defaultConfig.PaymentsFile, Usage: "path to the ndjson payment set"},
	cli.StringFlag{Name: "resultsfile", Value: defaultConfig.ResultsFile, Usage: "path to write ndjson results to"},
	cli.StringFlag{Name: "logdir", Value: defaultConfig.LogDir, Usage: "directory to write rotated logs to"},
	cli.StringFlag{Name: "debuglevel", Value: defaultConfig.DebugLevel, Usage: "logging level for all subsystems"},
	cli.IntFlag{Name: "roundcap", Value: defaultConfig.RoundCap, Usage: "maximum planning rounds per payment"},
	cli.Float64Flag{Name: "pmin", Value: defaultConfig.PMin, Usage: "probability floor below which a payment is abandoned"},
	cli.IntFlag{Name: "npieces", Value: defaultConfig.NPieces, Usage: "number of piecewise-linear cost segments per channel"},
	cli.Int64Flag{Name: "costscale", Value: defaultConfig.CostScale, Usage: "integer scale factor for piecewise arc costs"},
	cli.Float64Flag{Name: "pruneprobfloor", Value: defaultConfig.PruneProbFloor, Usage: "probability floor below which a channel is excluded from planning"},
	cli.Int64Flag{Name: "seed", Value: 1, Usage: "seed for the random number generator backing uncertain liquidity"},
}

func configFromContext(ctx *cli.Context) (*simconfig.Config, error) {
	cfg := simconfig.DefaultConfig()
	if path := ctx.GlobalString("configfile"); path != "" {
		if err := simconfig.LoadConfigFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.GraphFile = ctx.GlobalString("graphfile")
	cfg.PaymentsFile = ctx.GlobalString("paymentsfile")
	cfg.ResultsFile = ctx.GlobalString("resultsfile")
	cfg.LogDir = ctx.GlobalString("logdir")
	cfg.DebugLevel = ctx.GlobalString("debuglevel")
	cfg.RoundCap = ctx.GlobalInt("roundcap")
	cfg.PMin = ctx.GlobalFloat64("pmin")
	cfg.NPieces = ctx.GlobalInt("npieces")
	cfg.CostScale = ctx.GlobalInt64("costscale")
	cfg.PruneProbFloor = ctx.GlobalFloat64("pruneprobfloor")
	cfg.Seed = ctx.GlobalInt64("seed")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runWithMethod(ctx *cli.Context, method simrunner.Method) error {
	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}

	closeLog, err := simrunner.InitLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	out, err := os.Create(cfg.ResultsFile)
	if err != nil {
		return err
	}
	defer out.Close()

	return simrunner.Run(cfg, method, out)
}

var runCommand = cli.Command{
	Name:  "run",
	Usage: "run a batch of payments through PickhardtPay",
	Description: `
	Loads the channel graph and payment set named by --graphfile and
	--paymentsfile, runs every payment through pickhardt_pay under the
	chosen cost criterion, and writes one ndjson result line per payment
	to --resultsfile.`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "criterion",
			Value: "mixed",
			Usage: "cost criterion: fees, probability, probability-retained, or mixed",
		},
	},
	Action: func(ctx *cli.Context) error {
		switch ctx.String("criterion") {
		case "fees":
			return runWithMethod(ctx, simrunner.MethodPickhardtFees)
		case "probability":
			return runWithMethod(ctx, simrunner.MethodPickhardtProbability)
		case "probability-retained":
			return runWithMethod(ctx, simrunner.MethodPickhardtProbabilityRetained)
		case "mixed":
			return runWithMethod(ctx, simrunner.MethodPickhardtMixed)
		default:
			return errors.Errorf("unknown --criterion %q, want fees, probability, probability-retained, or mixed", ctx.String("criterion"))
		}
	},
}

var dijkstraCommand = cli.Command{
	Name:  "dijkstra",
	Usage: "run a batch of payments through the single-path Dijkstra baseline",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "criterion",
			Value: "mixed",
			Usage: "cost criterion: fees, probability, or mixed",
		},
	},
	Action: func(ctx *cli.Context) error {
		switch ctx.String("criterion") {
		case "fees":
			return runWithMethod(ctx, simrunner.MethodDijkstraFees)
		case "probability":
			return runWithMethod(ctx, simrunner.MethodDijkstraProbability)
		case "mixed":
			return runWithMethod(ctx, simrunner.MethodDijkstraMixed)
		default:
			return errors.Errorf("unknown --criterion %q, want fees, probability, or mixed", ctx.String("criterion"))
		}
	},
}

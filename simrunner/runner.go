// Package simrunner wires simconfig, simio, channeldb, oracle, uncertainty,
// and payment together into one batch run, the way daemon.LndMain wires the
// teacher's subsystems together from a parsed config. It has no CLI
// awareness of its own: cmd/pickhardtsim calls into it.
package simrunner

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/go-errors/errors"

	"github.com/sebulino/pickhardtpay/build"
	"github.com/sebulino/pickhardtpay/channeldb"
	"github.com/sebulino/pickhardtpay/oracle"
	"github.com/sebulino/pickhardtpay/payment"
	"github.com/sebulino/pickhardtpay/routing"
	"github.com/sebulino/pickhardtpay/simconfig"
	"github.com/sebulino/pickhardtpay/simio"
	"github.com/sebulino/pickhardtpay/uncertainty"
)

var log = build.NewSubLogger("SRNR")

func init() {
	channeldbLog := build.NewSubLogger("CHDB")
	channeldb.UseLogger(channeldbLog)
	oracle.UseLogger(build.NewSubLogger("ORCL"))
	uncertainty.UseLogger(build.NewSubLogger("UNCR"))
	routing.UseLogger(build.NewSubLogger("RTNG"))
	payment.UseLogger(build.NewSubLogger("PYMT"))
}

// Method selects which payment algorithm Run applies to every payment in
// the batch.
type Method string

const (
	MethodPickhardtFees        Method = "pickhardt_pay_fees"
	MethodPickhardtProbability Method = "pickhardt_pay_probability"
	MethodPickhardtMixed       Method = "pickhardt_pay_mixed"
	// MethodPickhardtProbabilityRetained is MethodPickhardtProbability
	// without a ForgetInformation reset before the payment: belief learned
	// from earlier payments in the batch carries forward, simulating a
	// payer who remembers what prior sends revealed about the network.
	MethodPickhardtProbabilityRetained Method = "pickhardt_pay_probability_retained"
	MethodDijkstraFees                 Method = "dijkstra_fees"
	MethodDijkstraProbability          Method = "dijkstra_probabilities"
	MethodDijkstraMixed                Method = "dijkstra_mixed"
)

// ErrUnknownMethod is returned by Run for a Method it doesn't recognize.
var ErrUnknownMethod = errors.New("simrunner: unknown delivery method")

// Run loads the channel graph and payment set named in cfg, builds one
// oracle/uncertainty network pair, and drives every payment in the set
// through method sequentially (matching spec.md §5: the session loop is
// single-threaded, and cross-payment ordering is only meaningful when
// serialized like this), writing one ndjson result line per payment to
// resultsWriter.
func Run(cfg *simconfig.Config, method Method, resultsWriter io.Writer) error {
	graphFile, err := os.Open(cfg.GraphFile)
	if err != nil {
		return errors.WrapPrefix(err, "simrunner: opening graph file", 0)
	}
	defer graphFile.Close()

	graph, dropped, err := simio.LoadChannelGraph(graphFile)
	if err != nil {
		return err
	}
	for _, d := range dropped {
		log.Warnf("dropped channel %v: %v", d.Channel, d.Reason)
	}

	paymentsFile, err := os.Open(cfg.PaymentsFile)
	if err != nil {
		return errors.WrapPrefix(err, "simrunner: opening payments file", 0)
	}
	defer paymentsFile.Close()

	payments, err := simio.ReadPayments(paymentsFile)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	oracleNetwork := oracle.NewNetwork(graph, oracle.UniformLiquidity{Rand: rng})
	uncertaintyNetwork := uncertainty.NewNetwork(graph)
	uncertaintyNetwork.PruneProbFloor = cfg.PruneProbFloor

	session := payment.NewPaymentSession(oracleNetwork, uncertaintyNetwork)
	session.RoundCap = cfg.RoundCap
	session.PMin = cfg.PMin
	session.NPieces = cfg.NPieces
	session.CostScale = cfg.CostScale

	for _, pmt := range payments {
		rec, err := runOne(session, cfg, method, pmt)
		if err != nil {
			return err
		}
		if err := simio.WriteResult(resultsWriter, rec); err != nil {
			return errors.WrapPrefix(err, "simrunner: writing result", 0)
		}
	}

	return nil
}

func runOne(session *payment.PaymentSession, cfg *simconfig.Config, method Method, pmt simio.PaymentRecord) (simio.ResultRecord, error) {
	if method != MethodPickhardtProbabilityRetained {
		session.ForgetInformation()
	}

	var (
		p       *payment.Payment
		err     error
		deliver simio.DeliveryMethod
	)

	switch method {
	case MethodPickhardtFees:
		p, err = session.PickhardtPay(pmt.Sender, pmt.Receiver, pmt.Amount, cfg.MuFeeWeighted, 0)
		deliver = simio.DeliveryPickhardtPayFees
	case MethodPickhardtProbability:
		p, err = session.PickhardtPay(pmt.Sender, pmt.Receiver, pmt.Amount, cfg.MuProbWeighted, 0)
		deliver = simio.DeliveryPickhardtPayProbability
	case MethodPickhardtMixed:
		p, err = session.PickhardtPay(pmt.Sender, pmt.Receiver, pmt.Amount, cfg.MuBalanced, 0)
		deliver = simio.DeliveryPickhardtPayMixed
	case MethodPickhardtProbabilityRetained:
		p, err = session.PickhardtPay(pmt.Sender, pmt.Receiver, pmt.Amount, cfg.MuProbWeighted, 0)
		deliver = simio.DeliveryPickhardtPayProbabilityRetained
	case MethodDijkstraFees:
		p, err = session.DijkstraPay(pmt.Sender, pmt.Receiver, pmt.Amount, routing.CriterionFee, 0)
		deliver = simio.DeliveryDijkstraFees
	case MethodDijkstraProbability:
		p, err = session.DijkstraPay(pmt.Sender, pmt.Receiver, pmt.Amount, routing.CriterionProbability, 0)
		deliver = simio.DeliveryDijkstraProbabilities
	case MethodDijkstraMixed:
		p, err = session.DijkstraPay(pmt.Sender, pmt.Receiver, pmt.Amount, routing.CriterionMixed, 0)
		deliver = simio.DeliveryDijkstraMixed
	default:
		return simio.ResultRecord{}, errors.Wrap(ErrUnknownMethod, 0)
	}
	if err != nil {
		return simio.ResultRecord{}, err
	}

	summary := p.GetSummary()
	everInFlight := summary.InFlight > 0 || summary.Settled > 0
	outcome := simio.ClassifyOutcome(pmt.Amount, summary.ResidualAmount, everInFlight)

	return simio.ResultRecord{
		Sender:         pmt.Sender,
		Receiver:       pmt.Receiver,
		Amount:         pmt.Amount,
		DeliveryMethod: deliver,
		Fees:           summary.FeesPaid,
		ResidualAmount: summary.ResidualAmount,
		Success:        outcome,
	}, nil
}

// InitLogging wires up build's rotating log backend and sets the level for
// every subsystem this package initialized loggers for.
func InitLogging(cfg *simconfig.Config) (func() error, error) {
	level, err := simconfig.ParseLogLevel(cfg.DebugLevel)
	if err != nil {
		return nil, err
	}

	logFile := fmt.Sprintf("%s/%s", cfg.LogDir, cfg.LogFilename())
	closer, err := build.InitLogRotator(logFile, cfg.MaxLogFiles())
	if err != nil {
		return nil, errors.WrapPrefix(err, "simrunner: initializing log rotator", 0)
	}

	build.SetLogLevels(level, "SRNR", "CHDB", "ORCL", "UNCR", "RTNG", "PYMT")
	return closer, nil
}

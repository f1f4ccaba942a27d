package runner

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mosaicnetworks/geth-runner/src/common"
	"github.com/mosaicnetworks/geth-runner/src/config"
	"github.com/mosaicnetworks/geth-runner/src/console"
	"github.com/mosaicnetworks/geth-runner/src/node"
	"github.com/sirupsen/logrus"
)

// LoadTestParams ...
type LoadTestParams struct {
	// N is the number of rounds. Each round sends one transaction per node.
	N          int
	TimeLimit  time.Duration
	StartNonce int

	// Payload is the number of random bytes attached to each transaction.
	Payload int
}

// ParamsFromConfig ...
func ParamsFromConfig(c *config.TestConfig) LoadTestParams {
	return LoadTestParams{
		N:          c.N,
		TimeLimit:  c.TimeLimit(),
		StartNonce: c.StartNonce,
		Payload:    c.Payload,
	}
}

// LoadTest drives round-robin transaction submission across the nodes of a
// running cluster and measures the transaction counts they report.
type LoadTest struct {
	nodes  []*node.Node
	params LoadTestParams
	logger *logrus.Entry

	now  func() time.Time
	rand io.Reader
}

// NewLoadTest ...
func NewLoadTest(nodes []*node.Node, params LoadTestParams, logger *logrus.Entry) *LoadTest {
	return &LoadTest{
		nodes:  nodes,
		params: params,
		logger: logger.WithField("phase", "test"),
		now:    time.Now,
		rand:   rand.Reader,
	}
}

// Run measures the counts, sends transactions until the round target or the
// deadline is reached, waits out the rest of the time budget and measures the
// counts again. Cancelling ctx cuts the sending and the wait short; a report
// is still produced.
func (lt *LoadTest) Run(ctx context.Context) (*Report, error) {
	before, err := lt.TxCounts()
	if err != nil {
		return nil, err
	}

	deadline := lt.now().Add(lt.params.TimeLimit)

	lt.logger.WithFields(logrus.Fields{
		"rounds":   lt.params.N,
		"budget":   lt.params.TimeLimit,
		"payload":  lt.params.Payload,
		"start":    lt.params.StartNonce,
		"before":   before,
		"deadline": deadline,
	}).Info("Starting load test")

	rounds, err := lt.SendRoundRobin(ctx, lt.params.N, deadline, lt.params.StartNonce, lt.params.Payload)
	if err != nil {
		return nil, err
	}

	lt.wait(ctx, deadline)

	after, err := lt.TxCounts()
	if err != nil {
		return nil, err
	}

	addrs := make([]string, len(lt.nodes))
	for i, n := range lt.nodes {
		addrs[i] = n.Address
	}

	report := NewReport(addrs, before, after, rounds, rounds*len(lt.nodes), lt.params.TimeLimit)

	lt.logger.WithFields(logrus.Fields{
		"rounds": report.Rounds,
		"sent":   report.Sent,
		"delta":  report.Delta,
		"total":  report.Total,
	}).Info("Load test done")

	return report, nil
}

// TxCounts returns the transaction count each node reports for its own
// account.
func (lt *LoadTest) TxCounts() ([]int, error) {
	counts := make([]int, len(lt.nodes))
	for i, n := range lt.nodes {
		resp, err := n.Exec(console.CmdTxCount)
		if err != nil {
			return nil, err
		}
		c, err := strconv.Atoi(resp)
		if err != nil {
			return nil, common.NewRunErr(n.Name(), common.ValidationError, "tx count",
				fmt.Errorf("unparseable response %q", resp))
		}
		counts[i] = c
	}
	return counts, nil
}

// SendRoundRobin sends up to n rounds with nonces startNonce, startNonce+1...
// In a round, node j sends to node (j+1) mod N, and every node uses the same
// nonce. The deadline and ctx are only checked between rounds. It returns the
// number of completed rounds.
func (lt *LoadTest) SendRoundRobin(ctx context.Context, n int, deadline time.Time, startNonce int, payload int) (int, error) {
	count := len(lt.nodes)
	rounds := 0

	for nonce := startNonce; nonce < startNonce+n; nonce++ {
		if !lt.now().Before(deadline) {
			lt.logger.WithField("rounds", rounds).Info("Deadline reached")
			break
		}
		if ctx.Err() != nil {
			lt.logger.WithField("rounds", rounds).Info("Load test interrupted")
			break
		}

		for j, from := range lt.nodes {
			to := lt.nodes[(j+1)%count]

			data, err := common.RandomHex(lt.rand, payload)
			if err != nil {
				return rounds, err
			}

			resp, err := from.Exec(console.SendTransaction(from.Address, to.Address, nonce, data))
			if err != nil {
				return rounds, err
			}

			lt.logger.WithFields(logrus.Fields{
				"from":  from.ID,
				"to":    to.ID,
				"nonce": nonce,
				"resp":  resp,
			}).Debug("Sent transaction")
		}
		rounds++
	}

	return rounds, nil
}

func (lt *LoadTest) wait(ctx context.Context, deadline time.Time) {
	d := deadline.Sub(lt.now())
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		lt.logger.Info("Wait interrupted")
	}
}

// Package runner orchestrates a cluster run: auxiliary initialization, node
// spawning, peer connection, block production and an optional load test.
//
// A Runner is single-threaded. Phases run strictly in order and nodes are
// visited in ascending id order within a phase.
package runner

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/mosaicnetworks/geth-runner/src/common"
	"github.com/mosaicnetworks/geth-runner/src/config"
	"github.com/mosaicnetworks/geth-runner/src/console"
	"github.com/mosaicnetworks/geth-runner/src/node"
	"github.com/mosaicnetworks/geth-runner/src/topology"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Lifecycle phases, in order.
const (
	PhaseNew      = "new"
	PhaseInit     = "init"
	PhaseSpawn    = "spawn"
	PhaseConnect  = "connect"
	PhaseSeal     = "seal"
	PhaseTest     = "test"
	PhaseIdle     = "idle"
	PhaseShutdown = "shutdown"
	PhaseDone     = "done"
)

// Runner owns the node collection and, through its manager, every spawned
// worker.
type Runner struct {
	conf    *config.Config
	nodes   []*node.Node
	manager *node.Manager
	init    Initializer

	ran   atomic.Bool
	phase atomic.String
	ready chan struct{}

	logger *logrus.Entry
}

// NewRunner validates conf, assigns an account to each node and builds the
// topology. No process is started.
func NewRunner(conf *config.Config, addrs []string, launcher node.Launcher, logger *logrus.Entry) (*Runner, error) {
	return NewRunnerWithRand(conf, addrs, launcher, logger, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewRunnerWithRand is NewRunner with the random source of the topology
// sampler.
func NewRunnerWithRand(conf *config.Config, addrs []string, launcher node.Launcher, logger *logrus.Entry, rng *rand.Rand) (*Runner, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if len(addrs) < conf.Node.Count {
		return nil, common.NewRunErr("runner", common.ConfigError, "assign accounts",
			fmt.Errorf("%d accounts for %d nodes", len(addrs), conf.Node.Count))
	}

	adj, err := topology.Build(&conf.Node, rng)
	if err != nil {
		return nil, err
	}

	nodes := make([]*node.Node, conf.Node.Count)
	for i := range nodes {
		nodes[i] = node.NewNode(i, addrs[i], adj[i])
	}

	r := &Runner{
		conf:    conf,
		nodes:   nodes,
		manager: node.NewManager(&conf.Node, launcher, logger),
		ready:   make(chan struct{}),
		logger:  logger,
	}
	r.phase.Store(PhaseNew)
	if conf.Run.TEE {
		r.init = NewExecInitializer(conf.Run.TEEBin, conf.Run.TEEArgs, logger)
	}

	logger.WithFields(logrus.Fields{
		"nodes":   conf.Node.Count,
		"sealers": conf.Node.SealerCount,
		"edges":   topology.Edges(adj),
		"random":  conf.Node.RandomConnect,
	}).Debug("Topology built")

	return r, nil
}

// Phase returns the current lifecycle phase.
func (r *Runner) Phase() string {
	return r.phase.Load()
}

// SetInitializer replaces the auxiliary initialization step. A nil
// initializer disables it.
func (r *Runner) SetInitializer(i Initializer) {
	r.init = i
}

// Nodes returns the node collection.
func (r *Runner) Nodes() []*node.Node {
	return r.nodes
}

// Ready returns a channel closed once block production has started.
func (r *Runner) Ready() <-chan struct{} {
	return r.ready
}

// Run executes the cluster lifecycle once. With a load test configured it
// returns the test report; otherwise it keeps the cluster up until ctx is
// done and returns a nil report. Spawned workers are shut down before Run
// returns, whatever the outcome.
func (r *Runner) Run(ctx context.Context) (report *Report, err error) {
	if !r.ran.CompareAndSwap(false, true) {
		return nil, common.NewRunErr("runner", common.AlreadyRun, "run", nil)
	}

	defer func() {
		r.setPhase(PhaseShutdown)
		r.logger.WithField("workers", r.manager.Len()).Info("Shutting down")
		if serr := r.manager.Shutdown(r.conf.Run.ShutdownGrace()); serr != nil {
			r.logger.WithError(serr).Error("Shutdown")
			if err == nil {
				err = serr
			}
		}
		r.setPhase(PhaseDone)
	}()

	finished := make(chan struct{})
	defer close(finished)
	go r.killOnCancel(ctx, finished)

	if r.init != nil {
		r.setPhase(PhaseInit)
		if err := r.init.Initialize(ctx); err != nil {
			return nil, err
		}
	}

	if err := r.spawn(); err != nil {
		return nil, err
	}
	if err := r.connect(); err != nil {
		return nil, err
	}
	if err := r.seal(); err != nil {
		return nil, err
	}
	close(r.ready)

	if r.conf.Test.Test {
		r.setPhase(PhaseTest)
		lt := NewLoadTest(r.nodes, ParamsFromConfig(&r.conf.Test), r.logger)
		return lt.Run(ctx)
	}

	r.setPhase(PhaseIdle)
	r.logger.Info("Cluster running")
	<-ctx.Done()

	return nil, nil
}

// killOnCancel kills the workers when Run has not returned within the
// shutdown grace after ctx is done. A worker that never answers would
// otherwise keep Run blocked in a console exchange.
func (r *Runner) killOnCancel(ctx context.Context, finished <-chan struct{}) {
	select {
	case <-finished:
		return
	case <-ctx.Done():
	}

	select {
	case <-finished:
		return
	case <-time.After(r.conf.Run.ShutdownGrace()):
	}

	r.logger.WithField("phase", r.Phase()).Warn("Run did not stop after cancellation, killing workers")
	if err := r.manager.Kill(); err != nil {
		r.logger.WithError(err).Error("Kill workers")
	}
}

func (r *Runner) setPhase(p string) {
	r.phase.Store(p)
}

func (r *Runner) spawn() error {
	r.setPhase(PhaseSpawn)
	r.logger.WithField("count", len(r.nodes)).Info("Spawning nodes")

	for _, n := range r.nodes {
		if err := r.manager.Spawn(n); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) connect() error {
	r.setPhase(PhaseConnect)
	r.logger.Info("Connecting nodes")

	for _, n := range r.nodes {
		for _, p := range n.Peers {
			enode, err := r.nodes[p].Enode()
			if err != nil {
				return err
			}

			resp, err := n.Exec(console.AddPeer(enode))
			if err != nil {
				return err
			}

			r.logger.WithFields(logrus.Fields{
				"node": n.ID,
				"peer": p,
				"resp": resp,
			}).Debug("Added peer")
		}
	}
	return nil
}

// seal starts block production on the first SealerCount nodes and logs what
// they report. Responses are not checked.
func (r *Runner) seal() error {
	r.setPhase(PhaseSeal)
	r.logger.WithField("sealers", r.conf.Node.SealerCount).Info("Starting block production")

	for _, n := range r.nodes[:r.conf.Node.SealerCount] {
		fields := logrus.Fields{"node": n.ID}

		for _, cmd := range []string{
			console.CmdMine,
			console.CmdSigners,
			console.CmdAccount,
			console.CmdPeers,
		} {
			resp, err := n.Exec(cmd)
			if err != nil {
				return err
			}
			fields[cmd] = resp
		}

		r.logger.WithFields(fields).Info("Sealer started")
	}
	return nil
}

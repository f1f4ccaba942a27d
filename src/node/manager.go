package node

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mosaicnetworks/geth-runner/src/accounts"
	"github.com/mosaicnetworks/geth-runner/src/common"
	"github.com/mosaicnetworks/geth-runner/src/config"
	"github.com/mosaicnetworks/geth-runner/src/console"
	"github.com/sirupsen/logrus"
)

type spawned struct {
	node *Node
	proc Process
}

// Manager launches workers, binds them to their Node records and tears them
// down again. Every launched process is tracked, including those whose
// discovery failed, so Shutdown reaches all of them.
type Manager struct {
	conf     *config.NodeConfig
	launcher Launcher
	logger   *logrus.Entry

	mu      sync.Mutex
	spawned []spawned
}

// NewManager ...
func NewManager(conf *config.NodeConfig, launcher Launcher, logger *logrus.Entry) *Manager {
	return &Manager{
		conf:     conf,
		launcher: launcher,
		logger:   logger,
	}
}

// Spawn launches the worker of n, attaches its console, drains the banner and
// discovers the account and the enode. The reported account must be the one
// configured for the node.
func (m *Manager) Spawn(n *Node) error {
	args := NewArgs(n.ID, n.Address, m.conf)

	proc, err := m.launcher.Launch(args)
	if err != nil {
		return common.NewRunErr(n.Name(), common.SpawnError, "launch", err)
	}
	m.mu.Lock()
	m.spawned = append(m.spawned, spawned{node: n, proc: proc})
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"node":    n.ID,
		"pid":     proc.Pid(),
		"datadir": args.DataDir,
		"port":    args.Port,
	}).Debug("Launched worker")

	s := console.NewSession(n.Name(), proc.Stdout(), proc.Stdin(), m.logger)
	if err := n.Attach(s); err != nil {
		return err
	}

	return m.discover(n, s)
}

func (m *Manager) discover(n *Node, s *console.Session) error {
	if _, err := s.ReceiveBanner(); err != nil {
		return err
	}

	account, err := s.SendWithResponse(console.CmdAccount)
	if err != nil {
		return err
	}
	if !accounts.Same(account, n.Address) {
		return common.NewRunErr(n.Name(), common.ValidationError, "discover account",
			fmt.Errorf("worker reports %q, configured %q", account, n.Address))
	}

	enode, err := s.SendWithResponse(console.CmdEnode)
	if err != nil {
		return err
	}
	if err := n.SetEnode(enode); err != nil {
		return err
	}

	m.logger.WithFields(logrus.Fields{
		"node":    n.ID,
		"account": account,
		"enode":   enode,
	}).Info("Node ready")

	return nil
}

// Len returns the number of tracked processes.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spawned)
}

// Kill kills every tracked process without asking it to exit. Their outputs
// close, so a console exchange blocked on a hung worker returns. The
// processes stay tracked and are reaped by Shutdown.
func (m *Manager) Kill() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result *multierror.Error
	for _, sp := range m.spawned {
		if err := sp.proc.Kill(); err != nil {
			result = multierror.Append(result,
				common.NewRunErr(sp.node.Name(), common.SpawnError, "kill", err))
		}
	}
	return result.ErrorOrNil()
}

// Shutdown asks every tracked worker to exit, in reverse launch order, and
// kills those that are still running after grace. Abnormal exit statuses are
// logged, not returned.
func (m *Manager) Shutdown(grace time.Duration) error {
	m.mu.Lock()
	all := m.spawned
	m.spawned = nil
	m.mu.Unlock()

	var result *multierror.Error
	for i := len(all) - 1; i >= 0; i-- {
		if err := m.stop(all[i], grace); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func (m *Manager) stop(sp spawned, grace time.Duration) error {
	logger := m.logger.WithField("node", sp.node.ID)

	if s, err := sp.node.Session(); err == nil {
		if err := s.Send(console.CmdExit); err != nil {
			logger.WithError(err).Debug("Cannot send exit")
		}
	}
	if err := sp.proc.Stdin().Close(); err != nil {
		logger.WithError(err).Debug("Cannot close stdin")
	}

	done := make(chan error, 1)
	go func() {
		done <- sp.proc.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.WithError(err).Warn("Worker exited abnormally")
		} else {
			logger.Debug("Worker exited")
		}
		return nil
	case <-time.After(grace):
	}

	logger.Warn("Worker did not exit in time, killing it")
	if err := sp.proc.Kill(); err != nil {
		return common.NewRunErr(sp.node.Name(), common.SpawnError, "kill", err)
	}
	<-done

	return nil
}

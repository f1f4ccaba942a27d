package runner

import (
	"context"
	"os/exec"
	"strings"

	"github.com/mosaicnetworks/geth-runner/src/common"
	"github.com/sirupsen/logrus"
)

// Initializer prepares the environment before any worker is spawned.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// ExecInitializer runs an external command and waits for it to finish.
type ExecInitializer struct {
	Bin  string
	Args []string

	logger *logrus.Entry
}

// NewExecInitializer ...
func NewExecInitializer(bin string, args []string, logger *logrus.Entry) *ExecInitializer {
	return &ExecInitializer{
		Bin:    bin,
		Args:   args,
		logger: logger.WithField("tee", bin),
	}
}

// Initialize runs the command. A nonzero exit status is a SpawnError.
func (i *ExecInitializer) Initialize(ctx context.Context) error {
	i.logger.WithField("args", strings.Join(i.Args, " ")).Info("Running auxiliary initialization")

	out, err := exec.CommandContext(ctx, i.Bin, i.Args...).CombinedOutput()
	if len(out) > 0 {
		i.logger.WithField("output", strings.TrimSpace(string(out))).Debug("Auxiliary initialization output")
	}
	if err != nil {
		return common.NewRunErr("tee", common.SpawnError, "initialize", err)
	}

	return nil
}

package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mosaicnetworks/geth-runner/src/accounts"
	"github.com/mosaicnetworks/geth-runner/src/node"
	"github.com/mosaicnetworks/geth-runner/src/runner"
	"github.com/mosaicnetworks/geth-runner/src/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//NewRunCmd returns the command that runs a cluster
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the cluster until the load test ends or an interrupt",
		PreRunE: loadConfig,
		RunE:    runCluster,
	}

	AddRunFlags(cmd)

	return cmd
}

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("report", "", "Write the load test report to this JSON file")
	cmd.Flags().String("service", "", "Listen IP:Port of the status API")
}

func runCluster(cmd *cobra.Command, args []string) error {
	logger := conf.Logger()

	addrs, err := accounts.Load(conf.Run.AccountsDir)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"geth":     conf.Bin.GethDir,
		"nodes":    conf.Node.Count,
		"sealers":  conf.Node.SealerCount,
		"dir":      conf.Node.Dir,
		"accounts": len(addrs),
		"test":     conf.Test.Test,
	}).Debug("RUN")

	r, err := runner.NewRunner(conf, addrs, node.NewExecLauncher(conf.Bin.GethDir), logger)
	if err != nil {
		return err
	}

	if conf.Run.Service != "" {
		go service.NewService(conf.Run.Service, r, logger).Serve()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		select {
		case <-r.Ready():
			logger.Info("Cluster ready, press Ctrl-C to stop")
		case <-ctx.Done():
		}
	}()

	report, err := r.Run(ctx)
	if err != nil {
		return err
	}
	if report == nil {
		return nil
	}

	if err := report.Print(os.Stdout); err != nil {
		return err
	}
	if conf.Test.Report != "" {
		if err := report.WriteFile(conf.Test.Report); err != nil {
			return err
		}
		logger.WithField("path", conf.Test.Report).Info("Report written")
	}

	return nil
}

package commands

import (
	"github.com/mosaicnetworks/geth-runner/src/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	conf       *config.Config
	configFile string
	v          = viper.New()
)

//RootCmd is the root command for geth-runner
var RootCmd = &cobra.Command{
	Use:              "geth-runner",
	Short:            "Spawn and drive a local geth clique cluster",
	TraverseChildren: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config.toml", "TOML configuration file")
	RootCmd.PersistentFlags().String("log", config.DefaultLogLevel, "debug, info, warn, error, fatal, panic")
}

//loadConfig binds the flags on top of the configuration file
func loadConfig(cmd *cobra.Command, args []string) error {
	for key, name := range map[string]string{
		"run.log":     "log",
		"test.report": "report",
		"run.service": "service",
	} {
		if err := bindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}

	c, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	conf = c

	conf.Logger().WithField("config", v.ConfigFileUsed()).Debug("Loaded configuration")

	return nil
}

//bindFlag binds f to the viper key. Flags the command does not define are
//skipped.
func bindFlag(key string, f *pflag.Flag) error {
	if f == nil {
		return nil
	}
	return v.BindPFlag(key, f)
}

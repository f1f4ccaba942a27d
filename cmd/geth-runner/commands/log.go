package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var logNode int

//NewLogCmd returns the command that prints the stderr of a node
func NewLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "log",
		Short:   "Show the log of a node",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(conf.Node.LogFile(logNode))
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = io.Copy(os.Stdout, f)
			return err
		},
	}

	AddLogFlags(cmd)

	return cmd
}

//AddLogFlags adds flags to the Log command
func AddLogFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&logNode, "node", 0, "Node index (starts from 0)")
}

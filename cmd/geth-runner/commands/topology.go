package commands

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mosaicnetworks/geth-runner/src/topology"
	"github.com/spf13/cobra"
)

var seed int64

//NewTopologyCmd returns the command that prints the peer graph of the
//configuration
func NewTopologyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "topology",
		Short:   "Print the peer lists the configuration produces",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}

			adj, err := topology.Build(&conf.Node, rand.New(rand.NewSource(seed)))
			if err != nil {
				return err
			}

			fmt.Print(topology.Format(adj))
			fmt.Printf("%d nodes, %d connections\n", len(adj), topology.Edges(adj))

			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed of the random topology")

	return cmd
}

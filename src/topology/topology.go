// Package topology computes the peer adjacency of the cluster.
//
// Adjacency is a slice indexed by node id; entry i lists the ids node i
// connects to. A node never lists itself and every id is in [0, n).
package topology

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mosaicnetworks/geth-runner/src/common"
	"github.com/mosaicnetworks/geth-runner/src/config"
)

// Sample returns k distinct indices drawn from [0, n) without exclude. Every
// k-subset of the candidates is equally likely; the order of the returned
// indices is not uniform.
func Sample(k, n, exclude int, rng *rand.Rand) ([]int, error) {
	if exclude < 0 || exclude >= n {
		return nil, common.NewRunErr("sampler", common.InvalidArgument, "sample",
			fmt.Errorf("exclude=%d outside [0, %d)", exclude, n))
	}
	if k < 0 || k > n-1 {
		return nil, common.NewRunErr("sampler", common.InvalidArgument, "sample",
			fmt.Errorf("k=%d outside [0, %d]", k, n-1))
	}

	pool := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != exclude {
			pool = append(pool, i)
		}
	}

	for i := k; i < len(pool); i++ {
		r := rng.Intn(i + 1)
		if r < k {
			pool[r] = pool[i]
		}
	}

	return pool[:k], nil
}

// Random samples k peers for each of n nodes.
func Random(n, k int, rng *rand.Rand) ([][]int, error) {
	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		peers, err := Sample(k, n, i, rng)
		if err != nil {
			return nil, err
		}
		adj[i] = peers
	}
	return adj, nil
}

// FromMatrix copies a declared adjacency matrix after checking it has n rows
// and that every peer is a valid, non-self index.
func FromMatrix(n int, matrix [][]int) ([][]int, error) {
	if len(matrix) != n {
		return nil, common.NewRunErr("config", common.ConfigError, "node.connection",
			fmt.Errorf("%d rows for %d nodes", len(matrix), n))
	}

	adj := make([][]int, n)
	for i, row := range matrix {
		for _, p := range row {
			if p < 0 || p >= n {
				return nil, common.NewRunErr("config", common.ConfigError, "node.connection",
					fmt.Errorf("node %d: peer %d out of range", i, p))
			}
			if p == i {
				return nil, common.NewRunErr("config", common.ConfigError, "node.connection",
					fmt.Errorf("node %d lists itself", i))
			}
		}
		adj[i] = append([]int{}, row...)
	}
	return adj, nil
}

// Build returns the adjacency described by conf.
func Build(conf *config.NodeConfig, rng *rand.Rand) ([][]int, error) {
	if conf.RandomConnect {
		return Random(conf.Count, conf.PeerCount, rng)
	}
	return FromMatrix(conf.Count, conf.Connection)
}

// Edges returns the number of (node, peer) pairs.
func Edges(adj [][]int) int {
	total := 0
	for _, peers := range adj {
		total += len(peers)
	}
	return total
}

// Format renders adj as one "node i -> [peers]" line per node.
func Format(adj [][]int) string {
	var b strings.Builder
	for i, peers := range adj {
		fmt.Fprintf(&b, "node %d -> %v\n", i, peers)
	}
	return b.String()
}

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[bin]
geth_dir = "geth"

[node]
dir = "nodes"
count = 3
connection = [[1, 2], [0], [1]]

[run]
log = "warn"
`

func TestTopologyCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))

	RootCmd.AddCommand(NewTopologyCmd())
	RootCmd.SetArgs([]string{"topology", "--config", path, "--log", "debug", "--seed", "3"})

	require.NoError(t, RootCmd.Execute())

	// the flag wins over the file
	assert.Equal(t, "debug", conf.Run.LogLevel)
	assert.Equal(t, 3, conf.Node.Count)
	assert.Equal(t, [][]int{{1, 2}, {0}, {1}}, conf.Node.Connection)
}

package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mosaicnetworks/geth-runner/src/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[bin]
geth_dir = "/opt/geth/geth"

[node]
dir = "/tmp/nodes"
count = 3
sealer_count = 1
connection = [[1, 2], [0], [1]]

[run]
accounts_dir = "/tmp/accounts.toml"

[test]
test = true
n = 40
period = 30
payload = 16
`

func writeConfig(t *testing.T, content string) string {
	dir, err := ioutil.TempDir("", "geth-runner")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "config.toml")
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("err: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(viper.New(), writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "/opt/geth/geth", conf.Bin.GethDir)
	assert.Equal(t, 3, conf.Node.Count)
	assert.Equal(t, 1, conf.Node.SealerCount)
	assert.Equal(t, [][]int{{1, 2}, {0}, {1}}, conf.Node.Connection)
	assert.True(t, conf.Test.Test)
	assert.Equal(t, 40, conf.Test.N)
	assert.Equal(t, 30*time.Second, conf.Test.TimeLimit())
	assert.Equal(t, 16, conf.Test.Payload)

	// keys absent from the file keep their defaults
	assert.Equal(t, DefaultNetworkID, conf.Node.NetworkID)
	assert.Equal(t, DefaultBasePort, conf.Node.BasePort)
	assert.Equal(t, DefaultPasswordFile, conf.Node.Password)
	assert.Equal(t, DefaultLogLevel, conf.Run.LogLevel)
	assert.Equal(t, 0, conf.Test.StartNonce)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(viper.New(), "/nonexistent/config.toml")
	if !common.IsRun(err, common.ConfigError) {
		t.Fatalf("expected a config error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := NewDefaultConfig()
		c.Node.Count = 2
		c.Node.Connection = [][]int{{1}, {0}}
		return c
	}

	cases := map[string]func(c *Config){
		"no binary":          func(c *Config) { c.Bin.GethDir = "" },
		"no nodes":           func(c *Config) { c.Node.Count = 0; c.Node.Connection = nil },
		"too many sealers":   func(c *Config) { c.Node.SealerCount = 3 },
		"short matrix":       func(c *Config) { c.Node.Connection = [][]int{{1}} },
		"negative peers":     func(c *Config) { c.Node.RandomConnect = true; c.Node.PeerCount = -1 },
		"tee without binary": func(c *Config) { c.Run.TEE = true },
		"zero period":        func(c *Config) { c.Test.Test = true; c.Test.Period = 0 },
		"negative payload":   func(c *Config) { c.Test.Test = true; c.Test.Payload = -1 },
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	for name, mutate := range cases {
		c := valid()
		mutate(c)
		if err := c.Validate(); !common.IsRun(err, common.ConfigError) {
			t.Fatalf("%s: expected a config error, got %v", name, err)
		}
	}
}

func TestNodePaths(t *testing.T) {
	c := NewDefaultConfig()
	c.Node.Dir = "/data"

	assert.Equal(t, filepath.Join("/data", "node2"), c.Node.DataDir(2))
	assert.Equal(t, filepath.Join("/data", "node2.log"), c.Node.LogFile(2))
	assert.Equal(t, DefaultBasePort+2, c.Node.Port(2))
	assert.Equal(t, "node-2.ipc", IPCPath(2))
}

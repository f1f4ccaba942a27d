package config

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mosaicnetworks/geth-runner/src/common"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default configuration values.
const (
	DefaultGethBin         = "geth"
	DefaultNodesDir        = "./nodes"
	DefaultNodeCount       = 4
	DefaultSealerCount     = 1
	DefaultRandomConnect   = false
	DefaultPeerCount       = 2
	DefaultNetworkID       = 666
	DefaultBasePort        = 4000
	DefaultPasswordFile    = "password"
	DefaultAccountsPath    = "./accounts.toml"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 5
	DefaultTxCount         = 100
	DefaultPeriod          = 60
)

// BinConfig locates the worker binary.
type BinConfig struct {
	// GethDir is the path of the geth executable.
	GethDir string `mapstructure:"geth_dir"`
}

// NodeConfig describes the cluster.
type NodeConfig struct {
	// Dir is the root under which every node gets its data directory.
	Dir string `mapstructure:"dir"`

	// Count is the number of nodes to spawn.
	Count int `mapstructure:"count"`

	// SealerCount is the number of nodes, starting from id 0, that are
	// instructed to produce blocks.
	SealerCount int `mapstructure:"sealer_count"`

	// RandomConnect selects the randomized topology. When false, Connection is
	// used verbatim.
	RandomConnect bool `mapstructure:"random_connect"`

	// PeerCount is the number of peers sampled for each node when
	// RandomConnect is set.
	PeerCount int `mapstructure:"peer_count"`

	// Connection is the explicit adjacency matrix: Connection[i] lists the
	// peers node i connects to.
	Connection [][]int `mapstructure:"connection"`

	NetworkID int `mapstructure:"network_id"`

	// BasePort is the TCP port of node 0. Node i listens on BasePort+i.
	BasePort int `mapstructure:"base_port"`

	// Password is the file holding the passphrase that unlocks the accounts.
	Password string `mapstructure:"password"`
}

// RunConfig holds the settings of the run itself.
type RunConfig struct {
	// AccountsDir is either a TOML file with an addrs list or a geth keystore
	// directory.
	AccountsDir string `mapstructure:"accounts_dir"`

	// TEE enables the auxiliary initialization step.
	TEE bool `mapstructure:"tee"`

	// TEEBin and TEEArgs form the auxiliary initialization command.
	TEEBin  string   `mapstructure:"tee_bin"`
	TEEArgs []string `mapstructure:"tee_args"`

	LogLevel string `mapstructure:"log"`

	// LogFile, when set, receives a copy of every log line.
	LogFile string `mapstructure:"log_file"`

	// ShutdownTimeout is the number of seconds a worker is given to exit
	// before it is killed.
	ShutdownTimeout int `mapstructure:"shutdown_timeout"`

	// Service is the listen address of the status API. Empty disables it.
	Service string `mapstructure:"service"`
}

// TestConfig holds the optional load test.
type TestConfig struct {
	// Test enables the load test.
	Test bool `mapstructure:"test"`

	// N is the number of rounds. Each round sends one transaction per node.
	N int `mapstructure:"n"`

	// Period is the time budget in seconds.
	Period int `mapstructure:"period"`

	StartNonce int `mapstructure:"start_nonce"`

	// Payload is the number of random bytes attached to each transaction.
	Payload int `mapstructure:"payload"`

	// Report is an optional path where the JSON report is written.
	Report string `mapstructure:"report"`
}

// Config contains all the configuration properties of a run.
type Config struct {
	Bin  BinConfig  `mapstructure:"bin"`
	Node NodeConfig `mapstructure:"node"`
	Run  RunConfig  `mapstructure:"run"`
	Test TestConfig `mapstructure:"test"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Bin: BinConfig{
			GethDir: DefaultGethBin,
		},
		Node: NodeConfig{
			Dir:           DefaultNodesDir,
			Count:         DefaultNodeCount,
			SealerCount:   DefaultSealerCount,
			RandomConnect: DefaultRandomConnect,
			PeerCount:     DefaultPeerCount,
			NetworkID:     DefaultNetworkID,
			BasePort:      DefaultBasePort,
			Password:      DefaultPasswordFile,
		},
		Run: RunConfig{
			AccountsDir:     DefaultAccountsPath,
			LogLevel:        DefaultLogLevel,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Test: TestConfig{
			N:      DefaultTxCount,
			Period: DefaultPeriod,
		},
	}
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// Validate checks the settings that must hold before any worker is spawned.
func (c *Config) Validate() error {
	fail := func(format string, args ...interface{}) error {
		return common.NewRunErr("config", common.ConfigError, "validate", fmt.Errorf(format, args...))
	}

	switch {
	case c.Bin.GethDir == "":
		return fail("bin.geth_dir is required")
	case c.Node.Dir == "":
		return fail("node.dir is required")
	case c.Node.Count <= 0:
		return fail("node.count must be positive, got %d", c.Node.Count)
	case c.Node.SealerCount < 0 || c.Node.SealerCount > c.Node.Count:
		return fail("node.sealer_count must be in [0, %d], got %d", c.Node.Count, c.Node.SealerCount)
	case c.Node.RandomConnect && c.Node.PeerCount < 0:
		return fail("node.peer_count must not be negative, got %d", c.Node.PeerCount)
	case !c.Node.RandomConnect && len(c.Node.Connection) != c.Node.Count:
		return fail("node.connection has %d rows, expected %d", len(c.Node.Connection), c.Node.Count)
	case c.Run.TEE && c.Run.TEEBin == "":
		return fail("run.tee_bin is required when run.tee is set")
	}

	if c.Test.Test {
		switch {
		case c.Test.N < 0:
			return fail("test.n must not be negative, got %d", c.Test.N)
		case c.Test.Period <= 0:
			return fail("test.period must be positive, got %d", c.Test.Period)
		case c.Test.StartNonce < 0:
			return fail("test.start_nonce must not be negative, got %d", c.Test.StartNonce)
		case c.Test.Payload < 0:
			return fail("test.payload must not be negative, got %d", c.Test.Payload)
		}
	}

	return nil
}

// DataDir returns the data directory of node id.
func (c *NodeConfig) DataDir(id int) string {
	return filepath.Join(c.Dir, fmt.Sprintf("node%d", id))
}

// LogFile returns the file receiving the stderr of node id.
func (c *NodeConfig) LogFile(id int) string {
	return filepath.Join(c.Dir, fmt.Sprintf("node%d.log", id))
}

// Port returns the TCP port of node id.
func (c *NodeConfig) Port(id int) int {
	return c.BasePort + id
}

// IPCPath returns the IPC endpoint name of node id.
func IPCPath(id int) string {
	return fmt.Sprintf("node-%d.ipc", id)
}

// TimeLimit returns the load-test time budget.
func (t *TestConfig) TimeLimit() time.Duration {
	return time.Duration(t.Period) * time.Second
}

// ShutdownGrace returns how long a worker is given to exit.
func (r *RunConfig) ShutdownGrace() time.Duration {
	return time.Duration(r.ShutdownTimeout) * time.Second
}

// Logger returns a formatted logrus Entry, with prefix set to "geth-runner".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.Run.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.Run.LogFile != "" {
			pathMap := lfshook.PathMap{}
			for _, level := range logrus.AllLevels {
				pathMap[level] = c.Run.LogFile
			}
			c.logger.Hooks.Add(lfshook.NewHook(
				pathMap,
				&logrus.TextFormatter{},
			))
		}
	}
	return c.logger.WithField("prefix", "geth-runner")
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

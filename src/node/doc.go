// Package node manages the geth worker processes of a cluster.
//
// A Node is the controller's record of one worker: its id, the account it
// unlocks, the indices of the nodes it connects to, and two once-set values
// learned while spawning, the console session and the enode.
//
// Launch
//
// A Launcher starts a worker from deterministic Args: the data directory, the
// network id, the TCP port, console mode, the IPC endpoint, the unlocked
// account and its password file. ExecLauncher runs the geth binary with piped
// standard streams and sends its stderr to a per-node log file.
//
// Discovery
//
// Manager.Spawn drains the console banner, checks that the worker unlocked
// the configured account and records the enode it reports. Shutdown asks each
// worker to exit and kills those that do not within the grace period.
package node

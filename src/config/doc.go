// Package config defines the configuration of a geth-runner run.
//
// The configuration is read from a TOML file with four tables:
//
//  [bin]  // location of the geth binary
//  [node] // working-directory root, node and sealer counts, topology
//  [run]  // accounts source, auxiliary initialization, logging
//  [test] // optional load test
//
// Absent keys keep the values of NewDefaultConfig. The accounts source named by
// run.accounts_dir is loaded separately by the accounts package.
package config

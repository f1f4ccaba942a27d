// Package accounts loads the addresses of the accounts unlocked by the nodes.
//
// Two sources are understood. A TOML file lists the addresses in order:
//
//  addrs = ["0x...", "0x..."]
//
// A directory is read as a geth keystore: every file is a JSON key file whose
// "address" field gives the account, and accounts are ordered by file name,
// which for geth key files is their creation order.
package accounts

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/mosaicnetworks/geth-runner/src/common"
	"github.com/spf13/viper"
	"github.com/ugorji/go/codec"
)

// keyFile is the part of a geth key file we care about.
type keyFile struct {
	Address string `codec:"address"`
}

// Load returns the addresses found at path, as written in the source.
func Load(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, common.NewRunErr("accounts", common.ConfigError, "stat "+path, err)
	}

	var addrs []string
	if info.IsDir() {
		addrs, err = loadKeystore(path)
	} else {
		addrs, err = loadList(path)
	}
	if err != nil {
		return nil, err
	}

	if err := check(addrs); err != nil {
		return nil, err
	}

	return addrs, nil
}

func loadList(path string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, common.NewRunErr("accounts", common.ConfigError, "read "+path, err)
	}

	return v.GetStringSlice("addrs"), nil
}

func loadKeystore(dir string) ([]string, error) {
	files, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, common.NewRunErr("accounts", common.ConfigError, "read "+dir, err)
	}

	names := []string{}
	for _, f := range files {
		if f.IsDir() || f.Name()[0] == '.' {
			continue
		}
		names = append(names, f.Name())
	}
	sort.Strings(names)

	jh := new(codec.JsonHandle)
	addrs := make([]string, 0, len(names))
	for _, name := range names {
		buf, err := ioutil.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, common.NewRunErr("accounts", common.ConfigError, "read "+name, err)
		}

		var kf keyFile
		if err := codec.NewDecoderBytes(buf, jh).Decode(&kf); err != nil {
			return nil, common.NewRunErr("accounts", common.ConfigError, "decode "+name, err)
		}

		addrs = append(addrs, kf.Address)
	}

	return addrs, nil
}

func check(addrs []string) error {
	seen := make(map[gethcommon.Address]int, len(addrs))
	for i, a := range addrs {
		if !gethcommon.IsHexAddress(a) {
			return common.NewRunErr("accounts", common.ConfigError, "check",
				fmt.Errorf("account %d: %q is not a hex address", i, a))
		}
		addr := gethcommon.HexToAddress(a)
		if j, ok := seen[addr]; ok {
			return common.NewRunErr("accounts", common.ConfigError, "check",
				fmt.Errorf("accounts %d and %d are both %s", j, i, a))
		}
		seen[addr] = i
	}
	return nil
}

// Same reports whether a and b denote the same account, ignoring case and the
// optional 0x prefix.
func Same(a, b string) bool {
	if !gethcommon.IsHexAddress(a) || !gethcommon.IsHexAddress(b) {
		return false
	}
	return gethcommon.HexToAddress(a) == gethcommon.HexToAddress(b)
}

package accounts

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/mosaicnetworks/geth-runner/src/common"
)

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "accounts")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestLoadList(t *testing.T) {
	dir := tempDir(t)
	path := filepath.Join(dir, "accounts.toml")
	content := `addrs = ["0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222"]`
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("err: %v", err)
	}

	addrs, err := Load(path)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(addrs) != 2 {
		t.Fatalf("expected 2 addresses, got %v", addrs)
	}
	if addrs[1] != "0x2222222222222222222222222222222222222222" {
		t.Fatalf("addresses out of order: %v", addrs)
	}
}

func TestLoadKeystore(t *testing.T) {
	dir := tempDir(t)

	// written out of order, read back sorted by file name
	keys := map[string]string{
		"UTC--2019-01-02T00-00-00.000000000Z--b": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		"UTC--2019-01-01T00-00-00.000000000Z--a": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	}
	for name, addr := range keys {
		content := fmt.Sprintf(`{"address":"%s","crypto":{"cipher":"aes-128-ctr"},"version":3}`, addr)
		if err := ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	addrs, err := Load(dir)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(addrs) != 2 || addrs[0] != keys["UTC--2019-01-01T00-00-00.000000000Z--a"] {
		t.Fatalf("unexpected addresses: %v", addrs)
	}
}

func TestLoadRejectsBadAddresses(t *testing.T) {
	dir := tempDir(t)

	cases := map[string]string{
		"garbage":   `addrs = ["not-an-address"]`,
		"duplicate": `addrs = ["0x1111111111111111111111111111111111111111", "0X1111111111111111111111111111111111111111"]`,
	}
	for name, content := range cases {
		path := filepath.Join(dir, name+".toml")
		if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("err: %v", err)
		}
		if _, err := Load(path); !common.IsRun(err, common.ConfigError) {
			t.Fatalf("%s: expected a config error, got %v", name, err)
		}
	}
}

func TestSame(t *testing.T) {
	a := "0xAbCdEf0123456789abcdef0123456789ABCDEF01"
	if !Same(a, "abcdef0123456789ABCDEF0123456789abcdef01") {
		t.Fatalf("addresses differing in case and prefix should match")
	}
	if Same(a, "0x1111111111111111111111111111111111111111") {
		t.Fatalf("different addresses should not match")
	}
	if Same(a, "undefined") {
		t.Fatalf("non-addresses should not match")
	}
}

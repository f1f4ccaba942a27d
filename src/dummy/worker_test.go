package dummy

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/mosaicnetworks/geth-runner/src/console"
	"github.com/mosaicnetworks/geth-runner/src/node"
)

const account = "0x8b1e4eaf45b8f9b6cb0a1d3ac1e9e2bcd5f6a701"

func TestServeTranscript(t *testing.T) {
	in := strings.Join([]string{
		console.CmdAccount,
		console.AddPeer("enode://abc@127.0.0.1:4001"),
		console.CmdMine,
		console.SendTransaction(account, account, 3, "0x0102"),
		console.CmdTxCount,
		console.CmdExit,
		console.CmdEnode,
	}, "\n") + "\n"

	var out strings.Builder
	w := NewWorker(account, Enode(account, 4000))
	if err := w.Serve(strings.NewReader(in), &out); err != nil {
		t.Fatal(err)
	}

	// nothing after exit is read
	if n := len(w.Commands()); n != 6 {
		t.Fatalf("expected 6 commands, got %d", n)
	}
	if !w.Mining() {
		t.Fatalf("miner.start not recorded")
	}
	if peers := w.Peers(); len(peers) != 1 || peers[0] != "enode://abc@127.0.0.1:4001" {
		t.Fatalf("unexpected peers %v", peers)
	}

	txs := w.Txs()
	if len(txs) != 1 || txs[0].Nonce != 3 || txs[0].Data != "0x0102" {
		t.Fatalf("unexpected transactions %+v", txs)
	}

	if !strings.Contains(out.String(), console.Prompt+"1\n"+console.Prompt) {
		t.Fatalf("transaction count missing from output:\n%s", out.String())
	}
	if !strings.HasPrefix(out.String(), Banner) {
		t.Fatalf("output does not start with the banner")
	}
}

func TestServeUnknownCommand(t *testing.T) {
	var out strings.Builder
	w := NewWorker(account, "")
	if err := w.Serve(strings.NewReader("foo.bar()\n"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "ReferenceError") {
		t.Fatalf("unknown command not rejected:\n%s", out.String())
	}
}

func TestWorkerFromArgs(t *testing.T) {
	conf := node.Args{
		ID:        2,
		DataDir:   "nodes/node2",
		NetworkID: 666,
		Port:      4002,
		IPCPath:   "node-2.ipc",
		Unlock:    account,
		Password:  "password",
	}

	w := WorkerFromArgs(conf.CommandLine())
	if w.Account != account {
		t.Fatalf("unexpected account %q", w.Account)
	}
	if w.Enode != Enode(account, 4002) {
		t.Fatalf("unexpected enode %q", w.Enode)
	}
}

func TestLauncherKill(t *testing.T) {
	l := NewLauncher()
	p, err := l.Launch(node.Args{ID: 0, Unlock: account, Port: 4000})
	if err != nil {
		t.Fatal(err)
	}

	// read the banner, then leave the worker blocked on input
	r := bufio.NewReader(p.Stdout())
	if _, err := r.ReadString('>'); err != nil {
		t.Fatal(err)
	}

	if err := p.Kill(); err != nil {
		t.Fatal(err)
	}
	if err := p.Wait(); err != errKilled {
		t.Fatalf("expected the killed status, got %v", err)
	}
	if _, err := io.WriteString(p.Stdin(), "exit\n"); err == nil {
		t.Fatalf("writing to a killed worker should fail")
	}
}

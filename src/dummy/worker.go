// Package dummy provides an in-process stand-in for a geth console worker.
//
// A Worker answers the command vocabulary of the console package the way a
// clique node would and records everything it receives, so controller
// behavior can be asserted without a geth binary.
package dummy

import (
	"bufio"
	"crypto/sha512"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/mosaicnetworks/geth-runner/src/console"
)

// Banner is printed before the first prompt.
const Banner = "Welcome to the Geth JavaScript console!\n\n instance: Geth/dummy\n"

var (
	addPeerRe = regexp.MustCompile(`^admin\.addPeer\("(.*)"\)$`)
	sendTxRe  = regexp.MustCompile(`^eth\.sendTransaction\(\{from:"([^"]*)", to:"([^"]*)", nonce: "(\d+)", value:.*, data: "([^"]*)"\}\)$`)
)

// Tx is a transaction received by a Worker.
type Tx struct {
	From  string
	To    string
	Nonce int
	Data  string
}

// Worker ...
type Worker struct {
	Account string
	Enode   string

	// Echo makes the worker repeat every command line before answering, like
	// a console attached to a terminal.
	Echo bool

	// Overrides maps a command line to a canned response.
	Overrides map[string]string

	// Stubborn workers ignore exit and, once their input ends, block on
	// their output until it is closed.
	Stubborn bool

	// Mute workers consume their input and never write anything, not even
	// the banner.
	Mute bool

	mu       sync.Mutex
	commands []string
	peers    []string
	mining   bool
	txs      []Tx
}

// NewWorker ...
func NewWorker(account, enode string) *Worker {
	return &Worker{
		Account:   account,
		Enode:     enode,
		Overrides: make(map[string]string),
	}
}

// Enode builds a well-formed enode URL derived from account and port.
func Enode(account string, port int) string {
	return fmt.Sprintf("enode://%x@127.0.0.1:%d", sha512.Sum512([]byte(account)), port)
}

// Serve prints the banner and answers commands from in until it reads exit or
// in ends.
func (w *Worker) Serve(in io.Reader, out io.Writer) error {
	if w.Mute {
		_, err := io.Copy(io.Discard, in)
		return err
	}

	if _, err := io.WriteString(out, Banner+"\n"+console.Prompt); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		w.record(line)

		if w.Echo {
			if _, err := io.WriteString(out, line+"\n"); err != nil {
				return err
			}
		}
		if line == console.CmdExit && !w.Stubborn {
			return nil
		}

		resp := w.eval(line)
		if resp != "" {
			resp += "\n"
		}
		if _, err := io.WriteString(out, resp+console.Prompt); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil || !w.Stubborn {
		return err
	}
	_, err := io.WriteString(out, "shutting down\n")
	return err
}

func (w *Worker) record(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.commands = append(w.commands, line)
}

func (w *Worker) eval(line string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if resp, ok := w.Overrides[line]; ok {
		return resp
	}

	switch line {
	case "":
		return ""
	case console.CmdAccount:
		return strconv.Quote(w.Account)
	case console.CmdEnode:
		return strconv.Quote(w.Enode)
	case console.CmdMine:
		w.mining = true
		return "null"
	case console.CmdSigners:
		return fmt.Sprintf("[%q]", w.Account)
	case console.CmdPeers:
		return w.peerList()
	case console.CmdTxCount:
		return strconv.Itoa(len(w.txs))
	}

	if m := addPeerRe.FindStringSubmatch(line); m != nil {
		w.peers = append(w.peers, m[1])
		return "true"
	}

	if m := sendTxRe.FindStringSubmatch(line); m != nil {
		nonce, _ := strconv.Atoi(m[3])
		w.txs = append(w.txs, Tx{
			From:  m[1],
			To:    m[2],
			Nonce: nonce,
			Data:  m[4],
		})
		return fmt.Sprintf("%q", fmt.Sprintf("0x%064x", len(w.txs)))
	}

	return fmt.Sprintf("ReferenceError: %q is not defined", line)
}

func (w *Worker) peerList() string {
	if len(w.peers) == 0 {
		return "[]"
	}
	entries := make([]string, len(w.peers))
	for i, p := range w.peers {
		entries[i] = fmt.Sprintf("{\n    enode: %q\n}", p)
	}
	return "[" + strings.Join(entries, ", ") + "]"
}

// Override sets the response to cmd while the worker is serving.
func (w *Worker) Override(cmd, resp string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Overrides[cmd] = resp
}

// Commands returns every command line received so far.
func (w *Worker) Commands() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.commands...)
}

// Count returns how many received command lines start with prefix.
func (w *Worker) Count(prefix string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for _, c := range w.commands {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Peers returns the enodes passed to admin.addPeer.
func (w *Worker) Peers() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.peers...)
}

// Mining reports whether miner.start was received.
func (w *Worker) Mining() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mining
}

// Txs returns the transactions received so far.
func (w *Worker) Txs() []Tx {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Tx(nil), w.txs...)
}

// WorkerFromArgs builds a worker from a geth command line, using the
// --unlock and --port arguments.
func WorkerFromArgs(args []string) *Worker {
	var account string
	var port int
	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "--unlock="):
			account = strings.TrimPrefix(a, "--unlock=")
		case strings.HasPrefix(a, "--port="):
			port, _ = strconv.Atoi(strings.TrimPrefix(a, "--port="))
		}
	}
	return NewWorker(account, Enode(account, port))
}

// RunWorker serves a worker configured from a geth command line.
func RunWorker(args []string, in io.Reader, out io.Writer) error {
	return WorkerFromArgs(args).Serve(in, out)
}

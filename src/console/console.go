// Package console drives the interactive JavaScript console of a geth worker.
//
// A Session is a synchronous request/response channel over the worker's
// standard output and input. Each request is one command line; the response is
// whatever the worker prints before its next prompt, with the echoed command,
// the prompt and surrounding quotes stripped. At most one request is
// outstanding at a time and there is no timeout: a worker that never prints a
// prompt blocks the caller.
package console

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/mosaicnetworks/geth-runner/src/common"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Prompt is the marker the geth console prints when it is ready for input.
const Prompt = "> "

// cutset is trimmed from both ends of every response.
const cutset = " \t\r\n\""

// Session ...
type Session struct {
	name   string
	r      *bufio.Reader
	w      io.Writer
	busy   atomic.Bool
	logger *logrus.Entry
}

// NewSession takes ownership of the worker's stdout (r) and stdin (w). name
// identifies the worker in errors and logs.
func NewSession(name string, r io.Reader, w io.Writer, logger *logrus.Entry) *Session {
	return &Session{
		name:   name,
		r:      bufio.NewReader(r),
		w:      w,
		logger: logger.WithField("console", name),
	}
}

// Name ...
func (s *Session) Name() string {
	return s.name
}

// ReceiveBanner drains the startup text up to the first prompt and returns it.
func (s *Session) ReceiveBanner() (string, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return "", s.concurrent("banner")
	}
	defer s.busy.Store(false)

	out, err := s.readUntilPrompt("banner")
	if err != nil {
		return "", err
	}

	banner := strings.TrimSpace(strings.TrimSuffix(out, Prompt))
	s.logger.WithField("banner", banner).Debug("Received banner")

	return banner, nil
}

// SendWithResponse writes cmd and returns the worker's answer.
func (s *Session) SendWithResponse(cmd string) (string, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return "", s.concurrent(cmd)
	}
	defer s.busy.Store(false)

	s.logger.WithField("cmd", cmd).Debug("Send to console")

	if err := s.write(cmd); err != nil {
		return "", err
	}

	out, err := s.readUntilPrompt(cmd)
	if err != nil {
		return "", err
	}

	resp := clean(out, cmd)
	s.logger.WithFields(logrus.Fields{
		"cmd":  cmd,
		"resp": resp,
	}).Debug("Receive from console")

	return resp, nil
}

// Send writes cmd without waiting for a prompt. It is meant for commands after
// which the worker stops answering, like exit.
func (s *Session) Send(cmd string) error {
	if !s.busy.CompareAndSwap(false, true) {
		return s.concurrent(cmd)
	}
	defer s.busy.Store(false)

	s.logger.WithField("cmd", cmd).Debug("Send to console")

	return s.write(cmd)
}

// Close closes the worker's stdin if the writer supports it. The worker
// usually exits when its console input ends.
func (s *Session) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Session) write(cmd string) error {
	if _, err := io.WriteString(s.w, cmd+"\n"); err != nil {
		return common.NewRunErr(s.name, common.ProtocolError, cmd, err)
	}
	return nil
}

// readUntilPrompt accumulates output until it ends with a prompt written at
// the start of a line.
func (s *Session) readUntilPrompt(op string) (string, error) {
	var buf bytes.Buffer
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return "", common.NewRunErr(s.name, common.ProtocolError, op, err)
		}
		buf.WriteByte(b)

		if atPrompt(buf.Bytes()) {
			return buf.String(), nil
		}
	}
}

func atPrompt(b []byte) bool {
	if !bytes.HasSuffix(b, []byte(Prompt)) {
		return false
	}
	start := len(b) - len(Prompt)
	return start == 0 || b[start-1] == '\n'
}

// clean removes the trailing prompt, a leading echo of cmd, and surrounding
// whitespace and quotes.
func clean(out, cmd string) string {
	out = strings.TrimSuffix(out, Prompt)

	first, rest := out, ""
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		first, rest = out[:i], out[i+1:]
	}
	if strings.TrimSpace(strings.TrimPrefix(first, Prompt)) == cmd {
		out = rest
	}

	return strings.Trim(out, cutset)
}

func (s *Session) concurrent(op string) error {
	return common.NewRunErr(s.name, common.ConcurrentRequest, op,
		errors.New("another request is outstanding"))
}

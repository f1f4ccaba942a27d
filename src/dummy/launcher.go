package dummy

import (
	"errors"
	"io"
	"sync"

	"github.com/mosaicnetworks/geth-runner/src/node"
	"go.uber.org/atomic"
)

var errKilled = errors.New("dummy: killed")

// Launcher implements node.Launcher with in-process workers connected through
// pipes.
type Launcher struct {
	// NewWorker builds the worker of a launch. By default the worker reports
	// the unlocked account and an enode derived from it.
	NewWorker func(args node.Args) *Worker

	// Fail makes Launch return the mapped error for a node id.
	Fail map[int]error

	mu      sync.Mutex
	workers map[int]*Worker
	procs   map[int]*Process
	nextPid int
}

// NewLauncher ...
func NewLauncher() *Launcher {
	return &Launcher{
		Fail:    make(map[int]error),
		workers: make(map[int]*Worker),
		procs:   make(map[int]*Process),
		nextPid: 1000,
	}
}

// Launch ...
func (l *Launcher) Launch(args node.Args) (node.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err, ok := l.Fail[args.ID]; ok {
		return nil, err
	}

	var w *Worker
	if l.NewWorker != nil {
		w = l.NewWorker(args)
	} else {
		w = NewWorker(args.Unlock, Enode(args.Unlock, args.Port))
	}

	l.nextPid++
	p := newProcess(l.nextPid, w)
	l.workers[args.ID] = w
	l.procs[args.ID] = p

	return p, nil
}

// Worker returns the worker launched for id, or nil.
func (l *Launcher) Worker(id int) *Worker {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.workers[id]
}

// Process returns the process launched for id, or nil.
func (l *Launcher) Process(id int) *Process {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.procs[id]
}

// Launched returns the number of successful launches.
func (l *Launcher) Launched() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.procs)
}

// Process runs a Worker on a goroutine.
type Process struct {
	pid int

	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter

	done   chan struct{}
	err    error
	killed atomic.Bool
}

func newProcess(pid int, w *Worker) *Process {
	p := &Process{
		pid:  pid,
		done: make(chan struct{}),
	}
	p.stdinR, p.stdinW = io.Pipe()
	p.stdoutR, p.stdoutW = io.Pipe()

	go func() {
		err := w.Serve(p.stdinR, p.stdoutW)
		p.stdoutW.Close()
		if p.killed.Load() {
			err = errKilled
		}
		p.err = err
		close(p.done)
	}()

	return p
}

// Pid ...
func (p *Process) Pid() int {
	return p.pid
}

// Stdin ...
func (p *Process) Stdin() io.WriteCloser {
	return p.stdinW
}

// Stdout ...
func (p *Process) Stdout() io.Reader {
	return p.stdoutR
}

// Wait ...
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Kill unblocks the worker whether it is reading or writing.
func (p *Process) Kill() error {
	p.killed.Store(true)
	p.stdinR.Close()
	p.stdoutR.Close()
	return nil
}

// Exited reports whether the worker has returned.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Killed reports whether Kill was called.
func (p *Process) Killed() bool {
	return p.killed.Load()
}

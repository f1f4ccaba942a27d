package node

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/mosaicnetworks/geth-runner/src/config"
)

// Args are the launch arguments of one worker. They depend only on the node
// id, its account and the cluster configuration.
type Args struct {
	ID        int
	DataDir   string
	NetworkID int
	Port      int
	IPCPath   string
	Unlock    string
	Password  string

	// LogFile receives the worker's stderr. Empty discards it.
	LogFile string
}

// NewArgs ...
func NewArgs(id int, address string, conf *config.NodeConfig) Args {
	return Args{
		ID:        id,
		DataDir:   conf.DataDir(id),
		NetworkID: conf.NetworkID,
		Port:      conf.Port(id),
		IPCPath:   config.IPCPath(id),
		Unlock:    address,
		Password:  conf.Password,
		LogFile:   conf.LogFile(id),
	}
}

// CommandLine returns the geth arguments.
func (a Args) CommandLine() []string {
	return []string{
		fmt.Sprintf("--datadir=%s", a.DataDir),
		fmt.Sprintf("--networkid=%d", a.NetworkID),
		fmt.Sprintf("--port=%d", a.Port),
		"console",
		fmt.Sprintf("--ipcpath=%s", a.IPCPath),
		fmt.Sprintf("--unlock=%s", a.Unlock),
		fmt.Sprintf("--password=%s", a.Password),
	}
}

// Process is a running worker.
type Process interface {
	Pid() int
	Stdin() io.WriteCloser
	Stdout() io.Reader
	// Wait blocks until the worker exits. It must be called at most once.
	Wait() error
	Kill() error
}

// Launcher starts workers.
type Launcher interface {
	Launch(args Args) (Process, error)
}

// ExecLauncher starts workers as child processes of Bin.
type ExecLauncher struct {
	Bin string

	// Env is appended to the environment of the current process.
	Env []string
}

// NewExecLauncher ...
func NewExecLauncher(bin string) *ExecLauncher {
	return &ExecLauncher{Bin: bin}
}

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	log    *os.File
}

// Launch ...
func (l *ExecLauncher) Launch(args Args) (Process, error) {
	cmd := exec.Command(l.Bin, args.CommandLine()...)
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}

	// keep terminal signals aimed at the runner away from the workers
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	var logFile *os.File
	if args.LogFile != "" {
		f, err := openLog(args.LogFile)
		if err != nil {
			return nil, err
		}
		logFile = f
		cmd.Stderr = logFile
	}

	// the pipes are created here rather than with StdinPipe/StdoutPipe so
	// every descriptor can be released when the launch fails
	p, err := newPipes()
	if err != nil {
		closeLog(logFile)
		return nil, err
	}
	cmd.Stdin = p.childIn
	cmd.Stdout = p.childOut

	err = cmd.Start()
	p.closeChild()
	if err != nil {
		p.closeParent()
		closeLog(logFile)
		return nil, err
	}

	return &execProcess{
		cmd:    cmd,
		stdin:  p.in,
		stdout: p.out,
		log:    logFile,
	}, nil
}

func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

func closeLog(f *os.File) {
	if f != nil {
		f.Close()
	}
}

// pipes connect the runner to a worker's stdin and stdout.
type pipes struct {
	in, childIn   *os.File
	out, childOut *os.File
}

func newPipes() (*pipes, error) {
	childIn, in, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	out, childOut, err := os.Pipe()
	if err != nil {
		childIn.Close()
		in.Close()
		return nil, err
	}
	return &pipes{in: in, childIn: childIn, out: out, childOut: childOut}, nil
}

// closeChild closes the ends inherited by the worker, so the runner sees EOF
// when the worker exits.
func (p *pipes) closeChild() {
	p.childIn.Close()
	p.childOut.Close()
}

func (p *pipes) closeParent() {
	p.in.Close()
	p.out.Close()
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Stdin() io.WriteCloser {
	return p.stdin
}

func (p *execProcess) Stdout() io.Reader {
	return p.stdout
}

func (p *execProcess) Wait() error {
	err := p.cmd.Wait()
	p.stdin.Close()
	p.stdout.Close()
	closeLog(p.log)
	return err
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

package term

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/creack/pty"
	xterm "golang.org/x/term"

	"tdsr/internal/system"
)

// Pty owns the master side of the pseudo-terminal the child shell runs in.
type Pty struct {
	master *os.File
	cmd    *exec.Cmd
}

// StartShell spawns argv (or the user's shell when argv is empty) on a new
// PTY sized cols x rows.
func StartShell(argv []string, cols, rows int) (*Pty, error) {
	if len(argv) == 0 {
		argv = []string{DefaultShell()}
	}
	system.Logger.Debug("spawning child", "argv", argv)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = os.Environ()

	master, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	})
	if err != nil {
		return nil, fmt.Errorf("start pty: %w", err)
	}
	return &Pty{master: master, cmd: cmd}, nil
}

// DefaultShell returns $SHELL, falling back to /bin/sh.
func DefaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// Fd is the master file descriptor for readiness polling.
func (p *Pty) Fd() int {
	return int(p.master.Fd())
}

// Read drains available output from the child.
func (p *Pty) Read(buf []byte) (int, error) {
	return p.master.Read(buf)
}

// Write passes input bytes through to the child.
func (p *Pty) Write(buf []byte) (int, error) {
	return p.master.Write(buf)
}

// Resize propagates a new window size to the child (it receives SIGWINCH).
func (p *Pty) Resize(cols, rows int) error {
	return pty.Setsize(p.master, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	})
}

// Signal forwards a signal to the child process.
func (p *Pty) Signal(sig os.Signal) error {
	if p.cmd.Process == nil {
		return errors.New("child not started")
	}
	return p.cmd.Process.Signal(sig)
}

// Close releases the master; the child sees EOF/SIGHUP.
func (p *Pty) Close() error {
	return p.master.Close()
}

// Wait reaps the child and returns its exit code; a signal death maps to 1.
func (p *Pty) Wait() int {
	err := p.cmd.Wait()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
		return 1
	}
	return 1
}

// TerminalSize reports the controlling terminal's dimensions, defaulting to
// 80x24 when they cannot be read.
func TerminalSize(fd int) (cols, rows int) {
	cols, rows, err := xterm.GetSize(fd)
	if err != nil || cols <= 0 || rows <= 0 {
		return 80, 24
	}
	return cols, rows
}

// MakeRaw puts fd into raw mode so every keystroke reaches the reader,
// returning the state Restore needs.
func MakeRaw(fd int) (*xterm.State, error) {
	st, err := xterm.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	return st, nil
}

// Restore reverts fd to its pre-raw state.
func Restore(fd int, st *xterm.State) {
	if st != nil {
		_ = xterm.Restore(fd, st)
	}
}

// IsTerminal reports whether fd is attached to a TTY.
func IsTerminal(fd int) bool {
	return xterm.IsTerminal(fd)
}

// Package app wires a session together: raw terminal, PTY child, VT
// emulator, and the select loop that moves bytes between them while feeding
// the speech pipeline.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"tdsr/internal/input"
	"tdsr/internal/speech"
	"tdsr/internal/state"
	"tdsr/internal/system"
	"tdsr/internal/term"
)

// tick is the default loop deadline when nothing sooner is scheduled.
const tick = 50 * time.Millisecond

// Options are the session parameters from the command line.
type Options struct {
	// Debug routes debug logging to tdsr.log.
	Debug bool

	// Command, when set, runs `$SHELL -c Command` and exits with it.
	Command string

	// Argv is the program to run instead of the shell.
	Argv []string
}

// signal tags written through the self-pipe.
const (
	sigTagWinch = 'w'
	sigTagTerm  = 't'
)

// Run executes a full session and returns the process exit code.
func Run(opts Options) int {
	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		fmt.Fprintln(os.Stderr, "tdsr requires an interactive terminal (stdin is not a TTY)")
		return 1
	}

	if opts.Debug {
		f, err := os.OpenFile("tdsr.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot open tdsr.log: %v\n", err)
		} else {
			defer f.Close()
			system.EnableDebug(f)
		}
	}

	cols, rows := term.TerminalSize(stdinFd)
	system.Logger.Info("terminal size", "cols", cols, "rows", rows)

	st, err := state.New(cols, rows)
	if err != nil {
		if errors.Is(err, speech.ErrNoBackend) {
			fmt.Fprintln(os.Stderr, "tdsr: no speech backend available, running silent")
		} else {
			fmt.Fprintf(os.Stderr, "tdsr: %v\n", err)
			return 1
		}
	}
	defer st.Synth.Close()

	argv := opts.Argv
	if opts.Command != "" {
		argv = []string{term.DefaultShell(), "-c", opts.Command}
	}

	pty, err := term.StartShell(argv, cols, rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tdsr: %v\n", err)
		return 1
	}
	defer pty.Close()

	rawState, err := term.MakeRaw(stdinFd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tdsr: %v\n", err)
		return 1
	}
	// The deferred restore also runs while panicking, so the terminal comes
	// back no matter how the loop dies.
	defer term.Restore(stdinFd, rawState)

	pipeR, pipeW, err := os.Pipe()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tdsr: %v\n", err)
		return 1
	}
	defer pipeR.Close()

	sigCh := make(chan os.Signal, 8)
	signal.Notify(sigCh, syscall.SIGWINCH, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for sig := range sigCh {
			tag := byte(sigTagWinch)
			if sig == syscall.SIGTERM || sig == syscall.SIGHUP {
				tag = sigTagTerm
			}
			_, _ = pipeW.Write([]byte{tag})
		}
	}()

	emu := term.NewEmulator(cols, rows)
	defaultHandler := input.NewDefaultHandler(input.DefaultKeymap())

	st.Speak("TDSR ready")

	sess := &session{
		st:      st,
		emu:     emu,
		pty:     pty,
		def:     defaultHandler,
		stdinFd: stdinFd,
	}
	return sess.loop(pipeR)
}

type session struct {
	st      *state.State
	emu     *term.Emulator
	pty     *term.Pty
	def     *input.DefaultHandler
	stdinFd int
}

func (s *session) loop(pipeR *os.File) int {
	ptyFd := s.pty.Fd()
	pipeFd := int(pipeR.Fd())

	for {
		s.st.RunScheduled(s.emu.Screen())

		timeout := tick
		if d, ok := s.st.TimeUntilNextScheduled(); ok && d < timeout {
			timeout = d
		}

		var fds unix.FdSet
		fds.Zero()
		fds.Set(s.stdinFd)
		fds.Set(ptyFd)
		fds.Set(pipeFd)
		nfds := ptyFd
		if pipeFd > nfds {
			nfds = pipeFd
		}
		if s.stdinFd > nfds {
			nfds = s.stdinFd
		}

		tv := unix.NsecToTimeval(timeout.Nanoseconds())
		_, err := unix.Select(nfds+1, &fds, nil, nil, &tv)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			system.Logger.Error("select failed", "err", err)
			return 1
		}

		if fds.IsSet(pipeFd) {
			if stop := s.handleSignals(pipeR); stop {
				return 1
			}
		}
		if fds.IsSet(s.stdinFd) {
			if err := s.handleStdin(); err != nil {
				system.Logger.Error("stdin error", "err", err)
				return s.pty.Wait()
			}
		}
		if fds.IsSet(ptyFd) {
			done, err := s.handlePtyOutput()
			if done {
				return s.pty.Wait()
			}
			if err != nil {
				system.Logger.Error("pty error", "err", err)
				return 1
			}
		}
	}
}

// handleSignals drains the self-pipe; returns true when the session must
// shut down.
func (s *session) handleSignals(pipeR *os.File) bool {
	buf := make([]byte, 16)
	n, err := pipeR.Read(buf)
	if err != nil {
		return false
	}
	for _, tag := range buf[:n] {
		switch tag {
		case sigTagWinch:
			cols, rows := term.TerminalSize(s.stdinFd)
			system.Logger.Info("resized", "cols", cols, "rows", rows)
			if err := s.pty.Resize(cols, rows); err != nil {
				system.Logger.Error("pty resize", "err", err)
			}
			s.emu.Resize(cols, rows)
			s.st.Resize(cols, rows)
		case sigTagTerm:
			_ = s.pty.Signal(syscall.SIGTERM)
			time.Sleep(100 * time.Millisecond)
			return true
		}
	}
	return false
}

// handleStdin reads a chunk of user input and routes it through the handler
// stack; unconsumed keys go to the PTY unchanged.
func (s *session) handleStdin() error {
	buf := make([]byte, 4096)
	n, err := os.Stdin.Read(buf)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	key := buf[:n]

	// A keypress obsoletes pending speech and scheduled announcements.
	s.st.CancelSpeech()
	s.st.ClearDelayed()

	var action state.Action
	if len(s.st.Handlers) > 0 {
		top := s.st.Handlers[len(s.st.Handlers)-1]
		action, err = top.Process(key, s.st, s.emu)
		if err != nil {
			system.Logger.Error("handler failed", "err", err)
			action = state.ActionHandled
		}
		if action == state.ActionRemove {
			s.st.PopHandler()
		}
	} else {
		action, err = s.def.Process(key, s.st, s.emu)
		if err != nil {
			system.Logger.Error("handler failed", "err", err)
			action = state.ActionHandled
		}
	}

	if action == state.ActionPassthrough {
		s.rememberKey(key)
		if _, err := s.pty.Write(key); err != nil {
			return fmt.Errorf("pty write: %w", err)
		}
	}
	return nil
}

// rememberKey records a single printable for the echo window.
func (s *session) rememberKey(key []byte) {
	if len(key) == 1 {
		ch := rune(key[0])
		if ch >= '!' && ch <= '~' || ch == ' ' {
			s.st.LastKey = ch
			return
		}
	}
	s.st.LastKey = 0
}

// handlePtyOutput relays a chunk of child output to the real terminal and
// through the emulator into the speech pipeline. Returns done when the
// child hung up.
func (s *session) handlePtyOutput() (done bool, err error) {
	buf := make([]byte, 4096)
	n, err := s.pty.Read(buf)
	if n == 0 || err != nil {
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) {
			// EIO is how Linux reports a closed slave side.
			system.Logger.Info("pty closed, child exited")
			return true, nil
		}
		return false, err
	}
	out := buf[:n]

	oldX, oldY := s.emu.Cursor()

	// Byte-exact passthrough happens before any interpretation.
	if _, err := os.Stdout.Write(out); err != nil {
		return false, fmt.Errorf("stdout write: %w", err)
	}

	if !s.st.Quiet && !s.st.TempSilence {
		s.processWithSpeech(out)
	} else {
		s.emu.Process(out)
	}

	if off := s.emu.Screen().TakeScrollOffset(); off != 0 {
		s.st.AdjustForScroll(off, s.emu.Screen().Rows)
	}

	newX, newY := s.emu.Cursor()
	if newX != oldX || newY != oldY {
		s.st.TrackCursor(newX, newY)
	}
	return false, nil
}

func (s *session) processWithSpeech(out []byte) {
	linePause := s.st.Config.LinePause()
	keyEcho := s.st.Config.KeyEcho()
	lastKey := s.st.LastKey

	s.emu.ProcessWithSpeech(out, s.st.SpeechBuffer, linePause)

	// Echo window: the child usually reflects a typed printable right back.
	if lastKey != 0 && len(out) == 1 && rune(out[0]) == lastKey {
		s.st.SpeechBuffer.Flush()
		s.st.LastKey = 0
		if keyEcho {
			s.st.SpeakChar(lastKey)
		}
		return
	}
	s.st.LastKey = 0

	if linePause && s.st.SpeechBuffer.HasPendingLines() {
		for _, line := range s.st.SpeechBuffer.DrainLines() {
			if line != "" {
				s.st.Speak(line)
			}
		}
	}
	if !s.st.SpeechBuffer.IsEmpty() {
		s.st.Speak(s.st.SpeechBuffer.Flush())
	}
}

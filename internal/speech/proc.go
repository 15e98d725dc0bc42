package speech

import (
	"context"
	"os/exec"
	"sync"
	"syscall"
	"time"

	xansi "github.com/charmbracelet/x/ansi"

	"tdsr/internal/system"
)

// initTimeout bounds how long a backend candidate may take to prove itself.
const initTimeout = 2 * time.Second

// checkCommand runs a probe command and reports whether it exited zero
// within the init timeout.
func checkCommand(name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run()
}

// sanitize strips any stray escape sequences before a string reaches an
// engine.
func sanitize(text string) string {
	return xansi.Strip(text)
}

// settings is the shared rate/volume/voice state a subprocess backend keeps.
type settings struct {
	rate   int
	volume int
	voice  int
}

// buildFunc constructs the child that renders one utterance.
type buildFunc func(text string, st settings) *exec.Cmd

// procSynth renders speech by spawning one child process per utterance and
// draining a serial queue. Cancel kills the playing child's process group
// and empties the queue.
type procSynth struct {
	name  string
	build buildFunc

	mu     sync.Mutex
	st     settings
	queue  []string
	cur    *exec.Cmd
	closed bool

	wake chan struct{}
}

func newProcSynth(name string, build buildFunc) *procSynth {
	p := &procSynth{
		name:  name,
		build: build,
		st:    settings{rate: 50, volume: 80},
		wake:  make(chan struct{}, 1),
	}
	go p.run()
	return p
}

func (p *procSynth) run() {
	for range p.wake {
		for {
			p.mu.Lock()
			if p.closed || len(p.queue) == 0 {
				p.mu.Unlock()
				break
			}
			text := p.queue[0]
			p.queue = p.queue[1:]
			cmd := p.build(text, p.st)
			cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
			if err := cmd.Start(); err != nil {
				p.mu.Unlock()
				system.Logger.Error("speech child failed to start", "backend", p.name, "err", err)
				continue
			}
			p.cur = cmd
			p.mu.Unlock()

			_ = cmd.Wait()

			p.mu.Lock()
			p.cur = nil
			p.mu.Unlock()
		}
	}
}

func (p *procSynth) signalWake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *procSynth) Speak(text string, interrupt bool) error {
	text = sanitize(text)
	if text == "" {
		return nil
	}
	if interrupt {
		_ = p.Cancel()
	}
	p.mu.Lock()
	if !p.closed {
		p.queue = append(p.queue, text)
	}
	p.mu.Unlock()
	p.signalWake()
	return nil
}

func (p *procSynth) Letter(text string) error {
	return p.Speak(text, false)
}

// Cancel empties the queue and kills the playing child's process group so
// piped players die with the synthesizer.
func (p *procSynth) Cancel() error {
	p.mu.Lock()
	p.queue = nil
	cur := p.cur
	p.mu.Unlock()
	if cur != nil && cur.Process != nil {
		_ = syscall.Kill(-cur.Process.Pid, syscall.SIGKILL)
	}
	return nil
}

func (p *procSynth) SetRate(rate int) error {
	p.mu.Lock()
	p.st.rate = clamp(rate)
	p.mu.Unlock()
	return nil
}

func (p *procSynth) SetVolume(volume int) error {
	p.mu.Lock()
	p.st.volume = clamp(volume)
	p.mu.Unlock()
	return nil
}

func (p *procSynth) SetVoice(idx int) error {
	p.mu.Lock()
	if idx >= 0 {
		p.st.voice = idx
	}
	p.mu.Unlock()
	return nil
}

func (p *procSynth) ListVoices() ([]string, error) {
	return nil, nil
}

func (p *procSynth) Name() string {
	return p.name
}

func (p *procSynth) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	_ = p.Cancel()
	return nil
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

package speech

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// nativeSynth binds the desktop platform's speech command. Voice selection
// maps the configured index into the installed voice list.
type nativeSynth struct {
	*procSynth

	mu     sync.Mutex
	voices []string
}

func newNativeSynth() (Synth, error) {
	if _, err := exec.LookPath("say"); err != nil {
		return nil, fmt.Errorf("say not found: %w", err)
	}
	if err := checkCommand("say", "-v", "?"); err != nil {
		return nil, fmt.Errorf("say health check: %w", err)
	}
	n := &nativeSynth{}
	n.procSynth = newProcSynth("native", n.buildCmd)
	if voices, err := n.ListVoices(); err == nil {
		n.mu.Lock()
		n.voices = voices
		n.mu.Unlock()
	}
	return n, nil
}

func (n *nativeSynth) buildCmd(text string, st settings) *exec.Cmd {
	// say speaks 90..600 wpm comfortably; 50 maps near the default 175.
	wpm := 90 + st.rate*85/50
	if st.rate > 50 {
		wpm = 175 + (st.rate-50)*425/50
	}
	args := []string{"-r", strconv.Itoa(wpm)}
	n.mu.Lock()
	if st.voice > 0 && st.voice < len(n.voices) {
		args = append(args, "-v", n.voices[st.voice])
	}
	n.mu.Unlock()
	cmd := exec.Command("say", args...)
	cmd.Stdin = strings.NewReader(text + "\n")
	return cmd
}

func (n *nativeSynth) ListVoices() ([]string, error) {
	out, err := exec.Command("say", "-v", "?").Output()
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	var voices []string
	for _, line := range strings.Split(string(out), "\n") {
		if f := strings.Fields(line); len(f) > 0 {
			voices = append(voices, f[0])
		}
	}
	return voices, nil
}

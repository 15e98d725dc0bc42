package speech

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// daemonSynth speaks through the local speech daemon via spd-say. Each
// utterance is one spd-say invocation that waits for completion, which
// gives the serial queue its pacing.
type daemonSynth struct {
	*procSynth
}

func newDaemonSynth() (Synth, error) {
	if _, err := exec.LookPath("spd-say"); err != nil {
		return nil, fmt.Errorf("spd-say not found: %w", err)
	}
	if err := checkCommand("spd-say", "--version"); err != nil {
		return nil, fmt.Errorf("speech daemon health check: %w", err)
	}
	return &daemonSynth{
		procSynth: newProcSynth("speechd", buildDaemonCmd),
	}, nil
}

func buildDaemonCmd(text string, st settings) *exec.Cmd {
	// spd-say takes -100..100 for both rate and volume; 0 is the daemon's
	// normal.
	args := []string{
		"-w",
		"-r", strconv.Itoa(st.rate*2 - 100),
		"-i", strconv.Itoa(st.volume*2 - 100),
		"--", text,
	}
	return exec.Command("spd-say", args...)
}

// Cancel tells the daemon to drop its own queue too; killing the waiting
// spd-say alone would leave the daemon speaking.
func (d *daemonSynth) Cancel() error {
	_ = d.procSynth.Cancel()
	return exec.Command("spd-say", "-C").Run()
}

func (d *daemonSynth) Speak(text string, interrupt bool) error {
	if interrupt {
		_ = d.Cancel()
	}
	return d.procSynth.Speak(text, false)
}

func (d *daemonSynth) ListVoices() ([]string, error) {
	out, err := exec.Command("spd-say", "-L").Output()
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	var voices []string
	for _, line := range strings.Split(string(out), "\n")[1:] {
		if f := strings.Fields(line); len(f) > 0 {
			voices = append(voices, f[0])
		}
	}
	return voices, nil
}

package speech

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"tdsr/internal/platform"
	"tdsr/internal/system"
)

// wslgPulseServer is where WSLg exposes its PulseAudio socket.
const wslgPulseServer = "/mnt/wslg/PulseServer"

// pulseSynth synthesizes with espeak-ng and pipes the audio to the local
// PulseAudio daemon through paplay. One pipeline runs per utterance.
type pulseSynth struct {
	*procSynth
}

func newPulseSynth() (Synth, error) {
	if err := setupPulseServer(); err != nil {
		return nil, err
	}
	if _, err := exec.LookPath("espeak-ng"); err != nil {
		return nil, fmt.Errorf("espeak-ng not found: %w", err)
	}
	if err := checkCommand("espeak-ng", "--version"); err != nil {
		return nil, fmt.Errorf("espeak-ng health check: %w", err)
	}
	if _, err := exec.LookPath("paplay"); err != nil {
		return nil, fmt.Errorf("paplay not found: %w", err)
	}
	return &pulseSynth{
		procSynth: newProcSynth("pulseaudio", buildPulseCmd),
	}, nil
}

func setupPulseServer() error {
	if os.Getenv("PULSE_SERVER") != "" {
		return nil
	}
	if _, err := os.Stat(wslgPulseServer); err == nil {
		system.Logger.Debug("using WSLg pulse server", "path", wslgPulseServer)
		os.Setenv("PULSE_SERVER", wslgPulseServer)
		return nil
	}
	if platform.IsWSL() {
		return fmt.Errorf("pulse server not found at %s", wslgPulseServer)
	}
	// Native Linux: let the client libraries find the default socket.
	return nil
}

func buildPulseCmd(text string, st settings) *exec.Cmd {
	// espeak-ng speed is 80..450 wpm; amplitude 0..200.
	speed := 80 + st.rate*370/100
	amp := st.volume * 2
	pipeline := fmt.Sprintf("espeak-ng --stdout -s %d -a %d | paplay", speed, amp)
	cmd := exec.Command("/bin/sh", "-c", pipeline)
	cmd.Stdin = strings.NewReader(text + "\n")
	return cmd
}

func (p *pulseSynth) ListVoices() ([]string, error) {
	out, err := exec.Command("espeak-ng", "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	var voices []string
	for _, line := range strings.Split(string(out), "\n")[1:] {
		if f := strings.Fields(line); len(f) >= 4 {
			voices = append(voices, f[3])
		}
	}
	return voices, nil
}

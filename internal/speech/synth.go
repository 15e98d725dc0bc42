package speech

import (
	"errors"
	"runtime"

	"tdsr/internal/platform"
	"tdsr/internal/system"
)

// Synth is the capability set every speech backend provides. Rate and
// volume are 0..100 with 50 meaning normal; each backend normalizes to its
// engine's native range.
type Synth interface {
	// Speak queues an utterance. With interrupt, anything queued or playing
	// is cancelled first.
	Speak(text string, interrupt bool) error
	// Letter speaks a single character with letter intonation.
	Letter(text string) error
	// Cancel promptly stops the current utterance and drops the queue.
	Cancel() error
	SetRate(rate int) error
	SetVolume(volume int) error
	SetVoice(idx int) error
	ListVoices() ([]string, error)
	// Name identifies the backend for logging.
	Name() string
	Close() error
}

// ErrNoBackend is returned by NewSynth when every candidate failed; the
// caller runs in silent mode.
var ErrNoBackend = errors.New("no speech backend available")

type factory func() (Synth, error)

// NewSynth picks a backend by platform, first success wins:
//
//	WSL:    pulseaudio+espeak -> Windows SAPI via PowerShell -> speech daemon
//	Linux:  speech daemon -> pulseaudio+espeak
//	Darwin: native only
//
// A candidate succeeds when it initializes and answers a health check within
// two seconds. When everything fails the returned synth is silent and the
// error is ErrNoBackend.
func NewSynth() (Synth, error) {
	var candidates []factory
	switch {
	case runtime.GOOS == "linux" && platform.IsWSL():
		candidates = []factory{newPulseSynth, newSAPISynth, newDaemonSynth}
	case runtime.GOOS == "linux":
		candidates = []factory{newDaemonSynth, newPulseSynth}
	case runtime.GOOS == "darwin":
		candidates = []factory{newNativeSynth}
	default:
		candidates = []factory{newDaemonSynth, newPulseSynth}
	}

	for _, f := range candidates {
		s, err := f()
		if err != nil {
			system.Logger.Debug("speech backend unavailable", "err", err)
			continue
		}
		system.Logger.Info("speech backend initialized", "backend", s.Name())
		return s, nil
	}
	return NewSilentSynth(), ErrNoBackend
}

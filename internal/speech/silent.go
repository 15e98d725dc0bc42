package speech

// silentSynth is the fallback when no backend initializes: the session
// keeps working, speech is a no-op.
type silentSynth struct{}

// NewSilentSynth returns a synth that swallows everything.
func NewSilentSynth() Synth {
	return silentSynth{}
}

func (silentSynth) Speak(string, bool) error      { return nil }
func (silentSynth) Letter(string) error           { return nil }
func (silentSynth) Cancel() error                 { return nil }
func (silentSynth) SetRate(int) error             { return nil }
func (silentSynth) SetVolume(int) error           { return nil }
func (silentSynth) SetVoice(int) error            { return nil }
func (silentSynth) ListVoices() ([]string, error) { return nil, nil }
func (silentSynth) Name() string                  { return "silent" }
func (silentSynth) Close() error                  { return nil }

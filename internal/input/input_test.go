package input

import (
	"testing"
	"time"

	"tdsr/internal/config"
	"tdsr/internal/review"
	"tdsr/internal/speech"
	"tdsr/internal/state"
	"tdsr/internal/term"
	tu "tdsr/internal/testutil"
)

type fakeSynth struct {
	spoken  []string
	letters []string
}

func (f *fakeSynth) Speak(text string, interrupt bool) error {
	f.spoken = append(f.spoken, text)
	return nil
}
func (f *fakeSynth) Letter(text string) error {
	f.letters = append(f.letters, text)
	return nil
}
func (f *fakeSynth) Cancel() error                 { return nil }
func (f *fakeSynth) SetRate(int) error             { return nil }
func (f *fakeSynth) SetVolume(int) error           { return nil }
func (f *fakeSynth) SetVoice(int) error            { return nil }
func (f *fakeSynth) ListVoices() ([]string, error) { return nil, nil }
func (f *fakeSynth) Name() string                  { return "fake" }
func (f *fakeSynth) Close() error                  { return nil }

func newTestSession(t *testing.T) (*state.State, *fakeSynth, *term.Emulator) {
	t.Helper()
	defer tu.WithEnv(t, "HOME", t.TempDir())()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	fake := &fakeSynth{}
	st := &state.State{
		Config:       cfg,
		Review:       review.NewCursor(20, 5),
		Synth:        fake,
		SpeechBuffer: speech.NewBuffer(),
	}
	st.CompileSymbols()
	emu := term.NewEmulator(20, 5)
	emu.ProcessWithSpeech([]byte("foo bar baz"), st.SpeechBuffer, false)
	st.SpeechBuffer.Clear()
	return st, fake, emu
}

func TestMetaKeyNavigates(t *testing.T) {
	st, fake, emu := newTestSession(t)
	h := NewDefaultHandler(DefaultKeymap())

	action, err := h.Process([]byte("\x1bi"), st, emu)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if action != state.ActionHandled {
		t.Fatalf("action = %v, want handled", action)
	}
	if len(fake.spoken) == 0 || fake.spoken[0] != "foo bar baz" {
		t.Fatalf("spoken = %v", fake.spoken)
	}
}

func TestUnboundKeyPassesThrough(t *testing.T) {
	st, _, emu := newTestSession(t)
	h := NewDefaultHandler(DefaultKeymap())

	action, err := h.Process([]byte("a"), st, emu)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if action != state.ActionPassthrough {
		t.Fatalf("action = %v, want passthrough", action)
	}
}

func TestDoubleTapSpellsWord(t *testing.T) {
	st, fake, emu := newTestSession(t)
	h := NewDefaultHandler(DefaultKeymap())

	base := time.Now()
	h.now = func() time.Time { return base }
	if _, err := h.Process([]byte("\x1bk"), st, emu); err != nil {
		t.Fatalf("first press: %v", err)
	}
	if len(fake.spoken) == 0 || fake.spoken[0] != "foo" {
		t.Fatalf("spoken = %v", fake.spoken)
	}

	// Exactly at the window boundary still counts as a double-tap.
	h.now = func() time.Time { return base.Add(doubleTapWindow) }
	if _, err := h.Process([]byte("\x1bk"), st, emu); err != nil {
		t.Fatalf("second press: %v", err)
	}
	if len(fake.letters) != 3 {
		t.Fatalf("letters = %v, want f o o spelled", fake.letters)
	}
}

func TestDoubleTapExpiresPastWindow(t *testing.T) {
	st, fake, emu := newTestSession(t)
	h := NewDefaultHandler(DefaultKeymap())

	base := time.Now()
	h.now = func() time.Time { return base }
	if _, err := h.Process([]byte("\x1bk"), st, emu); err != nil {
		t.Fatalf("first press: %v", err)
	}
	h.now = func() time.Time { return base.Add(doubleTapWindow + time.Millisecond) }
	if _, err := h.Process([]byte("\x1bk"), st, emu); err != nil {
		t.Fatalf("second press: %v", err)
	}
	if len(fake.letters) != 0 {
		t.Fatalf("one millisecond past the window must not spell, got %v", fake.letters)
	}
}

func TestConfigMenuPushAndToggle(t *testing.T) {
	st, fake, emu := newTestSession(t)
	h := NewDefaultHandler(DefaultKeymap())

	if _, err := h.Process([]byte("\x1bc"), st, emu); err != nil {
		t.Fatalf("enter config: %v", err)
	}
	if len(st.Handlers) != 1 {
		t.Fatalf("handler stack = %d, want 1", len(st.Handlers))
	}
	if fake.spoken[0] != "config" {
		t.Fatalf("spoken = %v", fake.spoken)
	}

	top := st.Handlers[0]
	if _, err := top.Process([]byte("l"), st, emu); err != nil {
		t.Fatalf("toggle line pause: %v", err)
	}
	if st.Config.LinePause() {
		t.Fatal("line pause should be off after toggle")
	}
	if got := fake.spoken[len(fake.spoken)-1]; got != "line pause off" {
		t.Fatalf("spoken = %q", got)
	}

	action, err := top.Process([]byte("\x1b"), st, emu)
	if err != nil {
		t.Fatalf("esc: %v", err)
	}
	if action != state.ActionRemove {
		t.Fatalf("esc should pop the menu, got %v", action)
	}
}

func TestValueEntryCommitsRate(t *testing.T) {
	st, fake, emu := newTestSession(t)
	menu := NewConfigHandler()

	if _, err := menu.Process([]byte("r"), st, emu); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if len(st.Handlers) != 1 {
		t.Fatalf("handler stack = %d, want buffer handler", len(st.Handlers))
	}
	entry := st.Handlers[0]
	for _, key := range []string{"7", "5"} {
		if _, err := entry.Process([]byte(key), st, emu); err != nil {
			t.Fatalf("digit: %v", err)
		}
	}
	action, err := entry.Process([]byte("\r"), st, emu)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if action != state.ActionRemove {
		t.Fatalf("commit should pop, got %v", action)
	}
	if st.Config.Rate() != 75 {
		t.Fatalf("rate = %d, want 75", st.Config.Rate())
	}
	if got := fake.spoken[len(fake.spoken)-1]; got != "confirmed" {
		t.Fatalf("spoken = %q", got)
	}
}

func TestValueEntryRejectsOutOfRange(t *testing.T) {
	st, fake, emu := newTestSession(t)
	entry := NewBufferHandler(commitVolume)

	for _, key := range []string{"9", "9", "9"} {
		if _, err := entry.Process([]byte(key), st, emu); err != nil {
			t.Fatalf("digit: %v", err)
		}
	}
	if _, err := entry.Process([]byte("\r"), st, emu); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := fake.spoken[len(fake.spoken)-1]; got != "invalid" {
		t.Fatalf("spoken = %q, want invalid", got)
	}
	if st.Config.Volume() != 80 {
		t.Fatalf("volume = %d, want untouched default", st.Config.Volume())
	}
}

func TestValueEntryBackspaceAndCancel(t *testing.T) {
	st, _, emu := newTestSession(t)
	committed := ""
	entry := NewBufferHandler(func(input string, _ *state.State) {
		committed = input
	})

	for _, key := range []string{"4", "2", "\x7f", "1"} {
		if _, err := entry.Process([]byte(key), st, emu); err != nil {
			t.Fatalf("key: %v", err)
		}
	}
	action, err := entry.Process([]byte("\x1b"), st, emu)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if action != state.ActionRemove {
		t.Fatalf("cancel should pop, got %v", action)
	}
	if committed != "" {
		t.Fatalf("cancel must not commit, got %q", committed)
	}
}

func TestCopyModeAbortsOnUnknownKey(t *testing.T) {
	st, fake, emu := newTestSession(t)
	h := NewCopyHandler()

	action, err := h.Process([]byte("z"), st, emu)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if action != state.ActionRemove {
		t.Fatalf("copy mode should pop after one key, got %v", action)
	}
	if got := fake.spoken[len(fake.spoken)-1]; got != "unknown key" {
		t.Fatalf("spoken = %q", got)
	}
}

func TestQuietToggleMutesNavigation(t *testing.T) {
	st, fake, emu := newTestSession(t)
	h := NewDefaultHandler(DefaultKeymap())

	if _, err := h.Process([]byte("\x1bq"), st, emu); err != nil {
		t.Fatalf("quiet: %v", err)
	}
	if !st.Quiet {
		t.Fatal("quiet should be on")
	}
	before := len(fake.spoken)
	if _, err := h.Process([]byte("\x1bi"), st, emu); err != nil {
		t.Fatalf("current line: %v", err)
	}
	if len(fake.spoken) != before {
		t.Fatalf("quiet mode spoke: %v", fake.spoken[before:])
	}
}

func TestArrowSchedulesTracking(t *testing.T) {
	st, _, emu := newTestSession(t)
	h := NewDefaultHandler(DefaultKeymap())

	action, err := h.Process([]byte("\x1b[A"), st, emu)
	if err != nil {
		t.Fatalf("arrow: %v", err)
	}
	if action != state.ActionPassthrough {
		t.Fatalf("arrows must pass through, got %v", action)
	}
	if _, ok := st.TimeUntilNextScheduled(); !ok {
		t.Fatal("arrow should schedule a settle announcement")
	}
	if !st.TempSilence {
		t.Fatal("temp silence should hold until the announcement fires")
	}
}

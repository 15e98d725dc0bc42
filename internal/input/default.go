package input

import (
	"time"

	"tdsr/internal/state"
	"tdsr/internal/system"
	"tdsr/internal/term"
)

// doubleTapWindow is how close two presses of the same key must land to
// count as a double-tap. A press exactly on the boundary still counts.
const doubleTapWindow = 500 * time.Millisecond

// DefaultHandler is the base of the input stack: it maps meta-prefixed keys
// to navigation commands and passes everything else to the shell.
type DefaultHandler struct {
	keymap map[string]KeyAction

	lastKey     string
	lastKeyTime time.Time

	// now is replaceable for double-tap timing tests.
	now func() time.Time
}

// NewDefaultHandler builds the base handler over a keymap.
func NewDefaultHandler(keymap map[string]KeyAction) *DefaultHandler {
	return &DefaultHandler{keymap: keymap, now: time.Now}
}

func (h *DefaultHandler) isRepeat(key string) bool {
	return h.lastKey == key && h.now().Sub(h.lastKeyTime) <= doubleTapWindow
}

// Process dispatches one key. Double-tap variants are checked first, then
// single bindings, then plugin triggers; anything unrecognized passes
// through to the PTY.
func (h *DefaultHandler) Process(key []byte, st *state.State, emu *term.Emulator) (state.Action, error) {
	k := string(key)
	now := h.now()

	if h.isRepeat(k) {
		if action, ok := h.keymap[k+k]; ok {
			h.lastKey = k
			h.lastKeyTime = now
			return h.execute(action, st, emu)
		}
	}

	h.lastKey = k
	h.lastKeyTime = now

	if action, ok := h.keymap[k]; ok {
		return h.execute(action, st, emu)
	}

	// Meta+letter without a binding may be a plugin trigger.
	if len(key) == 2 && key[0] == 0x1b && st.HasPlugin(string(key[1])) {
		st.ExecutePlugin(string(key[1]), emu.Screen())
		return state.ActionHandled, nil
	}

	return state.ActionPassthrough, nil
}

func (h *DefaultHandler) execute(action KeyAction, st *state.State, emu *term.Emulator) (state.Action, error) {
	screen := emu.Screen()

	switch action {
	case ActConfig:
		st.Speak("config")
		st.PushHandler(NewConfigHandler())
	case ActQuiet:
		if st.ToggleQuiet() {
			// The mute is already on; announce it straight at the synth.
			if err := st.Synth.Speak("quiet on", true); err != nil {
				system.Logger.Error("speak failed", "err", err)
			}
		} else {
			st.Speak("quiet off")
		}
	case ActCopyMode:
		st.Speak("copy")
		st.PushHandler(NewCopyHandler())
	case ActSelection:
		if st.HasSelection() {
			st.CopySelection(screen)
		} else {
			st.StartSelection()
		}
	case ActSilence:
		st.ClearSpeechBuffer()
		st.CancelSpeech()

	case ActPrevLine:
		st.PrevLine(screen)
	case ActCurrentLine:
		st.CurrentLine(screen)
	case ActNextLine:
		st.NextLine(screen)
	case ActPrevWord:
		st.PrevWord(screen)
	case ActCurrentWord:
		st.SayWord(screen, false)
	case ActSpellWord:
		st.SayWord(screen, true)
	case ActNextWord:
		st.NextWord(screen)
	case ActPrevChar:
		st.PrevChar(screen)
	case ActCurrentChar:
		st.CurrentChar(screen, false)
	case ActPhoneticChar:
		st.CurrentChar(screen, true)
	case ActNextChar:
		st.NextChar(screen)
	case ActTopOfScreen:
		st.TopOfScreen(screen)
	case ActBottomOfScreen:
		st.BottomOfScreen(screen)
	case ActStartOfLine:
		st.StartOfLine(screen)
	case ActEndOfLine:
		st.EndOfLine(screen)

	case ActArrowUp, ActArrowDown:
		h.scheduleTracking(st, func(s *state.State, sc *term.Screen) error {
			s.SayLine(sc, s.Review.Y)
			return nil
		})
		return state.ActionPassthrough, nil
	case ActArrowLeft, ActArrowRight:
		h.scheduleTracking(st, func(s *state.State, sc *term.Screen) error {
			s.SayChar(sc, s.Review.Y, s.Review.X, false)
			return nil
		})
		return state.ActionPassthrough, nil

	case ActBackspace:
		// Announce the character about to be erased.
		x, y := emu.Cursor()
		if x > 0 {
			st.SayChar(screen, y, x-1, false)
		}
		return state.ActionPassthrough, nil
	case ActDelete:
		x, y := emu.Cursor()
		st.SayChar(screen, y, x, false)
		return state.ActionPassthrough, nil

	default:
		system.Logger.Debug("unmapped action", "action", action)
		return state.ActionPassthrough, nil
	}

	return state.ActionHandled, nil
}

// scheduleTracking queues a settle announcement after the cursor delay.
func (h *DefaultHandler) scheduleTracking(st *state.State, fn func(*state.State, *term.Screen) error) {
	if !st.Config.CursorTracking() {
		return
	}
	st.Schedule(st.CursorDelay(), fn, true)
}

package input

import (
	"tdsr/internal/state"
	"tdsr/internal/term"
)

// BufferHandler collects a one-line value (rate, volume, delay). Enter
// commits through the callback, ESC cancels; either way the handler pops.
type BufferHandler struct {
	buf    []rune
	commit func(input string, st *state.State)
}

// NewBufferHandler returns a value-entry handler that calls commit with the
// collected text on Enter.
func NewBufferHandler(commit func(input string, st *state.State)) *BufferHandler {
	return &BufferHandler{commit: commit}
}

// Process consumes printable characters, backspace, Enter and ESC.
func (h *BufferHandler) Process(key []byte, st *state.State, _ *term.Emulator) (state.Action, error) {
	switch {
	case len(key) == 1 && (key[0] == '\r' || key[0] == '\n'):
		if h.commit != nil {
			h.commit(string(h.buf), st)
		}
		return state.ActionRemove, nil
	case len(key) == 1 && key[0] == 0x1b:
		return state.ActionRemove, nil
	case len(key) == 1 && (key[0] == 0x08 || key[0] == 0x7f):
		if len(h.buf) > 0 {
			h.buf = h.buf[:len(h.buf)-1]
		}
	default:
		for _, r := range string(key) {
			if r >= ' ' {
				h.buf = append(h.buf, r)
				st.SpeakChar(r)
			}
		}
	}
	return state.ActionHandled, nil
}

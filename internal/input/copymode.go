package input

import (
	"strings"

	"tdsr/internal/clipboard"
	"tdsr/internal/state"
	"tdsr/internal/system"
	"tdsr/internal/term"
)

// CopyHandler is copy mode (meta+v): one decision, then it pops. l copies
// the review line, s the whole screen, anything else aborts.
type CopyHandler struct{}

// NewCopyHandler returns the copy-mode handler.
func NewCopyHandler() *CopyHandler {
	return &CopyHandler{}
}

// Process handles the single copy-mode key.
func (h *CopyHandler) Process(key []byte, st *state.State, emu *term.Emulator) (state.Action, error) {
	screen := emu.Screen()
	switch string(key) {
	case "l":
		line := screen.LineTrimmed(st.Review.Y)
		if err := clipboard.Copy(line); err != nil {
			system.Logger.Error("copy line", "err", err)
			st.Speak("Clipboard unavailable")
		} else {
			st.Speak("line")
		}
	case "s":
		var b strings.Builder
		for y := 0; y < screen.Rows; y++ {
			line := screen.LineTrimmed(y)
			if line != "" {
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
		if err := clipboard.Copy(b.String()); err != nil {
			system.Logger.Error("copy screen", "err", err)
			st.Speak("Clipboard unavailable")
		} else {
			st.Speak("screen")
		}
	default:
		st.Speak("unknown key")
	}
	return state.ActionRemove, nil
}

package input

import (
	"strconv"

	"tdsr/internal/state"
	"tdsr/internal/system"
	"tdsr/internal/term"
)

// ConfigHandler is the modal configuration menu (meta+c). Single letters
// toggle settings or push a value-entry handler; ESC or Enter leaves.
type ConfigHandler struct{}

// NewConfigHandler returns the menu handler.
func NewConfigHandler() *ConfigHandler {
	return &ConfigHandler{}
}

// Process interprets one menu key.
func (h *ConfigHandler) Process(key []byte, st *state.State, _ *term.Emulator) (state.Action, error) {
	switch string(key) {
	case "r":
		st.Speak("rate")
		st.PushHandler(NewBufferHandler(commitRate))
	case "v":
		st.Speak("volume")
		st.PushHandler(NewBufferHandler(commitVolume))
	case "V":
		st.Speak("voice")
		st.PushHandler(NewBufferHandler(commitVoice))
	case "d":
		st.Speak("delay (ms)")
		st.PushHandler(NewBufferHandler(commitCursorDelay))
	case "p":
		toggle(st, "process_symbols", "process symbols", st.Config.ProcessSymbols())
	case "e":
		toggle(st, "key_echo", "key echo", st.Config.KeyEcho())
	case "c":
		toggle(st, "cursor_tracking", "cursor tracking", st.Config.CursorTracking())
	case "l":
		toggle(st, "line_pause", "line pause", st.Config.LinePause())
	case "s":
		toggle(st, "repeated_symbols", "repeated symbols", st.Config.RepeatedSymbols())
	case "\r", "\n", "\x1b":
		return state.ActionRemove, nil
	}
	return state.ActionHandled, nil
}

func toggle(st *state.State, key, spoken string, current bool) {
	next := !current
	st.Config.Set("speech", key, strconv.FormatBool(next))
	saveConfig(st)
	if next {
		st.Speak(spoken + " on")
	} else {
		st.Speak(spoken + " off")
	}
}

func saveConfig(st *state.State) {
	if err := st.Config.Save(); err != nil {
		system.Logger.Error("save config", "err", err)
	}
}

func commitRate(input string, st *state.State) {
	v, err := strconv.Atoi(input)
	if err != nil || v < 0 || v > 100 {
		st.Speak("invalid")
		return
	}
	st.Config.Set("speech", "rate", strconv.Itoa(v))
	saveConfig(st)
	if err := st.Synth.SetRate(v); err != nil {
		system.Logger.Error("set rate", "err", err)
	}
	st.Speak("confirmed")
}

func commitVolume(input string, st *state.State) {
	v, err := strconv.Atoi(input)
	if err != nil || v < 0 || v > 100 {
		st.Speak("invalid")
		return
	}
	st.Config.Set("speech", "volume", strconv.Itoa(v))
	saveConfig(st)
	if err := st.Synth.SetVolume(v); err != nil {
		system.Logger.Error("set volume", "err", err)
	}
	st.Speak("confirmed")
}

func commitVoice(input string, st *state.State) {
	v, err := strconv.Atoi(input)
	if err != nil || v < 0 {
		st.Speak("invalid")
		return
	}
	st.Config.Set("speech", "voice_idx", strconv.Itoa(v))
	saveConfig(st)
	if err := st.Synth.SetVoice(v); err != nil {
		system.Logger.Error("set voice", "err", err)
	}
	st.Speak("confirmed")
}

func commitCursorDelay(input string, st *state.State) {
	// Milliseconds, matching the file format and the prompt.
	v, err := strconv.Atoi(input)
	if err != nil || v < 0 {
		st.Speak("invalid")
		return
	}
	st.Config.Set("speech", "cursor_delay", strconv.Itoa(v))
	saveConfig(st)
	st.Speak("confirmed")
}

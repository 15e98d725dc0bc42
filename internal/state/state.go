// Package state aggregates everything the event loop owns: configuration,
// the review cursor, the speech pipeline, modal input handlers, and the
// scheduler that paces cursor-tracking speech.
package state

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"tdsr/internal/clipboard"
	"tdsr/internal/config"
	"tdsr/internal/plugins"
	"tdsr/internal/review"
	"tdsr/internal/speech"
	"tdsr/internal/symbols"
	"tdsr/internal/system"
	"tdsr/internal/term"
)

// Action is what a key handler decides about a key.
type Action int

const (
	// ActionPassthrough sends the original bytes to the PTY.
	ActionPassthrough Action = iota
	// ActionHandled consumes the key.
	ActionHandled
	// ActionRemove consumes the key and pops the handler off the stack.
	ActionRemove
)

// KeyHandler processes one decoded key. Handlers push successors onto
// st.Handlers for modal entry and return ActionRemove to leave.
type KeyHandler interface {
	Process(key []byte, st *State, emu *term.Emulator) (Action, error)
}

// delayed is a scheduled closure with its due time.
type delayed struct {
	when time.Time
	fn   func(st *State, screen *term.Screen) error
}

// State is the central mutable state of a session. The event loop owns it;
// handlers borrow it for the duration of one key.
type State struct {
	Config *config.Config
	Review *review.Cursor
	Synth  speech.Synth

	SpeechBuffer *speech.Buffer

	// Quiet suppresses all speech except explicit cancel.
	Quiet bool

	// TempSilence suppresses automatic output while a scheduled
	// cursor-tracking announcement is pending.
	TempSilence bool

	// Handlers is the modal handler stack; the top gets each key first and
	// an empty stack means default navigation.
	Handlers []KeyHandler

	// LastCommand is the most recent shell command line, for plugin filters.
	LastCommand string

	// LastKey is the last printable the user typed, pending its echo.
	LastKey rune

	Plugins *plugins.Manager

	symbolRe *regexp.Regexp
	delayed  []delayed
}

// New loads configuration, brings up a synth, and assembles the session
// state. When no backend is available the returned state is silent but
// fully functional; the error is speech.ErrNoBackend in that case.
func New(cols, rows int) (*State, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	synth, synthErr := speech.NewSynth()
	if synthErr == nil {
		if err := synth.SetRate(cfg.Rate()); err != nil {
			system.Logger.Error("set rate", "err", err)
		}
		if err := synth.SetVolume(cfg.Volume()); err != nil {
			system.Logger.Error("set volume", "err", err)
		}
		if err := synth.SetVoice(cfg.VoiceIdx()); err != nil {
			system.Logger.Error("set voice", "err", err)
		}
	}

	st := &State{
		Config:       cfg,
		Review:       review.NewCursor(cols, rows),
		Synth:        synth,
		SpeechBuffer: speech.NewBuffer(),
	}
	st.CompileSymbols()

	if len(cfg.Plugins) > 0 {
		st.Plugins = plugins.NewManager(cfg.Plugins, cfg.PluginCommands,
			config.PluginDir(), cfg.PromptPattern())
	}
	return st, synthErr
}

// CompileSymbols rebuilds the symbol-substitution matcher from the config
// table. Spaces are excluded; they already read as silence.
func (s *State) CompileSymbols() {
	var class strings.Builder
	for ch := range s.Config.Symbols {
		if ch == ' ' {
			continue
		}
		// Inside a class, -, ^, ] and \ must be escaped by hand; QuoteMeta
		// leaves a bare - alone and that reads as a range.
		switch ch {
		case '-', '^', ']', '\\':
			class.WriteByte('\\')
			class.WriteRune(ch)
		default:
			class.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	if class.Len() == 0 {
		s.symbolRe = nil
		return
	}
	re, err := regexp.Compile("[" + class.String() + "]")
	if err != nil {
		system.Logger.Error("symbol matcher failed to compile", "err", err)
		s.symbolRe = nil
		return
	}
	s.symbolRe = re
}

// Resize updates review cursor bounds after SIGWINCH.
func (s *State) Resize(cols, rows int) {
	s.Review.Resize(cols, rows)
}

// ToggleQuiet flips quiet mode and returns the new value.
func (s *State) ToggleQuiet() bool {
	s.Quiet = !s.Quiet
	return s.Quiet
}

// processSymbols substitutes symbol names when the feature is on.
func (s *State) processSymbols(text string) string {
	if !s.Config.ProcessSymbols() {
		return text
	}
	if s.symbolRe == nil {
		return symbols.Process(text, s.Config.Symbols)
	}
	return s.symbolRe.ReplaceAllStringFunc(text, func(m string) string {
		ch := []rune(m)[0]
		if name, ok := s.Config.Symbols[ch]; ok {
			return " " + name + " "
		}
		return m
	})
}

// Speak routes text through symbol processing to the synth. Quiet mode
// swallows it. Backend errors are logged, never propagated: one failed
// utterance must not kill the session.
func (s *State) Speak(text string) {
	if s.Quiet {
		return
	}
	text = strings.TrimSpace(s.processSymbols(text))
	if text == "" {
		return
	}
	if err := s.Synth.Speak(text, false); err != nil {
		system.Logger.Error("speak failed", "err", err)
	}
}

// SpeakChar voices a single character: its symbol name when mapped,
// otherwise letter mode.
func (s *State) SpeakChar(ch rune) {
	if s.Quiet {
		return
	}
	var err error
	if name, ok := s.Config.Symbols[ch]; ok {
		err = s.Synth.Letter(name)
	} else {
		err = s.Synth.Letter(string(ch))
	}
	if err != nil {
		system.Logger.Error("letter failed", "err", err)
	}
}

// CancelSpeech stops the synth immediately. Works even in quiet mode.
func (s *State) CancelSpeech() {
	if err := s.Synth.Cancel(); err != nil {
		system.Logger.Error("cancel failed", "err", err)
	}
}

// ClearSpeechBuffer drops pending output.
func (s *State) ClearSpeechBuffer() {
	s.SpeechBuffer.Clear()
}

// PushHandler installs a new top of the modal stack.
func (s *State) PushHandler(h KeyHandler) {
	s.Handlers = append(s.Handlers, h)
}

// PopHandler removes the top of the modal stack.
func (s *State) PopHandler() {
	if len(s.Handlers) > 0 {
		s.Handlers = s.Handlers[:len(s.Handlers)-1]
	}
}

// ---- selection ----

// StartSelection anchors a selection at the review cursor.
func (s *State) StartSelection() {
	s.Review.StartSelection()
	s.Speak("select")
}

// HasSelection reports whether a selection anchor is set.
func (s *State) HasSelection() bool {
	return s.Review.HasSelection()
}

// CopySelection reads the linear range from the anchor to the review
// cursor, hands it to the clipboard, and clears the anchor.
func (s *State) CopySelection(screen *term.Screen) {
	if !s.Review.HasSelection() {
		return
	}
	text := SelectRange(screen,
		s.Review.Anchor[0], s.Review.Anchor[1], s.Review.X, s.Review.Y)
	s.Review.ClearSelection()
	if err := clipboard.Copy(text); err != nil {
		system.Logger.Error("copy selection", "err", err)
		s.Speak("Clipboard unavailable")
		return
	}
	s.Speak("copied")
}

// SelectRange extracts the text between two grid positions in reading
// order: the tail of the first row, full middle rows, the head of the last,
// with LF at row boundaries. Wide continuation slots are skipped. Swapped
// endpoints normalize, so select(A,B) mirrors select(B,A).
func SelectRange(screen *term.Screen, startX, startY, endX, endY int) string {
	if startY > endY || (startY == endY && startX > endX) {
		startX, endX = endX, startX
		startY, endY = endY, startY
	}
	var b strings.Builder
	for y := startY; y <= endY; y++ {
		x0 := 0
		if y == startY {
			x0 = startX
		}
		x1 := screen.Cols - 1
		if y == endY {
			x1 = endX
		}
		for x := x0; x <= x1; x++ {
			if ch, ok := screen.CharAt(x, y); ok && ch != 0 {
				b.WriteRune(ch)
			}
		}
		if y < endY {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// ---- review cursor navigation ----

func (s *State) charAt(screen *term.Screen, x, y int) rune {
	ch, ok := screen.CharAt(x, y)
	if !ok {
		return ' '
	}
	return ch
}

func (s *State) currentRune(screen *term.Screen) rune {
	return s.charAt(screen, s.Review.X, s.Review.Y)
}

func (s *State) movePrevCell(screen *term.Screen) {
	if s.Review.X == 0 {
		if s.Review.Y == 0 {
			return
		}
		s.Review.Y--
		s.Review.X = screen.Cols - 1
	} else {
		s.Review.X--
	}
}

func (s *State) moveNextCell(screen *term.Screen) {
	if s.Review.X == screen.Cols-1 {
		if s.Review.Y == screen.Rows-1 {
			return
		}
		s.Review.Y++
		s.Review.X = 0
	} else {
		s.Review.X++
	}
}

// snapToBase walks left off wide-character continuation slots so the
// cursor always rests on a real character.
func (s *State) snapToBase(screen *term.Screen) {
	for s.currentRune(screen) == 0 && s.Review.X > 0 {
		s.Review.X--
	}
}

// lineText renders row y for speech, condensing repeated runs when enabled.
func (s *State) lineText(screen *term.Screen, y int) string {
	line := screen.LineTrimmed(y)
	if line == "" {
		return "blank"
	}
	if s.Config.RepeatedSymbols() {
		return symbols.Condense(line, s.Config.RepeatedSymbolsValues(), s.Config.Symbols)
	}
	return line
}

// SayLine speaks row y.
func (s *State) SayLine(screen *term.Screen, y int) {
	s.Speak(s.lineText(screen, y))
}

// PrevLine moves up one row (announcing "top" at the edge) and reads it.
func (s *State) PrevLine(screen *term.Screen) {
	if s.Review.Y == 0 {
		s.Speak("top")
	} else {
		s.Review.Y--
	}
	s.SayLine(screen, s.Review.Y)
}

// CurrentLine reads the review row.
func (s *State) CurrentLine(screen *term.Screen) {
	s.SayLine(screen, s.Review.Y)
}

// NextLine moves down one row (announcing "bottom" at the edge) and reads it.
func (s *State) NextLine(screen *term.Screen) {
	if s.Review.Y >= screen.Rows-1 {
		s.Speak("bottom")
	} else {
		s.Review.Y++
	}
	s.SayLine(screen, s.Review.Y)
}

// SayChar speaks the character at (x, y). Phonetic mode renders letters as
// NATO words ("cap" prefixed for capitals) and anything else by its symbol
// name or "unknown".
func (s *State) SayChar(screen *term.Screen, y, x int, phonetic bool) {
	ch := s.charAt(screen, x, y)
	if phonetic {
		lower := unicode.ToLower(ch)
		if word, ok := phonetics[lower]; ok {
			if unicode.IsUpper(ch) {
				s.Speak("cap " + word)
			} else {
				s.Speak(word)
			}
			return
		}
		if name, ok := s.Config.Symbols[ch]; ok {
			s.Speak(name)
		} else {
			s.Speak("unknown")
		}
		return
	}
	if name, ok := s.Config.Symbols[ch]; ok {
		s.Speak(name)
		return
	}
	s.SpeakChar(ch)
}

// PrevChar moves left one character and speaks it; "left" at the edge.
func (s *State) PrevChar(screen *term.Screen) {
	if s.Review.X == 0 {
		s.Speak("left")
	} else {
		s.Review.X--
		s.snapToBase(screen)
	}
	s.SayChar(screen, s.Review.Y, s.Review.X, false)
}

// CurrentChar speaks the character under the cursor.
func (s *State) CurrentChar(screen *term.Screen, phonetic bool) {
	s.SayChar(screen, s.Review.Y, s.Review.X, phonetic)
}

// NextChar moves right by the current character's width and speaks the
// character there; "right" at the edge.
func (s *State) NextChar(screen *term.Screen) {
	ch := s.currentRune(screen)
	w := 1
	if next, ok := screen.CharAt(s.Review.X+1, s.Review.Y); ok && next == 0 && ch != 0 {
		w = 2
	}
	s.Review.X += w
	if s.Review.X > screen.Cols-1 {
		s.Speak("right")
		s.Review.X = screen.Cols - 1
		s.snapToBase(screen)
	}
	s.SayChar(screen, s.Review.Y, s.Review.X, false)
}

// wordAtCursor collects the word under the cursor without disturbing it.
func (s *State) wordAtCursor(screen *term.Screen) string {
	origX, origY := s.Review.X, s.Review.Y
	defer func() {
		s.Review.X, s.Review.Y = origX, origY
	}()

	// Back up to the word start within this row.
	for s.Review.X > 0 &&
		s.currentRune(screen) != ' ' &&
		s.charAt(screen, s.Review.X-1, s.Review.Y) != ' ' {
		s.Review.X--
	}
	if s.currentRune(screen) == ' ' {
		return ""
	}

	var b strings.Builder
	for {
		ch := s.currentRune(screen)
		if ch == ' ' {
			break
		}
		if ch != 0 {
			b.WriteRune(ch)
		}
		if s.Review.X >= screen.Cols-1 {
			break
		}
		s.Review.X++
	}
	return b.String()
}

// SayWord speaks the word under the cursor, spelled letter by letter when
// spell is set. An all-space position says "space".
func (s *State) SayWord(screen *term.Screen, spell bool) {
	word := s.wordAtCursor(screen)
	if word == "" {
		s.Speak("space")
		return
	}
	if spell {
		for _, ch := range word {
			s.SpeakChar(ch)
		}
		return
	}
	s.Speak(word)
}

// PrevWord moves to the previous word on the row and speaks it; "left" at
// the edge.
func (s *State) PrevWord(screen *term.Screen) {
	if s.Review.X == 0 {
		s.Speak("left")
		s.SayWord(screen, false)
		return
	}
	for s.Review.X > 0 && s.currentRune(screen) != ' ' {
		s.Review.X--
	}
	for s.Review.X > 0 && s.currentRune(screen) == ' ' {
		s.Review.X--
	}
	for s.Review.X > 0 &&
		s.currentRune(screen) != ' ' &&
		s.charAt(screen, s.Review.X-1, s.Review.Y) != ' ' {
		s.Review.X--
	}
	s.SayWord(screen, false)
}

// NextWord moves to the next word on the row and speaks it; running off the
// right edge announces "right" and re-reads the current word.
func (s *State) NextWord(screen *term.Screen) {
	origX := s.Review.X
	for s.Review.X < screen.Cols-1 && s.currentRune(screen) != ' ' {
		s.Review.X++
	}
	for s.Review.X < screen.Cols-1 && s.currentRune(screen) == ' ' {
		s.Review.X++
	}
	if s.Review.X == screen.Cols-1 && s.currentRune(screen) == ' ' {
		s.Speak("right")
		s.Review.X = origX
	}
	s.SayWord(screen, false)
}

// TopOfScreen jumps to row zero and reads it.
func (s *State) TopOfScreen(screen *term.Screen) {
	s.Review.Y = 0
	s.SayLine(screen, 0)
}

// BottomOfScreen jumps to the last row and reads it.
func (s *State) BottomOfScreen(screen *term.Screen) {
	s.Review.Y = screen.Rows - 1
	s.SayLine(screen, s.Review.Y)
}

// StartOfLine jumps to the first non-blank cell (or column zero on a blank
// line) and speaks the character there.
func (s *State) StartOfLine(screen *term.Screen) {
	x := 0
	for x < screen.Cols-1 && s.charAt(screen, x, s.Review.Y) == ' ' {
		x++
	}
	if s.charAt(screen, x, s.Review.Y) == ' ' {
		x = 0
	}
	s.Review.X = x
	s.SayChar(screen, s.Review.Y, s.Review.X, false)
}

// EndOfLine jumps to the last non-blank cell (or the last column on a blank
// line) and speaks the character there.
func (s *State) EndOfLine(screen *term.Screen) {
	x := screen.Cols - 1
	for x > 0 && s.charAt(screen, x, s.Review.Y) == ' ' {
		x--
	}
	if s.charAt(screen, x, s.Review.Y) == ' ' {
		x = screen.Cols - 1
	}
	s.Review.X = x
	s.snapToBase(screen)
	s.SayChar(screen, s.Review.Y, s.Review.X, false)
}

// ---- plugins ----

// HasPlugin reports whether a key triggers a plugin.
func (s *State) HasPlugin(key string) bool {
	return s.Plugins != nil && s.Plugins.Has(key)
}

// ExecutePlugin runs the plugin bound to key and speaks its output; errors
// surface as a short spoken message.
func (s *State) ExecutePlugin(key string, screen *term.Screen) {
	if s.Plugins == nil {
		return
	}
	lines, err := s.Plugins.Execute(key, screen, s.LastCommand)
	if err != nil {
		system.Logger.Error("plugin error", "err", err)
		s.Speak("Plugin error")
		return
	}
	for _, line := range lines {
		s.Speak(line)
	}
}

// ---- cursor tracking / delayed speech ----

// Schedule queues fn to run after delay; tempSilence mutes automatic output
// until it fires or is cleared.
func (s *State) Schedule(delay time.Duration, fn func(st *State, screen *term.Screen) error, tempSilence bool) {
	s.delayed = append(s.delayed, delayed{when: time.Now().Add(delay), fn: fn})
	if tempSilence {
		s.TempSilence = true
	}
}

// ClearDelayed drops every scheduled function; a new keypress obsoletes any
// pending cursor-tracking speech.
func (s *State) ClearDelayed() {
	s.delayed = nil
	s.TempSilence = false
}

// RunScheduled executes every due function and reports whether any ran.
func (s *State) RunScheduled(screen *term.Screen) bool {
	now := time.Now()
	var due, rest []delayed
	for _, d := range s.delayed {
		if !now.Before(d.when) {
			due = append(due, d)
		} else {
			rest = append(rest, d)
		}
	}
	s.delayed = rest
	if len(due) == 0 {
		return false
	}
	s.TempSilence = false
	for _, d := range due {
		if err := d.fn(s, screen); err != nil {
			system.Logger.Error("scheduled function failed", "err", err)
		}
	}
	return true
}

// TimeUntilNextScheduled is the wait before the earliest pending function,
// or false when none are queued. Drives the mux timeout.
func (s *State) TimeUntilNextScheduled() (time.Duration, bool) {
	if len(s.delayed) == 0 {
		return 0, false
	}
	next := s.delayed[0].when
	for _, d := range s.delayed[1:] {
		if d.when.Before(next) {
			next = d.when
		}
	}
	d := time.Until(next)
	if d < 0 {
		d = 0
	}
	return d, true
}

// TrackCursor snaps the review cursor to the terminal cursor when tracking
// is on.
func (s *State) TrackCursor(x, y int) {
	if s.Config.CursorTracking() {
		s.Review.X = x
		s.Review.Y = y
	}
}

// AdjustForScroll shifts the review cursor so it follows content that
// scrolled; offset is positive when the screen moved up.
func (s *State) AdjustForScroll(offset, rows int) {
	if offset == 0 {
		return
	}
	y := s.Review.Y - offset
	if y < 0 {
		y = 0
	}
	if y > rows-1 {
		y = rows - 1
	}
	s.Review.Y = y
}

// CursorDelay is the configured settle delay as a duration.
func (s *State) CursorDelay() time.Duration {
	return time.Duration(s.Config.CursorDelay()) * time.Millisecond
}

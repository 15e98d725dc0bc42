// Package input decodes user keys into screen reader commands through a
// modal handler stack: default navigation at the bottom, config menu, value
// entry and copy mode pushed on top as the user enters them.
package input

// KeyAction is a semantic screen reader command bound to a key.
type KeyAction int

const (
	ActPrevLine KeyAction = iota
	ActCurrentLine
	ActNextLine

	ActPrevWord
	ActCurrentWord
	ActNextWord
	ActSpellWord

	ActPrevChar
	ActCurrentChar
	ActNextChar
	ActPhoneticChar

	ActTopOfScreen
	ActBottomOfScreen
	ActStartOfLine
	ActEndOfLine

	ActArrowUp
	ActArrowDown
	ActArrowLeft
	ActArrowRight

	ActBackspace
	ActDelete

	ActConfig
	ActQuiet
	ActSelection
	ActCopyMode
	ActSilence
)

// DefaultKeymap binds the meta-prefixed command set. Keys are the raw byte
// sequences the terminal delivers; a doubled sequence is the double-tap
// variant of its single form.
func DefaultKeymap() map[string]KeyAction {
	m := map[string]KeyAction{
		// Line navigation: meta+u/i/o.
		"\x1bu": ActPrevLine,
		"\x1bi": ActCurrentLine,
		"\x1bo": ActNextLine,

		// Word navigation: meta+j/k/l.
		"\x1bj": ActPrevWord,
		"\x1bk": ActCurrentWord,
		"\x1bl": ActNextWord,

		// Character navigation: meta+m/,/. .
		"\x1bm": ActPrevChar,
		"\x1b,": ActCurrentChar,
		"\x1b.": ActNextChar,

		// Screen edges: meta+U/O/M/>.
		"\x1bU": ActTopOfScreen,
		"\x1bO": ActBottomOfScreen,
		"\x1bM": ActStartOfLine,
		"\x1b>": ActEndOfLine,
		"\x1b:": ActEndOfLine, // Hungarian layout

		// Arrow keys, both CSI and SS3 encodings.
		"\x1b[A": ActArrowUp,
		"\x1b[B": ActArrowDown,
		"\x1b[C": ActArrowRight,
		"\x1b[D": ActArrowLeft,
		"\x1bOA": ActArrowUp,
		"\x1bOB": ActArrowDown,
		"\x1bOC": ActArrowRight,
		"\x1bOD": ActArrowLeft,

		"\x08":    ActBackspace,
		"\x7f":    ActBackspace,
		"\x1b[3~": ActDelete,

		// Modes.
		"\x1bc": ActConfig,
		"\x1bq": ActQuiet,
		"\x1br": ActSelection,
		"\x1bv": ActCopyMode,
		"\x1bx": ActSilence,
	}

	// Double-tap promotions.
	m["\x1bk\x1bk"] = ActSpellWord
	m["\x1b,\x1b,"] = ActPhoneticChar

	return m
}

// Package symbols renders punctuation and repeated-character runs into
// speakable words.
package symbols

import (
	"fmt"
	"strings"
)

// Process replaces every character that has a symbol name with that name,
// padded with spaces so adjacent alphabetic text stays intelligible.
func Process(text string, names map[rune]string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, ch := range text {
		if name, ok := names[ch]; ok {
			b.WriteByte(' ')
			b.WriteString(name)
			b.WriteByte(' ')
		} else {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// Condense replaces runs of length >= 2 of any character in condenseSet
// with "N times NAME". Runs of one pass through unchanged.
//
// The stock regexp engine has no backreferences, so this is a manual scan.
func Condense(text, condenseSet string, names map[rune]string) string {
	if condenseSet == "" || text == "" {
		return text
	}
	set := make(map[rune]bool, len(condenseSet))
	for _, ch := range condenseSet {
		set[ch] = true
	}

	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(runes); {
		ch := runes[i]
		if !set[ch] {
			b.WriteRune(ch)
			i++
			continue
		}
		n := 1
		for i+n < len(runes) && runes[i+n] == ch {
			n++
		}
		if n >= 2 {
			name := names[ch]
			if name == "" {
				name = string(ch)
			}
			fmt.Fprintf(&b, "%d times %s", n, name)
		} else {
			b.WriteRune(ch)
		}
		i += n
	}
	return b.String()
}

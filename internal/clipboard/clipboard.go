package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"

	"tdsr/internal/system"
)

// Copy writes text to the system clipboard. Failure is non-fatal for the
// session; callers surface it as speech.
func Copy(text string) error {
	system.Logger.Debug("copying to clipboard", "chars", len(text))
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	return nil
}

// Paste reads text from the system clipboard.
func Paste() (string, error) {
	s, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("clipboard read: %w", err)
	}
	return s, nil
}

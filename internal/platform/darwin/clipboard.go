//go:build darwin && cgo

package darwin

import (
	"fmt"
	"os/exec"
	"strings"
)

// DarwinClipboard implements platform.ClipboardManager using pbcopy/pbpaste.
type DarwinClipboard struct{}

// NewClipboard returns a new DarwinClipboard.
func NewClipboard() *DarwinClipboard {
	return &DarwinClipboard{}
}

// GetText reads the current text content from the system clipboard.
func (c *DarwinClipboard) GetText() (string, error) {
	out, err := exec.Command("pbpaste").Output()
	if err != nil {
		return "", fmt.Errorf("pbpaste: %w", err)
	}
	return string(out), nil
}

// SetText writes text to the system clipboard.
func (c *DarwinClipboard) SetText(text string) error {
	cmd := exec.Command("pbcopy")
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pbcopy: %w", err)
	}
	return nil
}

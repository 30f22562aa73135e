package platform

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

func (b MouseButton) String() string {
	switch b {
	case MouseRight:
		return "right"
	case MouseMiddle:
		return "middle"
	default:
		return "left"
	}
}

// ParseMouseButton converts a string flag value to MouseButton.
func ParseMouseButton(s string) (MouseButton, error) {
	switch strings.ToLower(s) {
	case "left":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	default:
		return MouseLeft, fmt.Errorf("unknown mouse button: %q (expected left, right, or middle)", s)
	}
}

// Key is a keyboard key. Special keys use their canonical lower-case name
// (see the Key* constants); any other key is a single character.
type Key string

const (
	KeyAlt         Key = "alt"
	KeyAltL        Key = "alt_l"
	KeyAltR        Key = "alt_r"
	KeyAltGr       Key = "alt_gr"
	KeyBackspace   Key = "backspace"
	KeyCapsLock    Key = "caps_lock"
	KeyCmd         Key = "cmd"
	KeyCmdL        Key = "cmd_l"
	KeyCmdR        Key = "cmd_r"
	KeyCtrl        Key = "ctrl"
	KeyCtrlL       Key = "ctrl_l"
	KeyCtrlR       Key = "ctrl_r"
	KeyDelete      Key = "delete"
	KeyDown        Key = "down"
	KeyEnd         Key = "end"
	KeyEnter       Key = "enter"
	KeyEsc         Key = "esc"
	KeyHome        Key = "home"
	KeyInsert      Key = "insert"
	KeyLeft        Key = "left"
	KeyMenu        Key = "menu"
	KeyNumLock     Key = "num_lock"
	KeyPageDown    Key = "page_down"
	KeyPageUp      Key = "page_up"
	KeyPause       Key = "pause"
	KeyPrintScreen Key = "print_screen"
	KeyRight       Key = "right"
	KeyScrollLock  Key = "scroll_lock"
	KeyShift       Key = "shift"
	KeyShiftL      Key = "shift_l"
	KeyShiftR      Key = "shift_r"
	KeySpace       Key = "space"
	KeyTab         Key = "tab"
	KeyUp          Key = "up"
)

var specialKeys = map[Key]bool{
	KeyAlt: true, KeyAltL: true, KeyAltR: true, KeyAltGr: true,
	KeyBackspace: true, KeyCapsLock: true,
	KeyCmd: true, KeyCmdL: true, KeyCmdR: true,
	KeyCtrl: true, KeyCtrlL: true, KeyCtrlR: true,
	KeyDelete: true, KeyDown: true, KeyEnd: true, KeyEnter: true, KeyEsc: true,
	KeyHome: true, KeyInsert: true, KeyLeft: true, KeyMenu: true, KeyNumLock: true,
	KeyPageDown: true, KeyPageUp: true, KeyPause: true, KeyPrintScreen: true,
	KeyRight: true, KeyScrollLock: true,
	KeyShift: true, KeyShiftL: true, KeyShiftR: true,
	KeySpace: true, KeyTab: true, KeyUp: true,
}

// keyAliases maps alternative spellings to canonical keys.
var keyAliases = map[string]Key{
	"windows":  KeyCmd,
	"win":      KeyCmd,
	"command":  KeyCmd,
	"super":    KeyCmd,
	"control":  KeyCtrl,
	"option":   KeyAlt,
	"opt":      KeyAlt,
	"return":   KeyEnter,
	"escape":   KeyEsc,
	"pageup":   KeyPageUp,
	"pagedown": KeyPageDown,
	"del":      KeyDelete,
	"capslock": KeyCapsLock,
}

func init() {
	for i := 1; i <= 20; i++ {
		specialKeys[Key(fmt.Sprintf("f%d", i))] = true
	}
}

// ParseKey resolves a key name. Special key names are case-insensitive;
// a single character is returned as-is.
func ParseKey(name string) (Key, error) {
	if utf8.RuneCountInString(name) == 1 {
		return Key(name), nil
	}
	lower := strings.ToLower(name)
	if k, ok := keyAliases[lower]; ok {
		return k, nil
	}
	if specialKeys[Key(lower)] {
		return Key(lower), nil
	}
	return "", fmt.Errorf("unknown key: %q", name)
}

// IsSpecial reports whether k is a named key rather than a character.
func (k Key) IsSpecial() bool {
	return specialKeys[k]
}

// Rune returns the character of a character key.
func (k Key) Rune() (rune, bool) {
	if k.IsSpecial() || utf8.RuneCountInString(string(k)) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(string(k))
	return r, true
}

// IsModifier reports whether k is a modifier key.
func (k Key) IsModifier() bool {
	switch k {
	case KeyAlt, KeyAltL, KeyAltR, KeyAltGr,
		KeyCmd, KeyCmdL, KeyCmdR,
		KeyCtrl, KeyCtrlL, KeyCtrlR,
		KeyShift, KeyShiftL, KeyShiftR:
		return true
	}
	return false
}

// Bounds represents a screen rectangle.
type Bounds struct {
	X, Y, Width, Height int
}

// ParseBBox parses a "x,y,w,h" string into a Bounds.
func ParseBBox(s string) (*Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid bbox %q: expected x,y,w,h", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid bbox %q: %w", s, err)
		}
		vals[i] = v
	}
	return &Bounds{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// ScreenshotOptions configures what to capture. Captures are always PNG.
type ScreenshotOptions struct {
	Region *Bounds // Capture only this rectangle in screen points (nil = full screen)
}

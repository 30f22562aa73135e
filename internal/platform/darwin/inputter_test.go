//go:build darwin && cgo

package darwin

import (
	"fmt"
	"testing"

	"github.com/mj1618/desktop-pilot/internal/platform"
)

func TestKeyCodeMap_CoversSpecialKeys(t *testing.T) {
	names := []string{
		"alt", "alt_l", "alt_r", "alt_gr", "backspace", "caps_lock",
		"cmd", "cmd_l", "cmd_r", "ctrl", "ctrl_l", "ctrl_r",
		"delete", "down", "end", "enter", "esc", "home", "insert", "left",
		"num_lock", "page_down", "page_up", "pause", "print_screen",
		"right", "scroll_lock", "shift", "shift_l", "shift_r", "space", "tab", "up",
	}
	for i := 1; i <= 20; i++ {
		names = append(names, fmt.Sprintf("f%d", i))
	}
	for _, name := range names {
		k, err := platform.ParseKey(name)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", name, err)
		}
		if _, ok := keyCodeFor(k); !ok {
			t.Errorf("no key code for %q", k)
		}
	}
}

func TestModifierMap_MatchesIsModifier(t *testing.T) {
	for k := range modifierMap {
		if !k.IsModifier() {
			t.Errorf("%q has a modifier flag but IsModifier() is false", k)
		}
	}
}

func TestKeyCodeFor_UppercaseUsesUnicode(t *testing.T) {
	if _, ok := keyCodeFor(platform.Key("A")); ok {
		t.Error("uppercase letters should be posted as Unicode, not by key code")
	}
	if _, ok := keyCodeFor(platform.Key("a")); !ok {
		t.Error("lowercase letters should have a key code")
	}
}

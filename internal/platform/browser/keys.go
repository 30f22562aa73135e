package browser

import (
	"github.com/go-rod/rod/lib/input"
	"github.com/mj1618/desktop-pilot/internal/platform"
)

var rodKeys = map[platform.Key]input.Key{
	platform.KeyAlt:         input.AltLeft,
	platform.KeyAltL:        input.AltLeft,
	platform.KeyAltR:        input.AltRight,
	platform.KeyAltGr:       input.AltRight,
	platform.KeyBackspace:   input.Backspace,
	platform.KeyCapsLock:    input.CapsLock,
	platform.KeyCmd:         input.MetaLeft,
	platform.KeyCmdL:        input.MetaLeft,
	platform.KeyCmdR:        input.MetaRight,
	platform.KeyCtrl:        input.ControlLeft,
	platform.KeyCtrlL:       input.ControlLeft,
	platform.KeyCtrlR:       input.ControlRight,
	platform.KeyDelete:      input.Delete,
	platform.KeyDown:        input.ArrowDown,
	platform.KeyEnd:         input.End,
	platform.KeyEnter:       input.Enter,
	platform.KeyEsc:         input.Escape,
	platform.KeyHome:        input.Home,
	platform.KeyInsert:      input.Insert,
	platform.KeyLeft:        input.ArrowLeft,
	platform.KeyNumLock:     input.NumLock,
	platform.KeyPageDown:    input.PageDown,
	platform.KeyPageUp:      input.PageUp,
	platform.KeyPause:       input.Pause,
	platform.KeyPrintScreen: input.PrintScreen,
	platform.KeyRight:       input.ArrowRight,
	platform.KeyScrollLock:  input.ScrollLock,
	platform.KeyShift:       input.ShiftLeft,
	platform.KeyShiftL:      input.ShiftLeft,
	platform.KeyShiftR:      input.ShiftRight,
	platform.KeySpace:       input.Space,
	platform.KeyTab:         input.Tab,
	platform.KeyUp:          input.ArrowUp,
	"f1":                    input.F1,
	"f2":                    input.F2,
	"f3":                    input.F3,
	"f4":                    input.F4,
	"f5":                    input.F5,
	"f6":                    input.F6,
	"f7":                    input.F7,
	"f8":                    input.F8,
	"f9":                    input.F9,
	"f10":                   input.F10,
	"f11":                   input.F11,
	"f12":                   input.F12,
}

// rodKey maps a key to its DevTools key. Printable ASCII characters map to
// themselves; anything else reports false.
func rodKey(k platform.Key) (input.Key, bool) {
	if rk, ok := rodKeys[k]; ok {
		return rk, true
	}
	if r, ok := k.Rune(); ok && r >= 0x20 && r < 0x7f {
		return input.Key(r), true
	}
	return 0, false
}

//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework ApplicationServices -framework Foundation -framework Carbon
#include <CoreGraphics/CoreGraphics.h>
#include <Carbon/Carbon.h>

static CGPoint cg_pointer_location(void) {
    CGEventRef ev = CGEventCreate(NULL);
    CGPoint p = CGEventGetLocation(ev);
    CFRelease(ev);
    return p;
}

// Click at the current pointer position.
// button: 0=left, 1=right, 2=middle (maps to kCGMouseButton*)
static int cg_click(int button) {
    CGPoint point = cg_pointer_location();

    CGEventType downType, upType;
    CGMouseButton cgButton;

    switch (button) {
        case 1:
            cgButton = kCGMouseButtonRight;
            downType = kCGEventRightMouseDown;
            upType = kCGEventRightMouseUp;
            break;
        case 2:
            cgButton = kCGMouseButtonCenter;
            downType = kCGEventOtherMouseDown;
            upType = kCGEventOtherMouseUp;
            break;
        default:
            cgButton = kCGMouseButtonLeft;
            downType = kCGEventLeftMouseDown;
            upType = kCGEventLeftMouseUp;
            break;
    }

    CGEventRef down = CGEventCreateMouseEvent(NULL, downType, point, cgButton);
    CGEventRef up = CGEventCreateMouseEvent(NULL, upType, point, cgButton);
    if (!down || !up) {
        if (down) CFRelease(down);
        if (up) CFRelease(up);
        return -1;
    }
    CGEventSetIntegerValueField(down, kCGMouseEventClickState, 1);
    CGEventSetIntegerValueField(up, kCGMouseEventClickState, 1);
    CGEventPost(kCGHIDEventTap, down);
    CGEventPost(kCGHIDEventTap, up);
    CFRelease(down);
    CFRelease(up);
    return 0;
}

static int cg_move_mouse(float x, float y) {
    CGPoint point = CGPointMake(x, y);
    CGEventRef move = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved, point, kCGMouseButtonLeft);
    if (!move) return -1;
    CGEventPost(kCGHIDEventTap, move);
    CFRelease(move);
    return 0;
}

// Post a key down or up for a virtual key code with the given modifier flags.
static int cg_key(CGKeyCode keyCode, bool down, CGEventFlags flags) {
    CGEventRef ev = CGEventCreateKeyboardEvent(NULL, keyCode, down);
    if (!ev) return -1;
    CGEventSetFlags(ev, flags);
    CGEventPost(kCGHIDEventTap, ev);
    CFRelease(ev);
    return 0;
}

// Post a key down or up carrying a Unicode character instead of a key code.
static int cg_unicode_key(UniChar ch, bool down, CGEventFlags flags) {
    CGEventRef ev = CGEventCreateKeyboardEvent(NULL, 0, down);
    if (!ev) return -1;
    CGEventKeyboardSetUnicodeString(ev, 1, &ch);
    CGEventSetFlags(ev, flags);
    CGEventPost(kCGHIDEventTap, ev);
    CFRelease(ev);
    return 0;
}

// Type a single Unicode character using CGEvent key simulation.
static void cg_type_char(UniChar ch) {
    CGEventRef keyDown = CGEventCreateKeyboardEvent(NULL, 0, true);
    CGEventRef keyUp = CGEventCreateKeyboardEvent(NULL, 0, false);
    CGEventKeyboardSetUnicodeString(keyDown, 1, &ch);
    CGEventKeyboardSetUnicodeString(keyUp, 1, &ch);
    CGEventPost(kCGHIDEventTap, keyDown);
    CGEventPost(kCGHIDEventTap, keyUp);
    CFRelease(keyDown);
    CFRelease(keyUp);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unicode/utf16"

	"github.com/mj1618/desktop-pilot/internal/platform"
)

// DarwinInputter implements the platform.Inputter interface for macOS.
// Held modifier keys are tracked so later key events carry their flags.
type DarwinInputter struct {
	mu        sync.Mutex
	held      map[platform.Key]bool
	trustOnce sync.Once
	trustErr  error
}

// NewInputter creates a new macOS inputter.
func NewInputter() *DarwinInputter {
	return &DarwinInputter{held: make(map[platform.Key]bool)}
}

func (inp *DarwinInputter) checkTrusted() error {
	inp.trustOnce.Do(func() {
		inp.trustErr = CheckAccessibilityPermission()
	})
	return inp.trustErr
}

func (inp *DarwinInputter) MoveMouse(x, y int) error {
	if err := inp.checkTrusted(); err != nil {
		return err
	}
	if C.cg_move_mouse(C.float(x), C.float(y)) != 0 {
		return fmt.Errorf("failed to move mouse to (%d, %d)", x, y)
	}
	return nil
}

func (inp *DarwinInputter) Click(button platform.MouseButton) error {
	if err := inp.checkTrusted(); err != nil {
		return err
	}
	cButton := C.int(0)
	switch button {
	case platform.MouseRight:
		cButton = 1
	case platform.MouseMiddle:
		cButton = 2
	}
	if C.cg_click(cButton) != 0 {
		return fmt.Errorf("failed to %s-click", button)
	}
	return nil
}

func (inp *DarwinInputter) KeyDown(key platform.Key) error {
	return inp.postKey(key, true)
}

func (inp *DarwinInputter) KeyUp(key platform.Key) error {
	return inp.postKey(key, false)
}

func (inp *DarwinInputter) postKey(key platform.Key, down bool) error {
	if err := inp.checkTrusted(); err != nil {
		return err
	}
	inp.mu.Lock()
	defer inp.mu.Unlock()

	if key.IsModifier() {
		if down {
			inp.held[key] = true
		} else {
			delete(inp.held, key)
		}
	}
	flags := inp.flags()

	if code, ok := keyCodeFor(key); ok {
		if C.cg_key(C.CGKeyCode(code), C.bool(down), flags) != 0 {
			return fmt.Errorf("failed to post key %q", key)
		}
		return nil
	}
	r, ok := key.Rune()
	if !ok {
		return fmt.Errorf("key %q has no macOS equivalent", key)
	}
	for _, unit := range utf16.Encode([]rune{r}) {
		if C.cg_unicode_key(C.UniChar(unit), C.bool(down), flags) != 0 {
			return fmt.Errorf("failed to post key %q", key)
		}
	}
	return nil
}

// flags returns the modifier mask for currently held keys. Caller holds mu.
func (inp *DarwinInputter) flags() C.CGEventFlags {
	var mask uint64
	for k := range inp.held {
		mask |= modifierMap[k]
	}
	return C.CGEventFlags(mask)
}

func (inp *DarwinInputter) TypeChar(ch rune) error {
	if err := inp.checkTrusted(); err != nil {
		return err
	}
	for _, unit := range utf16.Encode([]rune{ch}) {
		C.cg_type_char(C.UniChar(unit))
	}
	return nil
}

// keyCodeFor returns the virtual key code for special keys and unshifted
// letters/digits. Other characters are posted as Unicode key events.
func keyCodeFor(key platform.Key) (uint16, bool) {
	code, ok := keyCodeMap[key]
	return code, ok
}

// macOS virtual key codes from Carbon Events.h.
var keyCodeMap = map[platform.Key]uint16{
	"a": 0x00, "b": 0x0B, "c": 0x08, "d": 0x02, "e": 0x0E, "f": 0x03,
	"g": 0x05, "h": 0x04, "i": 0x22, "j": 0x26, "k": 0x28, "l": 0x25,
	"m": 0x2E, "n": 0x2D, "o": 0x1F, "p": 0x23, "q": 0x0C, "r": 0x0F,
	"s": 0x01, "t": 0x11, "u": 0x20, "v": 0x09, "w": 0x0D, "x": 0x07,
	"y": 0x10, "z": 0x06,
	"0": 0x1D, "1": 0x12, "2": 0x13, "3": 0x14, "4": 0x15,
	"5": 0x17, "6": 0x16, "7": 0x1A, "8": 0x1C, "9": 0x19,
	platform.KeyEnter: 0x24, platform.KeyTab: 0x30, platform.KeySpace: 0x31,
	platform.KeyBackspace: 0x33, platform.KeyDelete: 0x75, platform.KeyEsc: 0x35,
	platform.KeyUp: 0x7E, platform.KeyDown: 0x7D, platform.KeyLeft: 0x7B, platform.KeyRight: 0x7C,
	platform.KeyHome: 0x73, platform.KeyEnd: 0x77, platform.KeyPageUp: 0x74, platform.KeyPageDown: 0x79,
	platform.KeyInsert: 0x72, platform.KeyNumLock: 0x47, platform.KeyCapsLock: 0x39,
	platform.KeyPrintScreen: 0x69, platform.KeyScrollLock: 0x6B, platform.KeyPause: 0x71,
	platform.KeyCmd: 0x37, platform.KeyCmdL: 0x37, platform.KeyCmdR: 0x36,
	platform.KeyShift: 0x38, platform.KeyShiftL: 0x38, platform.KeyShiftR: 0x3C,
	platform.KeyAlt: 0x3A, platform.KeyAltL: 0x3A, platform.KeyAltR: 0x3D, platform.KeyAltGr: 0x3D,
	platform.KeyCtrl: 0x3B, platform.KeyCtrlL: 0x3B, platform.KeyCtrlR: 0x3E,
	"f1": 0x7A, "f2": 0x78, "f3": 0x63, "f4": 0x76, "f5": 0x60,
	"f6": 0x61, "f7": 0x62, "f8": 0x64, "f9": 0x65, "f10": 0x6D,
	"f11": 0x67, "f12": 0x6F, "f13": 0x69, "f14": 0x6B, "f15": 0x71,
	"f16": 0x6A, "f17": 0x40, "f18": 0x4F, "f19": 0x50, "f20": 0x5A,
}

// macOS modifier key flags.
var modifierMap = map[platform.Key]uint64{
	platform.KeyCmd: uint64(C.kCGEventFlagMaskCommand), platform.KeyCmdL: uint64(C.kCGEventFlagMaskCommand), platform.KeyCmdR: uint64(C.kCGEventFlagMaskCommand),
	platform.KeyShift: uint64(C.kCGEventFlagMaskShift), platform.KeyShiftL: uint64(C.kCGEventFlagMaskShift), platform.KeyShiftR: uint64(C.kCGEventFlagMaskShift),
	platform.KeyCtrl: uint64(C.kCGEventFlagMaskControl), platform.KeyCtrlL: uint64(C.kCGEventFlagMaskControl), platform.KeyCtrlR: uint64(C.kCGEventFlagMaskControl),
	platform.KeyAlt: uint64(C.kCGEventFlagMaskAlternate), platform.KeyAltL: uint64(C.kCGEventFlagMaskAlternate), platform.KeyAltR: uint64(C.kCGEventFlagMaskAlternate), platform.KeyAltGr: uint64(C.kCGEventFlagMaskAlternate),
}

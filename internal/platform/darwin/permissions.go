//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreGraphics -framework Foundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreGraphics/CoreGraphics.h>

static int is_trusted() {
    return AXIsProcessTrusted();
}

static void prompt_trusted() {
    const void *keys[] = { kAXTrustedCheckOptionPrompt };
    const void *values[] = { kCFBooleanTrue };
    CFDictionaryRef opts = CFDictionaryCreate(NULL, keys, values, 1,
        &kCFCopyStringDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
    AXIsProcessTrustedWithOptions(opts);
    CFRelease(opts);
}

static int can_record_screen() {
    return CGPreflightScreenCaptureAccess();
}

static void request_record_screen() {
    CGRequestScreenCaptureAccess();
}
*/
import "C"
import "fmt"

// CheckAccessibilityPermission checks if the process may post input events.
// Returns an error with instructions if permission is not granted.
func CheckAccessibilityPermission() error {
	if C.is_trusted() == 0 {
		return fmt.Errorf(
			"accessibility permission required\n\n" +
				"Grant permission at: System Settings > Privacy & Security > Accessibility\n" +
				"Add your terminal app (e.g. Terminal.app, iTerm2, or the IDE running this command).\n" +
				"Then restart the terminal and try again.")
	}
	return nil
}

// CheckScreenRecordingPermission checks if the process has macOS screen recording permission.
func CheckScreenRecordingPermission() error {
	if C.can_record_screen() == 0 {
		return fmt.Errorf(
			"screen recording permission required\n\n" +
				"Grant permission at: System Settings > Privacy & Security > Screen Recording\n" +
				"Add your terminal app (e.g. Terminal.app, iTerm2, or the IDE running this command).\n" +
				"Then restart the terminal and try again.")
	}
	return nil
}

// RequestPermissions shows the system prompts for any missing permission.
func RequestPermissions() {
	if C.is_trusted() == 0 {
		C.prompt_trusted()
	}
	if C.can_record_screen() == 0 {
		C.request_record_screen()
	}
}

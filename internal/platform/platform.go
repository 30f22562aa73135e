package platform

// Inputter simulates mouse and keyboard input.
type Inputter interface {
	// MoveMouse moves the pointer to screen coordinates.
	MoveMouse(x, y int) error
	// Click presses and releases button at the current pointer position.
	Click(button MouseButton) error
	KeyDown(key Key) error
	KeyUp(key Key) error
	// TypeChar types a single character, independent of keyboard layout.
	TypeChar(ch rune) error
}

// Screenshotter captures screenshots.
type Screenshotter interface {
	// CaptureScreen captures the main display (or a region of it) as PNG.
	// Image pixels correspond one-to-one with screen points.
	CaptureScreen(opts ScreenshotOptions) ([]byte, error)
}

// ClipboardManager reads and writes the system clipboard.
type ClipboardManager interface {
	GetText() (string, error)
	SetText(text string) error
}

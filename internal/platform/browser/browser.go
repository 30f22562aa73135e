// Package browser provides the "browser" backend: a Chromium page driven
// through the DevTools protocol with go-rod stands in for the desktop.
package browser

import (
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/mj1618/desktop-pilot/internal/platform"
)

const (
	defaultWidth  = 1280
	defaultHeight = 800
)

func init() {
	platform.Register("browser", New)
}

// Page drives a single browser tab. It implements platform.Inputter and
// platform.Screenshotter.
type Page struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
}

// New launches a browser, opens opts.BrowserURL and returns a Provider
// backed by that page.
func New(opts platform.Options) (*platform.Provider, error) {
	p, err := Launch(opts)
	if err != nil {
		return nil, err
	}
	return &platform.Provider{
		Inputter:      p,
		Screenshotter: p,
		CloseFunc:     p.Close,
	}, nil
}

// Launch starts Chromium and opens the configured page.
func Launch(opts platform.Options) (*Page, error) {
	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(true).
		Delete("use-mock-keychain")

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	url := opts.BrowserURL
	if url == "" {
		url = "about:blank"
	}
	page, err := b.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open %s: %w", url, err)
	}

	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             w,
		Height:            h,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	_ = page.WaitLoad()

	return &Page{browser: b, launcher: l, page: page}, nil
}

func (p *Page) MoveMouse(x, y int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.page.Mouse.MoveTo(proto.Point{X: float64(x), Y: float64(y)}); err != nil {
		return fmt.Errorf("failed to move mouse to (%d, %d): %w", x, y, err)
	}
	return nil
}

func (p *Page) Click(button platform.MouseButton) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := proto.InputMouseButtonLeft
	switch button {
	case platform.MouseRight:
		b = proto.InputMouseButtonRight
	case platform.MouseMiddle:
		b = proto.InputMouseButtonMiddle
	}
	if err := p.page.Mouse.Click(b, 1); err != nil {
		return fmt.Errorf("failed to %s-click: %w", button, err)
	}
	return nil
}

func (p *Page) KeyDown(key platform.Key) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	k, ok := rodKey(key)
	if !ok {
		// Characters outside the US layout are inserted on press only.
		if r, isChar := key.Rune(); isChar {
			return p.insert(string(r))
		}
		return fmt.Errorf("key %q has no browser equivalent", key)
	}
	if err := p.page.Keyboard.Press(k); err != nil {
		return fmt.Errorf("failed to press %q: %w", key, err)
	}
	return nil
}

func (p *Page) KeyUp(key platform.Key) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	k, ok := rodKey(key)
	if !ok {
		if _, isChar := key.Rune(); isChar {
			return nil
		}
		return fmt.Errorf("key %q has no browser equivalent", key)
	}
	if err := p.page.Keyboard.Release(k); err != nil {
		return fmt.Errorf("failed to release %q: %w", key, err)
	}
	return nil
}

func (p *Page) TypeChar(ch rune) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.insert(string(ch))
}

func (p *Page) insert(text string) error {
	if err := p.page.InsertText(text); err != nil {
		return fmt.Errorf("failed to insert text: %w", err)
	}
	return nil
}

// CaptureScreen captures the visible viewport as PNG.
func (p *Page) CaptureScreen(opts platform.ScreenshotOptions) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	if r := opts.Region; r != nil {
		req.Clip = &proto.PageViewport{
			X:      float64(r.X),
			Y:      float64(r.Y),
			Width:  float64(r.Width),
			Height: float64(r.Height),
			Scale:  1,
		}
	}
	data, err := p.page.Screenshot(false, req)
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

// Close shuts the browser down and removes its profile directory.
func (p *Page) Close() error {
	var err error
	if p.browser != nil {
		err = p.browser.Close()
	}
	if p.launcher != nil {
		p.launcher.Kill()
		p.launcher.Cleanup()
	}
	return err
}

package platform

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
)

// Provider bundles the input and screen backends for one target.
type Provider struct {
	Inputter         Inputter
	Screenshotter    Screenshotter
	ClipboardManager ClipboardManager

	// CloseFunc releases backend resources (e.g. a browser process). May be nil.
	CloseFunc func() error
}

// Close releases the provider's resources.
func (p *Provider) Close() error {
	if p == nil || p.CloseFunc == nil {
		return nil
	}
	return p.CloseFunc()
}

// Options configures a backend. Fields irrelevant to a backend are ignored.
type Options struct {
	BrowserURL string // Page to open for the browser backend
	Headless   bool
	Width      int // Browser viewport size
	Height     int
}

// ProviderFactory builds a Provider for one backend kind.
type ProviderFactory func(opts Options) (*Provider, error)

// ErrUnsupported is returned when the requested backend is not compiled in.
var ErrUnsupported = fmt.Errorf("desktop backend is not supported on %s/%s; supported: darwin/amd64, darwin/arm64 (or use the browser backend)", runtime.GOOS, runtime.GOARCH)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]ProviderFactory)
)

// Register makes a backend available under name. Backends register
// themselves from init(); see internal/platform/darwin/init.go.
func Register(name string, factory ProviderFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// Backends lists the registered backend names.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequestPermissionsFunc is set by platform-specific packages via init().
// It triggers OS permission prompts (e.g. screen recording) at startup.
var RequestPermissionsFunc func()

// NewProvider returns a Provider for the named backend.
func NewProvider(name string, opts Options) (*Provider, error) {
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		if name == "desktop" {
			return nil, ErrUnsupported
		}
		return nil, fmt.Errorf("unknown backend %q (available: %v)", name, Backends())
	}
	return factory(opts)
}

//go:build darwin && cgo

package darwin

import "github.com/mj1618/desktop-pilot/internal/platform"

func init() {
	platform.Register("desktop", func(opts platform.Options) (*platform.Provider, error) {
		return &platform.Provider{
			Inputter:         NewInputter(),
			Screenshotter:    NewScreenshotter(),
			ClipboardManager: NewClipboard(),
		}, nil
	})
	platform.RequestPermissionsFunc = RequestPermissions
}

// Package darwin provides the macOS "desktop" backend using CoreGraphics.
// All functionality requires CGo. On other platforms, or when CGo is
// disabled, the package is empty and the desktop backend is unavailable.
package darwin

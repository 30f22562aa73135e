//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ImageIO
#include <CoreGraphics/CoreGraphics.h>
#include <ImageIO/ImageIO.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
    void *data;
    int length;
} ScreenshotResult;

// Capture the main display (or rect, in points) and encode it as PNG at
// point resolution, so that image pixels match event coordinates.
static int cg_capture_screen(int useRect, float x, float y, float w, float h, ScreenshotResult *out) {
    CGDirectDisplayID display = CGMainDisplayID();
    CGRect bounds = CGDisplayBounds(display);
    CGRect rect = bounds;
    if (useRect) {
        rect = CGRectMake(x, y, w, h);
    }

    CGImageRef raw = useRect ? CGDisplayCreateImageForRect(display, rect) : CGDisplayCreateImage(display);
    if (!raw) return -1;

    size_t width = (size_t)rect.size.width;
    size_t height = (size_t)rect.size.height;
    CGColorSpaceRef cs = CGColorSpaceCreateDeviceRGB();
    CGContextRef ctx = CGBitmapContextCreate(NULL, width, height, 8, 0, cs,
        kCGImageAlphaPremultipliedLast | kCGBitmapByteOrder32Big);
    CGColorSpaceRelease(cs);
    if (!ctx) {
        CGImageRelease(raw);
        return -1;
    }
    CGContextSetInterpolationQuality(ctx, kCGInterpolationHigh);
    CGContextDrawImage(ctx, CGRectMake(0, 0, width, height), raw);
    CGImageRelease(raw);

    CGImageRef scaled = CGBitmapContextCreateImage(ctx);
    CGContextRelease(ctx);
    if (!scaled) return -1;

    CFMutableDataRef buf = CFDataCreateMutable(NULL, 0);
    CGImageDestinationRef dest = CGImageDestinationCreateWithData(buf, CFSTR("public.png"), 1, NULL);
    if (!dest) {
        CGImageRelease(scaled);
        CFRelease(buf);
        return -1;
    }
    CGImageDestinationAddImage(dest, scaled, NULL);
    bool ok = CGImageDestinationFinalize(dest);
    CFRelease(dest);
    CGImageRelease(scaled);
    if (!ok) {
        CFRelease(buf);
        return -1;
    }

    CFIndex n = CFDataGetLength(buf);
    out->data = malloc(n);
    if (!out->data) {
        CFRelease(buf);
        return -1;
    }
    memcpy(out->data, CFDataGetBytePtr(buf), n);
    out->length = (int)n;
    CFRelease(buf);
    return 0;
}

static void cg_free_screenshot(ScreenshotResult *r) {
    if (r->data) free(r->data);
    r->data = NULL;
    r->length = 0;
}
*/
import "C"
import (
	"fmt"
	"unsafe"

	"github.com/mj1618/desktop-pilot/internal/platform"
)

// DarwinScreenshotter implements platform.Screenshotter for macOS.
type DarwinScreenshotter struct{}

// NewScreenshotter creates a new macOS screenshotter.
func NewScreenshotter() *DarwinScreenshotter {
	return &DarwinScreenshotter{}
}

// CaptureScreen captures the main display, or opts.Region of it, as PNG.
func (s *DarwinScreenshotter) CaptureScreen(opts platform.ScreenshotOptions) ([]byte, error) {
	if err := CheckScreenRecordingPermission(); err != nil {
		return nil, err
	}

	var useRect C.int
	var x, y, w, h C.float
	if r := opts.Region; r != nil {
		if r.Width <= 0 || r.Height <= 0 {
			return nil, fmt.Errorf("invalid capture region %dx%d", r.Width, r.Height)
		}
		useRect = 1
		x, y, w, h = C.float(r.X), C.float(r.Y), C.float(r.Width), C.float(r.Height)
	}

	var result C.ScreenshotResult
	if C.cg_capture_screen(useRect, x, y, w, h, &result) != 0 {
		return nil, fmt.Errorf("screenshot capture failed (check Screen Recording permission in System Settings > Privacy & Security > Screen Recording)")
	}
	defer C.cg_free_screenshot(&result)

	return C.GoBytes(unsafe.Pointer(result.data), C.int(result.length)), nil
}

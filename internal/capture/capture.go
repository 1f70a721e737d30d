/**
 * Capture types and camera capability interfaces
 *
 * The platform camera is an external collaborator. It is injected behind the
 * MediaDevices/MediaStream/PreviewSink interfaces so the pipeline can run
 * against the real device layer, the file-backed layer, or test doubles that
 * simulate permission denial, empty device lists, and device faults.
 */

package capture

import (
	"context"
	stderrors "errors"
	"image"
	"image/draw"

	"github.com/adverant/nexus/photoscan/internal/errors"
)

// Facing identifies the preferred camera direction
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Opposite returns the alternate facing used by the one-shot acquisition retry
func (f Facing) Opposite() Facing {
	if f == FacingUser {
		return FacingEnvironment
	}
	return FacingUser
}

// Constraints describe the requested stream: a preferred facing direction and
// an ideal (not mandatory) resolution
type Constraints struct {
	Facing      Facing
	IdealWidth  int
	IdealHeight int
}

// DeviceInfo describes one enumerable video input
type DeviceInfo struct {
	ID     string
	Label  string
	Facing Facing
}

// Sentinel faults a MediaDevices implementation reports. Anything else maps
// to DEVICE_ERROR.
var (
	ErrNotAllowed   = stderrors.New("capture: access not allowed")
	ErrNotFound     = stderrors.New("capture: no matching device")
	ErrNotSupported = stderrors.New("capture: capability not supported")
)

// Precondition violations, outside the workflow error taxonomy
var (
	ErrNoStream = stderrors.New("capture: no active stream")
	ErrNoSink   = stderrors.New("capture: no preview sink attached")
)

// MediaDevices is the platform camera capability
type MediaDevices interface {
	EnumerateVideoInputs(ctx context.Context) ([]DeviceInfo, error)
	GetStream(ctx context.Context, c Constraints) (MediaStream, error)
}

// MediaStream is a live acquired stream handle
type MediaStream interface {
	// Device returns the identifier of the device backing the stream
	Device() string
	// Stop releases all tracks; must be safe to call more than once
	Stop()
}

// PreviewSink is the live-preview surface a stream is bound to. Snapshot
// returns the current preview frame at its native resolution.
type PreviewSink interface {
	Bind(stream MediaStream) error
	Snapshot() (image.Image, error)
	Detach()
}

// Frame is a captured still image as a raw RGBA pixel buffer, distinct from
// the live preview
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// FrameFromImage copies an image into a Frame, converting to RGBA
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return &Frame{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    rgba.Pix,
	}
}

// Image reconstructs the frame as an RGBA image sharing the pixel buffer
func (f *Frame) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: 4 * f.Width,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Validate rejects malformed frames: zero dimensions or a pixel buffer
// shorter than the declared geometry
func (f *Frame) Validate() error {
	if f == nil || f.Width <= 0 || f.Height <= 0 {
		w, h := 0, 0
		if f != nil {
			w, h = f.Width, f.Height
		}
		return errors.NewInvalidImageError("", w, h)
	}
	if len(f.Pix) < 4*f.Width*f.Height {
		return errors.NewInvalidImageError("", f.Width, f.Height)
	}
	return nil
}

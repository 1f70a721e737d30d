/**
 * File-backed camera capability
 *
 * Treats still image files as video inputs, for the CLI and for development
 * without camera hardware. Frames larger than the ideal resolution are scaled
 * down to fit while preserving aspect ratio.
 */

package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// FileDevices exposes the image files under a path as video input devices
type FileDevices struct {
	paths []string
}

// NewFileDevices builds a capability over a single image file or a directory
// of image files
func NewFileDevices(path string) (*FileDevices, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input path: %w", err)
	}

	var paths []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read input directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if isImageFile(e.Name()) {
				paths = append(paths, filepath.Join(path, e.Name()))
			}
		}
		sort.Strings(paths)
	} else if isImageFile(path) {
		paths = []string{path}
	}

	return &FileDevices{paths: paths}, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// EnumerateVideoInputs lists one device per image file
func (d *FileDevices) EnumerateVideoInputs(ctx context.Context) ([]DeviceInfo, error) {
	infos := make([]DeviceInfo, 0, len(d.paths))
	for _, p := range d.paths {
		infos = append(infos, DeviceInfo{
			ID:     p,
			Label:  filepath.Base(p),
			Facing: FacingEnvironment,
		})
	}
	return infos, nil
}

// GetStream opens the first image file as a stream, scaled to fit the ideal
// resolution. Facing is ignored: a file has no direction.
func (d *FileDevices) GetStream(ctx context.Context, c Constraints) (MediaStream, error) {
	if len(d.paths) == 0 {
		return nil, ErrNotFound
	}

	path := d.paths[0]
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &FileStream{
		id:  path,
		img: scaleToFit(img, c.IdealWidth, c.IdealHeight),
	}, nil
}

// FileStream is a MediaStream backed by one decoded image
type FileStream struct {
	id      string
	img     image.Image
	stopped bool
}

// Device returns the source file path
func (s *FileStream) Device() string { return s.id }

// Stop releases the decoded frame
func (s *FileStream) Stop() {
	s.stopped = true
	s.img = nil
}

// Frame returns the current preview frame, nil after Stop
func (s *FileStream) Frame() image.Image { return s.img }

// scaleToFit downscales img so it fits within idealW x idealH, preserving
// aspect ratio. Images already within bounds pass through untouched.
func scaleToFit(img image.Image, idealW, idealH int) image.Image {
	if idealW <= 0 || idealH <= 0 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= idealW && h <= idealH {
		return img
	}

	scaleW := float64(idealW) / float64(w)
	scaleH := float64(idealH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	dstW := int(float64(w) * scale)
	dstH := int(float64(h) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// ImageSink is a PreviewSink over frame-bearing streams such as FileStream
type ImageSink struct {
	stream MediaStream
}

// NewImageSink creates an unbound preview sink
func NewImageSink() *ImageSink {
	return &ImageSink{}
}

// Bind attaches the sink to a stream that can produce preview frames
func (s *ImageSink) Bind(stream MediaStream) error {
	if _, ok := stream.(interface{ Frame() image.Image }); !ok {
		return fmt.Errorf("stream %T does not expose preview frames", stream)
	}
	s.stream = stream
	return nil
}

// Snapshot returns the current preview frame at native resolution
func (s *ImageSink) Snapshot() (image.Image, error) {
	if s.stream == nil {
		return nil, ErrNoSink
	}
	img := s.stream.(interface{ Frame() image.Image }).Frame()
	if img == nil {
		return nil, ErrNoStream
	}
	return img, nil
}

// Detach unbinds the sink; safe when already detached
func (s *ImageSink) Detach() {
	s.stream = nil
}

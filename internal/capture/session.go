/**
 * Camera session - stream acquisition, preview binding, frame capture
 *
 * Owns exactly one live stream at a time. Acquisition retries once with the
 * opposite facing direction before giving up, surfacing the second failure.
 * Stop is idempotent and runs on every error path.
 */

package capture

import (
	"context"
	stderrors "errors"

	"github.com/adverant/nexus/photoscan/internal/errors"
	"github.com/adverant/nexus/photoscan/internal/logging"
)

// Session owns acquisition and release of one video capture stream and
// single-frame capture into a pixel buffer
type Session struct {
	devices MediaDevices
	sink    PreviewSink
	logger  *logging.Logger

	stream   MediaStream
	active   bool
	deviceID string
}

// NewSession creates a camera session over the injected capability. A nil
// devices capability behaves as an unsupported platform.
func NewSession(devices MediaDevices, sink PreviewSink, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.NewLogger("camera")
	}
	return &Session{
		devices: devices,
		sink:    sink,
		logger:  logger,
	}
}

// CheckAvailability reports whether the platform exposes a media-capture
// capability and at least one video input is enumerable. Never errors; an
// enumeration failure reads as unavailable.
func (s *Session) CheckAvailability(ctx context.Context) bool {
	if s.devices == nil {
		return false
	}

	inputs, err := s.devices.EnumerateVideoInputs(ctx)
	if err != nil {
		s.logger.Warn("Device enumeration failed", "error", err)
		return false
	}

	return len(inputs) > 0
}

// Start acquires a stream matching the constraints and binds it to the
// preview sink. A failed acquisition is retried exactly once with the
// opposite facing direction; the second failure's kind is surfaced and the
// first is discarded.
func (s *Session) Start(ctx context.Context, c Constraints) error {
	if s.devices == nil {
		return errors.NewNotSupportedError("")
	}

	stream, err := s.devices.GetStream(ctx, c)
	if err != nil {
		fallback := c
		fallback.Facing = c.Facing.Opposite()
		s.logger.Warn("Stream acquisition failed, retrying with opposite facing",
			"facing", c.Facing, "fallback", fallback.Facing, "error", err)

		stream, err = s.devices.GetStream(ctx, fallback)
		if err != nil {
			return mapAcquisitionError(err)
		}
	}

	s.stream = stream
	s.active = true
	s.deviceID = stream.Device()

	if s.sink != nil {
		if err := s.sink.Bind(stream); err != nil {
			s.logger.Error("Preview bind failed", "device", s.deviceID, "error", err)
			s.Stop()
			return errors.NewDeviceError("", err)
		}
	}

	s.logger.Info("Camera stream active", "device", s.deviceID, "facing", c.Facing)
	return nil
}

// Capture snapshots the current preview frame at its native resolution
func (s *Session) Capture() (*Frame, error) {
	if !s.active || s.stream == nil {
		return nil, ErrNoStream
	}
	if s.sink == nil {
		return nil, ErrNoSink
	}

	img, err := s.sink.Snapshot()
	if err != nil {
		return nil, errors.NewDeviceError("", err)
	}

	frame := FrameFromImage(img)
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("Frame captured", "device", s.deviceID,
		"width", frame.Width, "height", frame.Height)
	return frame, nil
}

// Stop releases all stream tracks and detaches the preview sink. Safe to call
// any number of times; always leaves the session inactive.
func (s *Session) Stop() {
	if s.stream != nil {
		s.stream.Stop()
		s.stream = nil
		s.logger.Info("Camera stream stopped", "device", s.deviceID)
	}
	if s.sink != nil {
		s.sink.Detach()
	}
	s.active = false
	s.deviceID = ""
}

// Active reports whether a stream is currently held
func (s *Session) Active() bool {
	return s.active
}

// DeviceID returns the identifier of the device backing the active stream,
// empty when inactive
func (s *Session) DeviceID() string {
	return s.deviceID
}

// mapAcquisitionError translates capability sentinels into the workflow
// error taxonomy
func mapAcquisitionError(err error) error {
	switch {
	case stderrors.Is(err, ErrNotSupported):
		return errors.NewNotSupportedError("")
	case stderrors.Is(err, ErrNotAllowed):
		return errors.NewPermissionDeniedError("", err)
	case stderrors.Is(err, ErrNotFound):
		return errors.NewNoCameraError("")
	default:
		return errors.NewDeviceError("", err)
	}
}

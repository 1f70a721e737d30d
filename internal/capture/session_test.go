/**
 * Camera session tests
 *
 * Exercises availability checks, acquisition error mapping, the one-shot
 * facing fallback, frame capture, and idempotent stop using test doubles for
 * the platform camera capability.
 */

package capture

import (
	"context"
	stderrors "errors"
	"image"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/nexus/photoscan/internal/errors"
	"github.com/adverant/nexus/photoscan/internal/logging"
)

// fakeDevices simulates the platform camera capability
type fakeDevices struct {
	inputs       []DeviceInfo
	enumErr      error
	streamErrs   []error // consumed per GetStream call; nil means success
	streamCalls  int
	seenFacings  []Facing
	streamDevice string
}

func (d *fakeDevices) EnumerateVideoInputs(ctx context.Context) ([]DeviceInfo, error) {
	return d.inputs, d.enumErr
}

func (d *fakeDevices) GetStream(ctx context.Context, c Constraints) (MediaStream, error) {
	idx := d.streamCalls
	d.streamCalls++
	d.seenFacings = append(d.seenFacings, c.Facing)
	if idx < len(d.streamErrs) && d.streamErrs[idx] != nil {
		return nil, d.streamErrs[idx]
	}
	device := d.streamDevice
	if device == "" {
		device = "cam-0"
	}
	return &fakeStream{device: device}, nil
}

type fakeStream struct {
	device string
	stops  int
}

func (s *fakeStream) Device() string { return s.device }
func (s *fakeStream) Stop()          { s.stops++ }

// fakeSink returns a fixed preview frame
type fakeSink struct {
	frame    image.Image
	snapErr  error
	bindErr  error
	bound    MediaStream
	detaches int
}

func (s *fakeSink) Bind(stream MediaStream) error {
	if s.bindErr != nil {
		return s.bindErr
	}
	s.bound = stream
	return nil
}

func (s *fakeSink) Snapshot() (image.Image, error) {
	if s.snapErr != nil {
		return nil, s.snapErr
	}
	return s.frame, nil
}

func (s *fakeSink) Detach() {
	s.bound = nil
	s.detaches++
}

func testLogger() *logging.Logger {
	return logging.NewLoggerWithOutput("test", logging.LevelError, io.Discard)
}

func previewImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		devices MediaDevices
		want    bool
	}{
		{
			name:    "nil capability is unavailable",
			devices: nil,
			want:    false,
		},
		{
			name:    "enumeration failure is unavailable, never an error",
			devices: &fakeDevices{enumErr: stderrors.New("enumeration blocked")},
			want:    false,
		},
		{
			name:    "zero devices is unavailable",
			devices: &fakeDevices{},
			want:    false,
		},
		{
			name:    "one enumerable device is available",
			devices: &fakeDevices{inputs: []DeviceInfo{{ID: "cam-0"}}},
			want:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession(tc.devices, &fakeSink{}, testLogger())
			assert.Equal(t, tc.want, s.CheckAvailability(ctx))
		})
	}
}

func TestStartErrorMapping(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		streamErr error
		wantCode errors.Code
	}{
		{"not supported", ErrNotSupported, errors.CodeNotSupported},
		{"permission denied", ErrNotAllowed, errors.CodePermissionDenied},
		{"no matching device", ErrNotFound, errors.CodeNoCamera},
		{"other device fault", stderrors.New("device busy"), errors.CodeDeviceError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Both facings fail with the same fault
			d := &fakeDevices{streamErrs: []error{tc.streamErr, tc.streamErr}}
			s := NewSession(d, &fakeSink{}, testLogger())

			err := s.Start(ctx, Constraints{Facing: FacingEnvironment})
			require.Error(t, err)
			code, ok := errors.CodeOf(err)
			require.True(t, ok)
			assert.Equal(t, tc.wantCode, code)
			assert.False(t, s.Active())
		})
	}
}

func TestStartNilCapability(t *testing.T) {
	s := NewSession(nil, &fakeSink{}, testLogger())
	err := s.Start(context.Background(), Constraints{Facing: FacingUser})
	code, ok := errors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeNotSupported, code)
}

func TestStartFacingFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("fallback succeeds with opposite facing", func(t *testing.T) {
		d := &fakeDevices{streamErrs: []error{stderrors.New("busy"), nil}}
		s := NewSession(d, &fakeSink{frame: previewImage(4, 4)}, testLogger())

		err := s.Start(ctx, Constraints{Facing: FacingEnvironment})
		require.NoError(t, err)
		assert.True(t, s.Active())
		require.Equal(t, 2, d.streamCalls)
		assert.Equal(t, []Facing{FacingEnvironment, FacingUser}, d.seenFacings)
	})

	t.Run("second failure's kind surfaces, first is discarded", func(t *testing.T) {
		d := &fakeDevices{streamErrs: []error{ErrNotAllowed, ErrNotFound}}
		s := NewSession(d, &fakeSink{}, testLogger())

		err := s.Start(ctx, Constraints{Facing: FacingEnvironment})
		require.Error(t, err)
		code, _ := errors.CodeOf(err)
		assert.Equal(t, errors.CodeNoCamera, code)
		assert.Equal(t, 2, d.streamCalls)
	})

	t.Run("first success does not retry", func(t *testing.T) {
		d := &fakeDevices{}
		s := NewSession(d, &fakeSink{frame: previewImage(4, 4)}, testLogger())

		require.NoError(t, s.Start(ctx, Constraints{Facing: FacingUser}))
		assert.Equal(t, 1, d.streamCalls)
	})
}

func TestStartBindFailureStopsStream(t *testing.T) {
	d := &fakeDevices{}
	sink := &fakeSink{bindErr: stderrors.New("sink unavailable")}
	s := NewSession(d, sink, testLogger())

	err := s.Start(context.Background(), Constraints{Facing: FacingUser})
	require.Error(t, err)
	code, _ := errors.CodeOf(err)
	assert.Equal(t, errors.CodeDeviceError, code)
	assert.False(t, s.Active())
}

func TestCapture(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots at native preview resolution", func(t *testing.T) {
		sink := &fakeSink{frame: previewImage(640, 480)}
		s := NewSession(&fakeDevices{}, sink, testLogger())
		require.NoError(t, s.Start(ctx, Constraints{Facing: FacingUser}))

		frame, err := s.Capture()
		require.NoError(t, err)
		assert.Equal(t, 640, frame.Width)
		assert.Equal(t, 480, frame.Height)
		assert.Len(t, frame.Pix, 640*480*4)
	})

	t.Run("no active stream is a precondition violation", func(t *testing.T) {
		s := NewSession(&fakeDevices{}, &fakeSink{}, testLogger())
		_, err := s.Capture()
		assert.ErrorIs(t, err, ErrNoStream)
	})

	t.Run("zero-dimension snapshot is an invalid image", func(t *testing.T) {
		sink := &fakeSink{frame: previewImage(0, 0)}
		s := NewSession(&fakeDevices{}, sink, testLogger())
		require.NoError(t, s.Start(ctx, Constraints{Facing: FacingUser}))

		_, err := s.Capture()
		require.Error(t, err)
		code, ok := errors.CodeOf(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeInvalidImage, code)
	})
}

func TestStopIdempotent(t *testing.T) {
	ctx := context.Background()
	d := &fakeDevices{}
	sink := &fakeSink{frame: previewImage(4, 4)}
	s := NewSession(d, sink, testLogger())

	// Stopping an inactive session does not panic and leaves state unchanged
	s.Stop()
	assert.False(t, s.Active())

	require.NoError(t, s.Start(ctx, Constraints{Facing: FacingUser}))
	assert.True(t, s.Active())

	stream := sink.bound.(*fakeStream)
	s.Stop()
	s.Stop()
	assert.False(t, s.Active())
	assert.Empty(t, s.DeviceID())
	assert.Equal(t, 1, stream.stops)
}

func TestFrameValidate(t *testing.T) {
	assert.Error(t, (*Frame)(nil).Validate())
	assert.Error(t, (&Frame{Width: 2, Height: 2, Pix: make([]byte, 3)}).Validate())
	assert.NoError(t, (&Frame{Width: 1, Height: 1, Pix: make([]byte, 4)}).Validate())
}

func TestFrameImageRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Pix[0] = 0xff

	frame := FrameFromImage(src)
	require.Equal(t, 3, frame.Width)
	require.Equal(t, 2, frame.Height)

	img := frame.Image()
	assert.Equal(t, src.Pix, img.Pix)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
}

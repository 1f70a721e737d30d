package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	cause := stderrors.New("device unplugged")
	err := NewDeviceError("session-1", cause)

	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, CodeDeviceError, code)

	// Codes survive wrapping
	wrapped := fmt.Errorf("starting camera: %w", err)
	code, ok = CodeOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeDeviceError, code)

	// Non-taxonomy errors carry no code
	_, ok = CodeOf(stderrors.New("something else"))
	assert.False(t, ok)
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("worker crashed")
	err := NewProcessingFailedError("session-1", cause)
	assert.ErrorIs(t, err, cause)
}

func TestUserMessage(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "no text found gets its own guidance",
			err:  NewNoTextFoundError(""),
			want: userMessages[CodeNoTextFound],
		},
		{
			name: "processing failure guidance differs from no text",
			err:  NewProcessingFailedError("", stderrors.New("boom")),
			want: userMessages[CodeProcessingFailed],
		},
		{
			name: "non-taxonomy errors fall back to the generic message",
			err:  stderrors.New("boom"),
			want: GenericMessage,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, UserMessage(tc.err))
		})
	}

	// Every taxonomy code has a user message
	for _, code := range []Code{
		CodeNoCamera, CodePermissionDenied, CodeNotSupported, CodeDeviceError,
		CodeInitializationFailed, CodeProcessingFailed, CodeNoTextFound,
		CodeInvalidImage,
	} {
		assert.NotEmpty(t, userMessages[code], "missing user message for %s", code)
	}
}

func TestErrorString(t *testing.T) {
	err := NewInvalidImageError("session-9", 0, 480)
	assert.Contains(t, err.Error(), "INVALID_IMAGE")

	withCause := NewDeviceError("", stderrors.New("track ended"))
	assert.Contains(t, withCause.Error(), "track ended")
}

func TestToMap(t *testing.T) {
	err := NewInvalidImageError("session-9", 0, 480)
	m := err.ToMap()
	assert.Equal(t, "INVALID_IMAGE", m["error_code"])
	assert.Equal(t, 0, m["width"])
	assert.Equal(t, 480, m["height"])
}

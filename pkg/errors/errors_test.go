package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := New(CodeInvalidScene, "bad scene")
	assert.Equal(t, "[1100] bad scene", err.Error())

	cause := errors.New("duration is -1")
	errWithCause := Wrap(CodeInvalidScene, "bad scene", cause)
	assert.Contains(t, errWithCause.Error(), "duration is -1")
	assert.Contains(t, errWithCause.Error(), "1100")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("ffmpeg exit status 1")
	err := Wrap(CodeEncodingFailed, "encoding failed", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestIs(t *testing.T) {
	err := New(CodeAudioMissing, "narration required")

	assert.True(t, Is(err, CodeAudioMissing))
	assert.False(t, Is(err, CodeEncodingFailed))

	regularErr := errors.New("regular error")
	assert.False(t, Is(regularErr, CodeAudioMissing))
}

func TestGetCode(t *testing.T) {
	appErr := New(CodeTimelineTooShort, "nothing to render")
	assert.Equal(t, CodeTimelineTooShort, GetCode(appErr))

	regularErr := errors.New("regular error")
	assert.Equal(t, CodeUnknown, GetCode(regularErr))
}

func TestGetMessage(t *testing.T) {
	appErr := New(CodeCaptionOverlap, "overlapping caption chunks")
	assert.Equal(t, "overlapping caption chunks", GetMessage(appErr))

	regularErr := errors.New("regular error message")
	assert.Equal(t, "regular error message", GetMessage(regularErr))
}

func TestWrappedSentinelKeepsCode(t *testing.T) {
	err := Wrap(CodeEncodingFailed, "encoding failed", errors.New("broken pipe"))
	assert.True(t, Is(err, CodeEncodingFailed))
	assert.Equal(t, CodeEncodingFailed, GetCode(err))
}

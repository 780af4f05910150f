package video

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

func TestNewFFmpegSinkValidation(t *testing.T) {
	_, err := NewFFmpegSink(SinkParams{Width: 0, Height: 1920, FPS: 30, AudioPath: "a.mp3"})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParams))

	_, err = NewFFmpegSink(SinkParams{Width: 1080, Height: 1920, FPS: 30})
	assert.True(t, apperrors.Is(err, apperrors.CodeAudioMissing))
}

func TestNewFFmpegSinkDefaults(t *testing.T) {
	s, err := NewFFmpegSink(SinkParams{
		Width: 1080, Height: 1920, FPS: 30,
		AudioPath: "a.mp3", Encoder: "libx264",
	})
	require.NoError(t, err)
	assert.Equal(t, 22, s.params.Quality)
	assert.Equal(t, "192k", s.params.AudioBitrate)
}

func TestEncoderArgs(t *testing.T) {
	x264 := encoderArgs("libx264", 22)
	assert.Contains(t, x264, "libx264")
	assert.Contains(t, x264, "-crf")
	assert.Contains(t, x264, "yuv420p")

	vt := encoderArgs("h264_videotoolbox", 75)
	assert.Contains(t, vt, "-b:v")
	assert.Contains(t, vt, "7500k")

	nv := encoderArgs("h264_nvenc", 28)
	assert.Contains(t, nv, "-cq")
	assert.Contains(t, nv, "28")
}

func TestBuildArgs(t *testing.T) {
	s, err := NewFFmpegSink(SinkParams{
		Width: 1080, Height: 1920, FPS: 30,
		AudioPath: "voice.mp3", SampleRate: 44100,
		Encoder: "libx264", OutputPath: "out.mp4",
	})
	require.NoError(t, err)

	args := s.buildArgs()
	assert.Contains(t, args, "rawvideo")
	assert.Contains(t, args, "1080x1920")
	assert.Contains(t, args, "voice.mp3")
	assert.Contains(t, args, "1:a:0")
	assert.Contains(t, args, "-ar")
	assert.Contains(t, args, "44100")
	assert.Contains(t, args, "-shortest")
	assert.Contains(t, args, "+faststart")
	assert.Equal(t, "out.mp4", args[len(args)-1])
	assert.NotContains(t, args, "-filter_complex")
}

func TestBuildArgsWithMusic(t *testing.T) {
	s, err := NewFFmpegSink(SinkParams{
		Width: 1080, Height: 1920, FPS: 30,
		AudioPath: "voice.mp3", MusicPath: "music.mp3", MusicVolume: 0.125,
		Encoder: "libx264", OutputPath: "out.mp4",
	})
	require.NoError(t, err)

	args := s.buildArgs()
	assert.Contains(t, args, "music.mp3")
	assert.Contains(t, args, "-filter_complex")
	assert.Contains(t, args, "[aout]")

	var filter string
	for i, a := range args {
		if a == "-filter_complex" {
			filter = args[i+1]
		}
	}
	assert.Contains(t, filter, "volume=0.1250")
	assert.Contains(t, filter, "amix=inputs=2:duration=first")
}

func TestAbortRemovesPartialOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "partial.mp4")
	require.NoError(t, os.WriteFile(out, []byte("truncated"), 0o644))

	s, err := NewFFmpegSink(SinkParams{
		Width: 8, Height: 8, FPS: 30,
		AudioPath: "a.mp3", Encoder: "libx264", OutputPath: out,
	})
	require.NoError(t, err)

	s.Abort()
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "partial output should be removed")
}

func TestCloseRemovesOutputAfterWriteFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "partial.mp4")
	require.NoError(t, os.WriteFile(out, []byte("truncated"), 0o644))

	s, err := NewFFmpegSink(SinkParams{
		Width: 8, Height: 8, FPS: 30,
		AudioPath: "a.mp3", Encoder: "libx264", OutputPath: out,
	})
	require.NoError(t, err)
	s.failed = true

	err = s.Close()
	assert.True(t, apperrors.Is(err, apperrors.CodeEncodingFailed))
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "partial output should be removed")
}

func TestWriteFrameBeforeStart(t *testing.T) {
	s, err := NewFFmpegSink(SinkParams{
		Width: 8, Height: 8, FPS: 30,
		AudioPath: "a.mp3", Encoder: "libx264",
	})
	require.NoError(t, err)
	err = s.WriteFrame(nil)
	assert.True(t, apperrors.Is(err, apperrors.CodeEncodingFailed))
}

// Package video drives ffmpeg: raw RGBA frames are piped over stdin and
// encoded to H.264 with the narration (and optional background music)
// muxed in a single pass.
package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/anzal1/media-monkey/internal/log"
	"github.com/anzal1/media-monkey/internal/system"
	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

// FrameSink consumes the rendered frame stream in output order.
type FrameSink interface {
	WriteFrame(*image.RGBA) error
}

// SinkParams configures an encoding run.
type SinkParams struct {
	Width        int
	Height       int
	FPS          int
	AudioPath    string  // narration, required
	MusicPath    string  // optional background track
	MusicVolume  float64 // music gain relative to narration
	SampleRate   int     // output audio rate, 0 = keep source rate
	Encoder      string  // empty = autodetect
	Quality      int     // 0 = per-encoder default
	AudioBitrate string
	OutputPath   string
}

// FFmpegSink encodes frames by piping raw RGBA into an ffmpeg child
// process. Output length follows the shorter of video and audio
// (-shortest), and the moov atom is moved up front for streaming.
type FFmpegSink struct {
	params SinkParams
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	failed bool
}

// NewFFmpegSink validates params and resolves the encoder. The ffmpeg
// process is not spawned until Start.
func NewFFmpegSink(params SinkParams) (*FFmpegSink, error) {
	if params.Width <= 0 || params.Height <= 0 || params.FPS <= 0 {
		return nil, apperrors.Newf(apperrors.CodeInvalidParams,
			"bad sink geometry %dx%d@%d", params.Width, params.Height, params.FPS)
	}
	if params.AudioPath == "" {
		return nil, apperrors.ErrAudioMissing
	}
	if params.Encoder == "" {
		params.Encoder = system.BestH264Encoder()
	}
	if params.Quality == 0 {
		params.Quality = system.DefaultQuality(params.Encoder)
	}
	if params.AudioBitrate == "" {
		params.AudioBitrate = "192k"
	}
	return &FFmpegSink{params: params}, nil
}

// buildArgs assembles the full ffmpeg argv for this run. Raw RGBA
// frames arrive on stdin; narration (and optional attenuated music) is
// muxed in the same pass.
func (s *FFmpegSink) buildArgs() []string {
	p := s.params

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
		"-i", p.AudioPath,
	}

	if p.MusicPath != "" {
		args = append(args, "-i", p.MusicPath)
		filter := fmt.Sprintf(
			"[2:a]volume=%.4f[bg];[1:a][bg]amix=inputs=2:duration=first:dropout_transition=0[aout]",
			p.MusicVolume)
		args = append(args, "-filter_complex", filter,
			"-map", "0:v:0", "-map", "[aout]")
	} else {
		args = append(args, "-map", "0:v:0", "-map", "1:a:0")
	}

	args = append(args, encoderArgs(p.Encoder, p.Quality)...)
	args = append(args,
		"-c:a", "aac",
		"-b:a", p.AudioBitrate,
	)
	if p.SampleRate > 0 {
		// pin the output rate so frame/sample alignment matches the
		// probed narration rate
		args = append(args, "-ar", fmt.Sprintf("%d", p.SampleRate))
	}
	return append(args,
		"-movflags", "+faststart",
		"-shortest",
		p.OutputPath,
	)
}

// Start spawns the encoder process.
func (s *FFmpegSink) Start(ctx context.Context) error {
	p := s.params

	cmd := exec.CommandContext(ctx, system.FFmpegPath(), s.buildArgs()...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return apperrors.Wrap(apperrors.CodeEncodingFailed, "ffmpeg stdin", err)
	}
	cmd.Stderr = &s.stderr

	log.GetLogger().Debug("starting encoder",
		zap.String("encoder", p.Encoder),
		zap.Int("quality", p.Quality),
		zap.String("output", p.OutputPath))

	if err := cmd.Start(); err != nil {
		return apperrors.Wrap(apperrors.CodeEncodingFailed, "start ffmpeg", err)
	}
	s.cmd = cmd
	s.stdin = stdin
	return nil
}

func encoderArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		return []string{
			"-c:v", encoder,
			"-b:v", fmt.Sprintf("%dk", quality*100),
			"-pix_fmt", "yuv420p",
		}
	case "h264_nvenc":
		return []string{
			"-c:v", encoder,
			"-preset", "p4",
			"-cq", fmt.Sprintf("%d", quality),
			"-pix_fmt", "yuv420p",
		}
	default:
		return []string{
			"-c:v", "libx264",
			"-preset", "medium",
			"-crf", fmt.Sprintf("%d", quality),
			"-pix_fmt", "yuv420p",
		}
	}
}

// WriteFrame pushes one frame into the encoder. Rows are written
// individually when the buffer carries stride padding.
func (s *FFmpegSink) WriteFrame(img *image.RGBA) error {
	if s.stdin == nil {
		return apperrors.New(apperrors.CodeEncodingFailed, "sink not started")
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	rowBytes := w * 4

	if img.Stride == rowBytes {
		_, err := s.stdin.Write(img.Pix[:rowBytes*h])
		return s.wrapWrite(err)
	}
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+rowBytes]
		if _, err := s.stdin.Write(row); err != nil {
			return s.wrapWrite(err)
		}
	}
	return nil
}

func (s *FFmpegSink) wrapWrite(err error) error {
	if err == nil {
		return nil
	}
	s.failed = true
	return apperrors.WrapWithDetail(apperrors.CodeEncodingFailed,
		"pipe frame to ffmpeg", stderrTail(&s.stderr), err)
}

// Close finishes the stream and waits for ffmpeg to mux. On failure the
// partial output file is removed so callers never see a truncated video.
func (s *FFmpegSink) Close() error {
	if s.stdin != nil {
		s.stdin.Close()
		s.stdin = nil
	}
	var err error
	if s.cmd != nil {
		err = s.cmd.Wait()
		s.cmd = nil
	}

	if err != nil || s.failed {
		s.removeOutput()
		if err == nil {
			err = fmt.Errorf("frame write failed earlier")
		}
		return apperrors.WrapWithDetail(apperrors.CodeEncodingFailed,
			"ffmpeg exited with error", stderrTail(&s.stderr), err)
	}
	return nil
}

// Abort kills the encoder and removes any partial output.
func (s *FFmpegSink) Abort() {
	if s.stdin != nil {
		s.stdin.Close()
		s.stdin = nil
	}
	if s.cmd != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
		s.cmd = nil
	}
	s.removeOutput()
}

func (s *FFmpegSink) removeOutput() {
	if err := os.Remove(s.params.OutputPath); err != nil && !os.IsNotExist(err) {
		log.GetLogger().Warn("could not remove partial output",
			zap.String("path", s.params.OutputPath), zap.Error(err))
	}
}

func stderrTail(buf *bytes.Buffer) string {
	out := strings.TrimSpace(buf.String())
	const tail = 600
	if len(out) > tail {
		out = "..." + out[len(out)-tail:]
	}
	return out
}

// MixAudio pre-mixes background music under narration into a standalone
// file: music is attenuated, trimmed or padded to the narration length,
// then summed. On ffmpeg failure the narration is copied through
// unchanged, so a bad music file never blocks a render.
func MixAudio(ctx context.Context, narrationPath, musicPath string, musicVolume float64, outPath string) error {
	filter := fmt.Sprintf(
		"[1:a]volume=%.4f,apad[bg];[0:a][bg]amix=inputs=2:duration=first:dropout_transition=0[aout]",
		musicVolume)
	cmd := exec.CommandContext(ctx, system.FFmpegPath(),
		"-y",
		"-i", narrationPath,
		"-i", musicPath,
		"-filter_complex", filter,
		"-map", "[aout]",
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	log.GetLogger().Warn("audio mix failed, using narration only",
		zap.String("music", musicPath),
		zap.String("detail", strings.TrimSpace(string(out))),
		zap.Error(err))
	if copyErr := copyFile(narrationPath, outPath); copyErr != nil {
		return apperrors.Wrap(apperrors.CodeAudioMixFailed, "fall back to narration", copyErr)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

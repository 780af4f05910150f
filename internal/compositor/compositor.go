// Package compositor turns a validated timeline into the exact pixel
// stream of the output video: Ken Burns crops per frame, linear
// crossfades between scenes, and caption text burned in. Given the same
// timeline, captions and config, the frame stream is byte-identical
// across runs.
package compositor

import (
	"context"
	"image"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/anzal1/media-monkey/internal/config"
	"github.com/anzal1/media-monkey/internal/effects"
	"github.com/anzal1/media-monkey/internal/log"
	"github.com/anzal1/media-monkey/internal/system"
	"github.com/anzal1/media-monkey/internal/timeline"
	"github.com/anzal1/media-monkey/internal/video"
	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

const progressLogInterval = 300 // frames

// Renderer composites timelines into raw RGBA frames.
type Renderer struct {
	cfg     *config.Config
	overlay *Overlay
}

// New builds a renderer, loading the caption font up front so missing
// fonts fail before any frame work.
func New(cfg *config.Config) (*Renderer, error) {
	overlay, err := NewOverlay(cfg)
	if err != nil {
		return nil, err
	}
	return &Renderer{cfg: cfg, overlay: overlay}, nil
}

// Render validates the timeline, then streams every frame into an ffmpeg
// encoder muxing the narration (and optional music) underneath. On
// encoder failure the partial output file is removed by the sink.
func (r *Renderer) Render(ctx context.Context, tl *timeline.Timeline, captions timeline.Captions, narration timeline.AudioTrack, musicPath, outPath string) error {
	if narration.Path == "" {
		return apperrors.ErrAudioMissing
	}

	plan, err := r.Check(tl, captions)
	if err != nil {
		return err
	}

	logger := log.GetLogger()
	logger.Info("render start",
		zap.Int("scenes", len(tl.Scenes)),
		zap.Int("frames", plan.Total),
		zap.Float64("duration", tl.Duration()),
		zap.String("output", outPath))

	sink, err := video.NewFFmpegSink(video.SinkParams{
		Width:        r.cfg.Width,
		Height:       r.cfg.Height,
		FPS:          r.cfg.FPS,
		AudioPath:    narration.Path,
		MusicPath:    musicPath,
		MusicVolume:  r.cfg.MusicVolume,
		SampleRate:   narration.SampleRate,
		Encoder:      r.cfg.VideoEncoder,
		Quality:      r.cfg.Quality,
		AudioBitrate: r.cfg.AudioBitrate,
		OutputPath:   outPath,
	})
	if err != nil {
		return err
	}
	if err := sink.Start(ctx); err != nil {
		return err
	}

	start := time.Now()
	if err := r.Composite(ctx, tl, captions, plan, sink); err != nil {
		sink.Abort()
		return err
	}
	if err := sink.Close(); err != nil {
		return apperrors.Wrap(apperrors.CodeEncodingFailed, "finalize encoder", err)
	}

	logger.Info("render done",
		zap.Int("frames", plan.Total),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Check runs all fail-fast validation and returns the frame plan. No
// pixel work happens until this passes.
func (r *Renderer) Check(tl *timeline.Timeline, captions timeline.Captions) (FramePlan, error) {
	imgW := int(float64(r.cfg.Width) * r.cfg.HeadroomScale)
	imgH := int(float64(r.cfg.Height) * r.cfg.HeadroomScale)
	if err := tl.Validate(imgW, imgH); err != nil {
		return FramePlan{}, err
	}
	captions.WarnOverlaps()

	plan := PlanFrames(tl, r.cfg.FPS)
	if plan.Total <= 0 {
		return FramePlan{}, apperrors.Newf(apperrors.CodeTimelineTooShort,
			"frame plan is empty (%d frames)", plan.Total)
	}
	return plan, nil
}

// Composite emits every output frame of the plan into the sink, in order.
//
// Each scene i contributes frames j in [0, N_i). The head of the scene
// up to blend[i-1] frames was already emitted blended into the previous
// boundary, and its last blend[i] frames are emitted blended with the
// head of scene i+1. A frame is a pure function of (scene, j), so
// nothing is buffered beyond the three working frames.
func (r *Renderer) Composite(ctx context.Context, tl *timeline.Timeline, captions timeline.Captions, plan FramePlan, sink video.FrameSink) error {
	rect := image.Rect(0, 0, r.cfg.Width, r.cfg.Height)
	frame := system.GetFrame(rect)
	mixA := system.GetFrame(rect)
	mixB := system.GetFrame(rect)
	defer func() {
		system.PutFrame(frame)
		system.PutFrame(mixA)
		system.PutFrame(mixB)
	}()

	logger := log.GetLogger()
	emitted := 0

	emit := func(img *image.RGBA) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		tau := float64(emitted) / float64(r.cfg.FPS)
		if chunk := captions.ActiveAt(tau); chunk != nil {
			r.overlay.Burn(img, chunk.Text)
		}
		if err := sink.WriteFrame(img); err != nil {
			return apperrors.Wrap(apperrors.CodeEncodingFailed, "write frame", err)
		}
		emitted++
		if emitted%progressLogInterval == 0 {
			logger.Debug("render progress",
				zap.Int("frame", emitted),
				zap.Int("total", plan.Total))
		}
		return nil
	}

	for i := range tl.Scenes {
		head := 0
		if i > 0 {
			head = plan.BlendFrames[i-1]
		}
		tail := 0
		if i < len(tl.Scenes)-1 {
			tail = plan.BlendFrames[i]
		}
		n := plan.SceneFrames[i]

		for j := head; j < n-tail; j++ {
			r.sceneFrame(frame, &tl.Scenes[i], j, n)
			if err := emit(frame); err != nil {
				return err
			}
		}

		// boundary i -> i+1
		for b := 0; b < tail; b++ {
			r.sceneFrame(mixA, &tl.Scenes[i], n-tail+b, n)
			r.sceneFrame(mixB, &tl.Scenes[i+1], b, plan.SceneFrames[i+1])
			alpha := 0.5
			if tail > 1 {
				alpha = float64(b) / float64(tail-1)
			}
			blendRGBA(frame, mixA, mixB, alpha)
			if err := emit(frame); err != nil {
				return err
			}
		}
	}
	return nil
}

// sceneFrame renders frame j of n for a scene into dst: compute the
// effect crop window at linear progress j/n and scale it to the
// viewport. ApproxBiLinear here because this is the per-frame hot path.
func (r *Renderer) sceneFrame(dst *image.RGBA, s *timeline.Scene, j, n int) {
	t := float64(j) / float64(n)
	b := s.Image.Bounds()
	params := effects.Params{
		ImageWidth:  b.Dx(),
		ImageHeight: b.Dy(),
		ViewWidth:   r.cfg.Width,
		ViewHeight:  r.cfg.Height,
		ZoomFactor:  r.cfg.ZoomFactor,
	}
	crop := params.CropWindow(s.Effect, t)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), s.Image, crop, draw.Src, nil)
}

// blendRGBA writes a*(1-alpha) + b*alpha into dst. The weight is fixed
// point so alpha 0 and 1 reproduce the inputs exactly.
func blendRGBA(dst, a, b *image.RGBA, alpha float64) {
	w := int(alpha*256 + 0.5)
	if w < 0 {
		w = 0
	}
	if w > 256 {
		w = 256
	}
	inv := 256 - w
	for i := range dst.Pix {
		dst.Pix[i] = uint8((int(a.Pix[i])*inv + int(b.Pix[i])*w) >> 8)
	}
}

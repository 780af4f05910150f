// Package pipeline orchestrates a full production run: script, voice,
// scene images, captions, the planned timeline, the render, and the
// cover thumbnail, all collected into a per-run output directory.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anzal1/media-monkey/internal/compositor"
	"github.com/anzal1/media-monkey/internal/config"
	"github.com/anzal1/media-monkey/internal/director"
	"github.com/anzal1/media-monkey/internal/log"
	"github.com/anzal1/media-monkey/internal/source"
	"github.com/anzal1/media-monkey/internal/stock"
	"github.com/anzal1/media-monkey/internal/system"
	"github.com/anzal1/media-monkey/internal/thumbnail"
	"github.com/anzal1/media-monkey/internal/timeline"
	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

// Pipeline wires providers, the director and the compositor.
type Pipeline struct {
	cfg         *config.Config
	scripts     ScriptProvider
	voice       VoiceProvider
	images      ImageProvider
	transcriber TranscriptionProvider
	stock       *stock.Client
	renderer    *compositor.Renderer
}

// Result lists the artifacts of a finished run.
type Result struct {
	RunID         string
	RunDir        string
	VideoPath     string
	ThumbnailPath string
	ManifestPath  string
	CaptionsPath  string
	Duration      float64
}

// New builds a pipeline with filesystem-backed providers reading from
// the configured assets directory.
func New(cfg *config.Config) (*Pipeline, error) {
	renderer, err := compositor.New(cfg)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:         cfg,
		scripts:     &FileScriptProvider{Dir: cfg.AssetsDir},
		voice:       &DirVoiceProvider{Dir: cfg.AssetsDir},
		images:      &DirImageProvider{Dir: filepath.Join(cfg.AssetsDir, "images")},
		transcriber: &SidecarTranscriptionProvider{},
		renderer:    renderer,
	}
	if cfg.UseStockFootage && cfg.PexelsAPIKey != "" {
		p.stock = stock.NewClient(cfg.PexelsAPIKey)
	}
	return p, nil
}

// WithProviders swaps in custom providers, for callers that source
// scripts or audio differently.
func (p *Pipeline) WithProviders(s ScriptProvider, v VoiceProvider, i ImageProvider, t TranscriptionProvider) *Pipeline {
	if s != nil {
		p.scripts = s
	}
	if v != nil {
		p.voice = v
	}
	if i != nil {
		p.images = i
	}
	if t != nil {
		p.transcriber = t
	}
	return p
}

// Run produces one video for the topic.
func (p *Pipeline) Run(ctx context.Context, topic string) (*Result, error) {
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(p.cfg.OutputDir,
		fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), runID))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	logger := log.GetLogger().With(zap.String("run_id", runID))
	logger.Info("pipeline start", zap.String("topic", topic), zap.String("dir", runDir))

	script, err := p.scripts.Script(ctx, topic)
	if err != nil {
		return nil, err
	}

	audioPath, err := p.voice.Narrate(ctx, script, runDir)
	if err != nil {
		return nil, err
	}
	audioDuration, err := system.AudioDuration(audioPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeProbeFailed, "probe narration", err)
	}
	if audioDuration > p.cfg.MaxDuration {
		logger.Warn("narration exceeds max duration, truncating video",
			zap.Float64("narration", audioDuration),
			zap.Float64("max", p.cfg.MaxDuration))
		audioDuration = p.cfg.MaxDuration
	}

	imagePaths, err := p.fetchImages(ctx, script, topic, runDir, logger)
	if err != nil {
		return nil, err
	}

	captions, err := p.transcriber.Transcribe(ctx, audioPath, script)
	if err != nil {
		logger.Warn("transcription failed, chunking narration text", zap.Error(err))
		captions = ChunkNarration(script.Narration, audioDuration)
	}

	d := director.New(p.cfg.FPS, p.cfg.CrossfadeSeconds, p.cfg.Seed)
	tl, err := p.buildTimeline(ctx, d, imagePaths, audioDuration)
	if err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(runDir, "plan.yaml")
	manifest := director.NewManifest(tl, p.cfg.FPS, d.Seed())
	manifest.Title = script.Title
	manifest.Audio = audioPath
	if err := manifest.Save(manifestPath); err != nil {
		logger.Warn("could not write plan manifest", zap.Error(err))
	}

	musicPath := p.pickMusic(logger)

	narration := timeline.AudioTrack{
		Path:       audioPath,
		Duration:   audioDuration,
		SampleRate: system.AudioSampleRate(audioPath),
	}
	videoPath := filepath.Join(runDir, "video.mp4")
	if err := p.renderer.Render(ctx, tl, captions, narration, musicPath, videoPath); err != nil {
		return nil, err
	}

	captionsPath := p.writeCaptions(captions, runDir, logger)
	thumbPath := p.writeThumbnail(imagePaths[0], script.Title, runDir, logger)

	logger.Info("pipeline done",
		zap.String("video", videoPath),
		zap.Float64("duration", tl.Duration()))

	return &Result{
		RunID:         runID,
		RunDir:        runDir,
		VideoPath:     videoPath,
		ThumbnailPath: thumbPath,
		ManifestPath:  manifestPath,
		CaptionsPath:  captionsPath,
		Duration:      tl.Duration(),
	}, nil
}

// fetchImages asks the image provider first and falls back to stock
// footage when enabled.
func (p *Pipeline) fetchImages(ctx context.Context, script *Script, topic, runDir string, logger *zap.Logger) ([]string, error) {
	paths, err := p.images.Images(ctx, script, runDir)
	if err == nil && len(paths) > 0 {
		return paths, nil
	}
	if p.stock == nil {
		if err != nil {
			return nil, err
		}
		return nil, apperrors.Newf(apperrors.CodeAssetNotFound, "no scene images for %q", topic)
	}

	logger.Warn("image provider yielded nothing, fetching stock footage", zap.Error(err))
	query := topic
	if query == "" {
		query = script.Title
	}
	count := len(script.ImagePrompts)
	if count == 0 {
		count = 5
	}
	return p.stock.FetchStills(ctx, query, count, runDir)
}

func (p *Pipeline) buildTimeline(ctx context.Context, d *director.Director, imagePaths []string, audioDuration float64) (*timeline.Timeline, error) {
	workers := p.cfg.Workers
	if workers <= 0 {
		workers = system.RecommendedWorkers(p.cfg.Width, p.cfg.Height)
	}

	prepared, err := source.Prepare(ctx, source.NewImageListSource(imagePaths), source.PrepareParams{
		ViewWidth:  p.cfg.Width,
		ViewHeight: p.cfg.Height,
		Headroom:   p.cfg.HeadroomScale,
		Workers:    workers,
	})
	if err != nil {
		return nil, err
	}

	tl, err := d.BuildTimeline(prepared, imagePaths, audioDuration)
	if err != nil {
		return nil, err
	}
	tl.FitToAudio(audioDuration)
	return tl, nil
}

func (p *Pipeline) pickMusic(logger *zap.Logger) string {
	if p.cfg.MusicDir == "" {
		return ""
	}
	path, err := system.FindLatestAudio(p.cfg.MusicDir)
	if err != nil {
		logger.Debug("no background music found", zap.String("dir", p.cfg.MusicDir))
		return ""
	}
	return path
}

func (p *Pipeline) writeCaptions(captions timeline.Captions, runDir string, logger *zap.Logger) string {
	if len(captions) == 0 {
		return ""
	}
	path := filepath.Join(runDir, "captions.srt")
	f, err := os.Create(path)
	if err != nil {
		logger.Warn("could not write captions sidecar", zap.Error(err))
		return ""
	}
	defer f.Close()
	if err := timeline.WriteSRT(f, captions); err != nil {
		logger.Warn("could not write captions sidecar", zap.Error(err))
		return ""
	}
	return path
}

func (p *Pipeline) writeThumbnail(imagePath, title, runDir string, logger *zap.Logger) string {
	src, err := source.NewImageListSource([]string{imagePath}).Image(0)
	if err != nil {
		logger.Warn("could not load thumbnail source", zap.Error(err))
		return ""
	}

	params := thumbnail.DefaultParams(title)
	params.Width = p.cfg.Width
	params.Height = p.cfg.Height
	params.ChannelURL = p.cfg.ChannelURL

	path := filepath.Join(runDir, "thumbnail.jpg")
	if err := thumbnail.Generate(src, params, path); err != nil {
		logger.Warn("thumbnail generation failed", zap.Error(err))
		return ""
	}
	return path
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/anzal1/media-monkey/internal/config"
	"github.com/anzal1/media-monkey/internal/log"
	"github.com/anzal1/media-monkey/internal/pipeline"
	"github.com/anzal1/media-monkey/internal/system"
)

func main() {
	configPtr := flag.String("config", "", "path to YAML config (defaults + .env overrides when empty)")
	topicPtr := flag.String("topic", "", "topic of the video (fallback title when the script has none)")
	assetsPtr := flag.String("assets", "", "assets directory with script.json, narration audio and images/")
	outputPtr := flag.String("output", "", "output directory for run artifacts")
	seedPtr := flag.Int64("seed", 0, "random seed for durations and effects (0 = time-based)")
	widthPtr := flag.Int("width", 0, "output width (0 = config)")
	heightPtr := flag.Int("height", 0, "output height (0 = config)")
	fpsPtr := flag.Int("fps", 0, "output fps (0 = config)")
	workersPtr := flag.Int("workers", 0, "scene preparation workers (0 = auto)")
	stockPtr := flag.Bool("stock", false, "fetch Pexels stock footage when no scene images are found")
	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, *assetsPtr, *outputPtr, *seedPtr, *widthPtr, *heightPtr, *fpsPtr, *workersPtr, *stockPtr)

	log.InitLogger(cfg.OutputDir)
	logger := log.GetLogger()
	defer logger.Sync()

	system.InitResourceLimits()
	for _, d := range []string{cfg.AssetsDir, cfg.OutputDir, cfg.MusicDir} {
		if d != "" {
			os.MkdirAll(d, 0o755)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.New(cfg)
	if err != nil {
		logger.Fatal("pipeline setup failed", zap.Error(err))
	}

	result, err := p.Run(ctx, *topicPtr)
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}

	fmt.Printf("video:     %s\n", result.VideoPath)
	if result.ThumbnailPath != "" {
		fmt.Printf("thumbnail: %s\n", result.ThumbnailPath)
	}
	if result.CaptionsPath != "" {
		fmt.Printf("captions:  %s\n", result.CaptionsPath)
	}
	fmt.Printf("plan:      %s\n", result.ManifestPath)
	fmt.Printf("duration:  %.1fs\n", result.Duration)
}

func applyFlags(cfg *config.Config, assets, output string, seed int64, width, height, fps, workers int, stock bool) {
	if assets != "" {
		cfg.AssetsDir = assets
	}
	if output != "" {
		cfg.OutputDir = output
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if width != 0 {
		cfg.Width = width
	}
	if height != 0 {
		cfg.Height = height
	}
	if fps != 0 {
		cfg.FPS = fps
	}
	if workers != 0 {
		cfg.Workers = workers
	}
	if stock {
		cfg.UseStockFootage = true
	}
}

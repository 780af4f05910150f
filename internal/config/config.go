package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the explicit configuration passed to pipeline construction.
// Nothing in this package is process-global; callers own their Config.
type Config struct {
	// Output canvas
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`

	// Compositing
	CrossfadeSeconds float64 `yaml:"crossfade_seconds"`
	ZoomFactor       float64 `yaml:"zoom_factor"`    // crop shrinks to this fraction at full zoom
	HeadroomScale    float64 `yaml:"headroom_scale"` // scene images oversized by this factor for pan/zoom room
	MaxDuration      float64 `yaml:"max_duration_seconds"`

	// Captions
	CaptionFont         string  `yaml:"caption_font"` // path to a TTF; empty = search system fonts
	CaptionFontSize     float64 `yaml:"caption_font_size"`
	CaptionColor        string  `yaml:"caption_color"`         // hex, e.g. #FFFF32
	CaptionOutlineColor string  `yaml:"caption_outline_color"` // hex
	CaptionOutlineWidth int     `yaml:"caption_outline_width"`

	// Encoding
	VideoEncoder string `yaml:"video_encoder"` // empty = autodetect
	Quality      int    `yaml:"quality"`       // 0 = per-encoder default
	AudioBitrate string `yaml:"audio_bitrate"`

	// Audio
	MusicVolume float64 `yaml:"music_volume"` // background music gain relative to narration

	// Pipeline
	AssetsDir       string `yaml:"assets_dir"`
	OutputDir       string `yaml:"output_dir"`
	MusicDir        string `yaml:"music_dir"`
	Language        string `yaml:"language"`
	Workers         int    `yaml:"workers"`
	Seed            int64  `yaml:"seed"` // 0 = time-based
	UseStockFootage bool   `yaml:"use_stock_footage"`
	PexelsAPIKey    string `yaml:"pexels_api_key"`
	ChannelURL      string `yaml:"channel_url"`
}

// Default returns the stock vertical-shorts configuration.
func Default() *Config {
	return &Config{
		Width:               1080,
		Height:              1920,
		FPS:                 30,
		CrossfadeSeconds:    0.6,
		ZoomFactor:          0.8,
		HeadroomScale:       1.25,
		MaxDuration:         59,
		CaptionFontSize:     58,
		CaptionColor:        "#FFFF32",
		CaptionOutlineColor: "#000000",
		CaptionOutlineWidth: 4,
		AudioBitrate:        "192k",
		MusicVolume:         0.125, // ~ -18 dB under narration
		AssetsDir:           "assets",
		OutputDir:           "output",
		MusicDir:            "assets/music",
		Language:            "en",
	}
}

// Load builds a Config from defaults, an optional YAML file, and
// environment variables (a .env file is honored when present).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envInt("VIDEO_WIDTH", &c.Width)
	envInt("VIDEO_HEIGHT", &c.Height)
	envInt("VIDEO_FPS", &c.FPS)
	envFloat("MAX_DURATION_SECONDS", &c.MaxDuration)
	envString("OUTPUT_DIR", &c.OutputDir)
	envString("LANGUAGE", &c.Language)
	envString("PEXELS_API_KEY", &c.PexelsAPIKey)
	envString("CHANNEL_URL", &c.ChannelURL)
}

// Validate rejects configurations the compositor cannot work with.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid canvas %dx%d", c.Width, c.Height)
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		// yuv420p output requires even dimensions
		return fmt.Errorf("canvas dimensions must be even, got %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid fps %d", c.FPS)
	}
	if c.CrossfadeSeconds < 0 {
		return fmt.Errorf("invalid crossfade duration %f", c.CrossfadeSeconds)
	}
	if c.ZoomFactor <= 0 || c.ZoomFactor >= 1 {
		return fmt.Errorf("zoom factor must be in (0,1), got %f", c.ZoomFactor)
	}
	if c.HeadroomScale < 1 {
		return fmt.Errorf("headroom scale must be >= 1, got %f", c.HeadroomScale)
	}
	if c.MusicVolume < 0 || c.MusicVolume >= 1 {
		return fmt.Errorf("music volume must be in [0,1), got %f", c.MusicVolume)
	}
	return nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

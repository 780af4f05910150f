package director

import (
	"image"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/anzal1/media-monkey/internal/effects"
	"github.com/anzal1/media-monkey/internal/timeline"
	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

// Manifest is the replayable render plan written next to each output
// video. Feeding it back through LoadManifest and Timeline reproduces
// the same cut.
type Manifest struct {
	Version   string          `yaml:"version"`
	Title     string          `yaml:"title,omitempty"`
	Audio     string          `yaml:"audio"`
	Music     string          `yaml:"music,omitempty"`
	Captions  string          `yaml:"captions,omitempty"`
	FPS       int             `yaml:"fps"`
	Crossfade float64         `yaml:"crossfade"`
	Seed      int64           `yaml:"seed"`
	Scenes    []ManifestScene `yaml:"scenes"`
}

// ManifestScene is one planned scene.
type ManifestScene struct {
	Image    string  `yaml:"image"`
	Duration float64 `yaml:"duration"`
	Effect   string  `yaml:"effect"`
}

const manifestVersion = "1.0"

// NewManifest captures a planned timeline as a manifest.
func NewManifest(tl *timeline.Timeline, fps int, seed int64) *Manifest {
	m := &Manifest{
		Version:   manifestVersion,
		FPS:       fps,
		Crossfade: tl.Crossfade,
		Seed:      seed,
		Scenes:    make([]ManifestScene, len(tl.Scenes)),
	}
	for i, s := range tl.Scenes {
		m.Scenes[i] = ManifestScene{
			Image:    s.ImagePath,
			Duration: s.Duration,
			Effect:   string(s.Effect),
		}
	}
	return m
}

// Save writes the manifest as YAML.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeAssetNotFound, "read manifest", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidParams, "parse manifest", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if len(m.Scenes) == 0 {
		return apperrors.New(apperrors.CodeTimelineTooShort, "manifest has no scenes")
	}
	for i, s := range m.Scenes {
		if s.Image == "" {
			return apperrors.Newf(apperrors.CodeInvalidScene, "manifest scene %d has no image", i)
		}
		if s.Duration <= 0 {
			return apperrors.Newf(apperrors.CodeInvalidScene,
				"manifest scene %d has duration %f", i, s.Duration)
		}
		if !effects.Effect(s.Effect).Valid() {
			return apperrors.Newf(apperrors.CodeInvalidScene,
				"manifest scene %d has unknown effect %q", i, s.Effect)
		}
	}
	return nil
}

// ImagePaths returns the scene image paths in order, for re-preparation.
func (m *Manifest) ImagePaths() []string {
	paths := make([]string, len(m.Scenes))
	for i, s := range m.Scenes {
		paths[i] = s.Image
	}
	return paths
}

// Timeline rebuilds the visual track from the manifest and freshly
// prepared images (parallel to ImagePaths order).
func (m *Manifest) Timeline(prepared []*image.RGBA) (*timeline.Timeline, error) {
	if len(prepared) != len(m.Scenes) {
		return nil, apperrors.Newf(apperrors.CodeInvalidParams,
			"%d prepared images for %d manifest scenes", len(prepared), len(m.Scenes))
	}
	scenes := make([]timeline.Scene, len(m.Scenes))
	for i, s := range m.Scenes {
		scenes[i] = timeline.Scene{
			Image:     prepared[i],
			ImagePath: s.Image,
			Duration:  s.Duration,
			Effect:    effects.Effect(s.Effect),
		}
	}
	return &timeline.Timeline{Scenes: scenes, Crossfade: m.Crossfade}, nil
}

// Package timeline holds the visual and caption tracks handed to the
// compositor: ordered scenes with a chosen Ken Burns effect, the narration
// audio, and timed caption chunks.
package timeline

import (
	"image"

	"github.com/samber/lo"

	"github.com/anzal1/media-monkey/internal/effects"
	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

// Scene is one still image rendered with an animated pan/zoom effect for a
// fixed duration. Immutable once constructed.
type Scene struct {
	Image     *image.RGBA // prepared at headroom size (viewport * headroom scale)
	ImagePath string
	Duration  float64 // seconds, > 0
	Effect    effects.Effect
}

// AudioTrack is a narration waveform on disk. Background music is a second
// AudioTrack mixed underneath at reduced gain; narration is mandatory.
type AudioTrack struct {
	Path       string
	Duration   float64
	SampleRate int
}

// Timeline is the ordered sequence of scenes forming the visual track.
// Adjacent scenes overlap by Crossfade seconds at render time.
type Timeline struct {
	Scenes    []Scene
	Crossfade float64
}

// Duration returns the total rendered duration: scene durations minus one
// crossfade overlap per boundary.
func (tl *Timeline) Duration() float64 {
	sum := lo.SumBy(tl.Scenes, func(s Scene) float64 { return s.Duration })
	if n := len(tl.Scenes); n > 1 {
		sum -= float64(n-1) * tl.Crossfade
	}
	return sum
}

// Validate checks every scene against the expected prepared-image size and
// rejects timelines whose net duration is not positive. It must pass before
// any frame work starts.
func (tl *Timeline) Validate(imageW, imageH int) error {
	if len(tl.Scenes) == 0 {
		return apperrors.New(apperrors.CodeTimelineTooShort, "timeline has no scenes")
	}
	for i, s := range tl.Scenes {
		if s.Duration <= 0 {
			return apperrors.Newf(apperrors.CodeInvalidScene, "scene %d has non-positive duration %f", i, s.Duration)
		}
		if s.Image == nil {
			return apperrors.Newf(apperrors.CodeInvalidScene, "scene %d has no image", i)
		}
		b := s.Image.Bounds()
		if b.Dx() != imageW || b.Dy() != imageH {
			return apperrors.Newf(apperrors.CodeInvalidScene,
				"scene %d image is %dx%d, expected %dx%d", i, b.Dx(), b.Dy(), imageW, imageH)
		}
		if !s.Effect.Valid() {
			return apperrors.Newf(apperrors.CodeInvalidScene, "scene %d has unknown effect %q", i, s.Effect)
		}
	}
	if tl.Duration() <= 0 {
		return apperrors.Newf(apperrors.CodeTimelineTooShort,
			"net duration %.3fs after crossfade overlap", tl.Duration())
	}
	return nil
}

// FitToAudio pads or truncates the last scene so the rendered duration
// tracks the narration length. Truncation never shortens the last scene
// below the crossfade, so the final boundary keeps its blend material.
func (tl *Timeline) FitToAudio(audioDuration float64) {
	if len(tl.Scenes) == 0 || audioDuration <= 0 {
		return
	}
	diff := audioDuration - tl.Duration()
	if diff == 0 {
		return
	}
	last := &tl.Scenes[len(tl.Scenes)-1]
	adjusted := last.Duration + diff
	minDur := tl.Crossfade
	if len(tl.Scenes) == 1 {
		minDur = 0
	}
	if adjusted < minDur {
		adjusted = minDur
	}
	last.Duration = adjusted
}

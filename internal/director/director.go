// Package director plans a render: it distributes scene durations over
// the narration length, assigns a pan/zoom effect to every scene, and
// records the plan as a YAML manifest so a render can be replayed.
package director

import (
	"image"
	"math"
	"math/rand"
	"time"

	"github.com/anzal1/media-monkey/internal/effects"
	"github.com/anzal1/media-monkey/internal/timeline"
	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

// jitter is the per-scene duration deviation range.
const jitter = 0.15

// minSceneFactor keeps every scene comfortably longer than the
// crossfade it participates in.
const minSceneFactor = 1.1

// Director owns the randomness of a plan. A non-zero seed reproduces
// the exact same durations and effects.
type Director struct {
	fps       int
	crossfade float64
	seed      int64
	rng       *rand.Rand
}

// New creates a director. Seed 0 means time-based.
func New(fps int, crossfade float64, seed int64) *Director {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Director{
		fps:       fps,
		crossfade: crossfade,
		seed:      seed,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed actually in use, for manifests and logs.
func (d *Director) Seed() int64 {
	return d.seed
}

// DistributeDurations splits the visual track over sceneCount scenes.
//
// Crossfades overlap adjacent scenes, so the clips must jointly run
// audioDuration + (n-1)*crossfade seconds. Each scene deviates up to
// ±15% from its predecessor for a hand-cut feel, is kept above
// 1.1 crossfades, and the set is rescaled so the sum lands exactly on
// target. Durations are snapped to the frame grid afterwards; rounding
// drift is absorbed by the longest scene.
func (d *Director) DistributeDurations(sceneCount int, audioDuration float64) []float64 {
	if sceneCount <= 0 {
		return nil
	}

	numFades := float64(sceneCount - 1)
	total := audioDuration + numFades*d.crossfade
	base := total / float64(sceneCount)

	durations := make([]float64, sceneCount)
	durations[0] = base * (1 + d.deviation())
	for i := 1; i < sceneCount; i++ {
		durations[i] = durations[i-1] * (1 + d.deviation())
		if durations[i] < d.crossfade*minSceneFactor {
			durations[i] = d.crossfade * minSceneFactor
		}
	}

	sum := 0.0
	for _, dur := range durations {
		sum += dur
	}
	scale := total / sum
	for i := range durations {
		durations[i] *= scale
	}

	d.snapToFrameGrid(durations, total)
	return durations
}

func (d *Director) deviation() float64 {
	return d.rng.Float64()*2*jitter - jitter
}

// snapToFrameGrid rounds every duration to whole frames and pushes the
// rounding drift into the longest scene, so the summed frame count
// matches the target exactly.
func (d *Director) snapToFrameGrid(durations []float64, total float64) {
	fps := float64(d.fps)
	targetFrames := int(math.Round(total * fps))

	frames := make([]int, len(durations))
	sumFrames := 0
	longest := 0
	for i, dur := range durations {
		frames[i] = int(math.Round(dur * fps))
		if frames[i] < 1 {
			frames[i] = 1
		}
		sumFrames += frames[i]
		if frames[i] > frames[longest] {
			longest = i
		}
	}
	frames[longest] += targetFrames - sumFrames
	if frames[longest] < 1 {
		frames[longest] = 1
	}

	for i := range durations {
		durations[i] = float64(frames[i]) / fps
	}
}

// AssignEffects picks an effect per scene, rerolling once when a pick
// repeats its neighbor so back-to-back scenes rarely move the same way.
func (d *Director) AssignEffects(sceneCount int) []effects.Effect {
	out := make([]effects.Effect, sceneCount)
	for i := range out {
		e := effects.Pick(d.rng)
		if i > 0 && e == out[i-1] {
			e = effects.Pick(d.rng)
		}
		out[i] = e
	}
	return out
}

// BuildTimeline assembles a full visual track from prepared scene
// images. Images and paths are parallel slices.
func (d *Director) BuildTimeline(images []*image.RGBA, paths []string, audioDuration float64) (*timeline.Timeline, error) {
	n := len(images)
	if n == 0 {
		return nil, apperrors.New(apperrors.CodeTimelineTooShort, "no scene images to plan")
	}
	if len(paths) != n {
		return nil, apperrors.Newf(apperrors.CodeInvalidParams,
			"%d images but %d paths", n, len(paths))
	}

	durations := d.DistributeDurations(n, audioDuration)
	chosen := d.AssignEffects(n)

	crossfade := d.crossfade
	if n == 1 {
		crossfade = 0
	}

	scenes := make([]timeline.Scene, n)
	for i := range scenes {
		scenes[i] = timeline.Scene{
			Image:     images[i],
			ImagePath: paths[i],
			Duration:  durations[i],
			Effect:    chosen[i],
		}
	}
	return &timeline.Timeline{Scenes: scenes, Crossfade: crossfade}, nil
}

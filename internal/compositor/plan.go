package compositor

import (
	"math"

	"github.com/anzal1/media-monkey/internal/timeline"
)

// FramePlan is the exact frame accounting for a render: per-scene frame
// counts, per-boundary blend lengths, and the resulting total. Blended
// frames replace the tail of the outgoing scene and the head of the
// incoming one, so every boundary shortens the output by its blend length.
type FramePlan struct {
	SceneFrames []int // N_i = round(duration_i * fps)
	BlendFrames []int // per boundary, clamped (len = scenes-1)
	Total       int
}

// PlanFrames computes the frame accounting for a timeline at the given
// frame rate.
//
// The nominal blend length M = round(crossfade * fps) is clamped per
// boundary to the frames actually available: the incoming scene's full
// length, and the outgoing scene's length minus whatever its head already
// contributed to the previous boundary. A very short scene therefore
// never has frames read past its end, and a middle scene shorter than two
// crossfades cannot be consumed twice.
func PlanFrames(tl *timeline.Timeline, fps int) FramePlan {
	n := len(tl.Scenes)
	plan := FramePlan{
		SceneFrames: make([]int, n),
		BlendFrames: make([]int, max(n-1, 0)),
	}

	for i, s := range tl.Scenes {
		plan.SceneFrames[i] = int(math.Round(s.Duration * float64(fps)))
	}

	nominal := int(math.Round(tl.Crossfade * float64(fps)))
	for b := 0; b < n-1; b++ {
		consumed := 0
		if b > 0 {
			consumed = plan.BlendFrames[b-1]
		}
		m := nominal
		if avail := plan.SceneFrames[b] - consumed; m > avail {
			m = avail
		}
		if m > plan.SceneFrames[b+1] {
			m = plan.SceneFrames[b+1]
		}
		if m < 0 {
			m = 0
		}
		plan.BlendFrames[b] = m
	}

	for _, f := range plan.SceneFrames {
		plan.Total += f
	}
	for _, m := range plan.BlendFrames {
		plan.Total -= m
	}
	return plan
}

// SampleIndex returns the audio sample index at which frame k begins:
// floor((k/fps) * sampleRate), computed in integer math so there is no
// float drift over long renders. This is the alignment contract the
// encoding sink is held to; the sink pins its output rate to the probed
// narration rate so the mapping holds end to end.
func SampleIndex(frame, fps, sampleRate int) int64 {
	return int64(frame) * int64(sampleRate) / int64(fps)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

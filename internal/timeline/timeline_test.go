package timeline

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anzal1/media-monkey/internal/effects"
	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

const (
	testImgW = 1350
	testImgH = 2400
)

func testScene(dur float64) Scene {
	return Scene{
		Image:    image.NewRGBA(image.Rect(0, 0, testImgW, testImgH)),
		Duration: dur,
		Effect:   effects.ZoomIn,
	}
}

func testTimeline(crossfade float64, durs ...float64) *Timeline {
	tl := &Timeline{Crossfade: crossfade}
	for _, d := range durs {
		tl.Scenes = append(tl.Scenes, testScene(d))
	}
	return tl
}

func TestDurationSubtractsCrossfadeOverlap(t *testing.T) {
	tl := testTimeline(0.6, 3, 2, 4)
	// 9s of scenes, two boundaries overlap 0.6s each
	assert.InDelta(t, 7.8, tl.Duration(), 1e-9)
}

func TestDurationSingleScene(t *testing.T) {
	tl := testTimeline(0.6, 5)
	assert.InDelta(t, 5.0, tl.Duration(), 1e-9)
}

func TestValidateAcceptsGoodTimeline(t *testing.T) {
	tl := testTimeline(0.6, 3, 2, 4)
	require.NoError(t, tl.Validate(testImgW, testImgH))
}

func TestValidateRejectsNonPositiveDuration(t *testing.T) {
	tl := testTimeline(0.6, 3, -1, 4)
	err := tl.Validate(testImgW, testImgH)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidScene))
}

func TestValidateRejectsDimensionMismatch(t *testing.T) {
	tl := testTimeline(0.6, 3)
	tl.Scenes[0].Image = image.NewRGBA(image.Rect(0, 0, 100, 100))
	err := tl.Validate(testImgW, testImgH)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidScene))
}

func TestValidateRejectsUnknownEffect(t *testing.T) {
	tl := testTimeline(0.6, 3)
	tl.Scenes[0].Effect = "wobble"
	err := tl.Validate(testImgW, testImgH)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidScene))
}

func TestValidateRejectsEmptyAndTooShortTimelines(t *testing.T) {
	empty := &Timeline{Crossfade: 0.6}
	assert.True(t, apperrors.Is(empty.Validate(testImgW, testImgH), apperrors.CodeTimelineTooShort))

	// two 0.3s scenes fully consumed by a 0.6s crossfade
	short := testTimeline(0.6, 0.3, 0.3)
	assert.True(t, apperrors.Is(short.Validate(testImgW, testImgH), apperrors.CodeTimelineTooShort))
}

func TestFitToAudioPads(t *testing.T) {
	tl := testTimeline(0.6, 3, 2)
	tl.FitToAudio(10)
	assert.InDelta(t, 10, tl.Duration(), 1e-9)
	assert.InDelta(t, 3, tl.Scenes[0].Duration, 1e-9, "only the last scene is adjusted")
}

func TestFitToAudioTruncates(t *testing.T) {
	tl := testTimeline(0.6, 3, 5)
	tl.FitToAudio(4)
	assert.InDelta(t, 4, tl.Duration(), 1e-9)
}

func TestFitToAudioKeepsCrossfadeMaterial(t *testing.T) {
	tl := testTimeline(0.6, 3, 5)
	tl.FitToAudio(0.1) // would require a 0.3s last scene
	last := tl.Scenes[len(tl.Scenes)-1].Duration
	assert.True(t, last >= tl.Crossfade, "last scene %.2fs shorter than crossfade", last)
}

func TestActiveAtBoundaries(t *testing.T) {
	caps := Captions{{Text: "hello world", Start: 1.0, End: 1.5}}

	if got := caps.ActiveAt(1.2); assert.NotNil(t, got) {
		assert.Equal(t, "hello world", got.Text)
	}
	assert.NotNil(t, caps.ActiveAt(1.0), "start is inclusive")
	assert.Nil(t, caps.ActiveAt(1.5), "end is exclusive")
	assert.Nil(t, caps.ActiveAt(1.6))
	assert.Nil(t, caps.ActiveAt(0.9))
}

func TestActiveAtFirstMatchOnOverlap(t *testing.T) {
	caps := Captions{
		{Text: "first", Start: 1.0, End: 2.0},
		{Text: "second", Start: 1.5, End: 2.5},
	}
	got := caps.ActiveAt(1.7)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Text)

	assert.Equal(t, []int{1}, caps.Overlaps())
}

func TestOverlapsCleanTrack(t *testing.T) {
	caps := Captions{
		{Text: "a", Start: 0, End: 1},
		{Text: "b", Start: 1, End: 2},
	}
	assert.Empty(t, caps.Overlaps())
}

func TestDurationNeverNaN(t *testing.T) {
	tl := &Timeline{Crossfade: 0.6}
	assert.False(t, math.IsNaN(tl.Duration()))
	assert.Equal(t, 0.0, tl.Duration())
}

package director

import (
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributeDurationsSumAndGrid(t *testing.T) {
	d := New(30, 0.6, 42)
	durations := d.DistributeDurations(5, 20.0)
	require.Len(t, durations, 5)

	// clips jointly cover audio plus one crossfade per boundary
	sum := 0.0
	for _, dur := range durations {
		sum += dur
		// every duration lands on the frame grid
		frames := dur * 30
		assert.InDelta(t, math.Round(frames), frames, 1e-9)
	}
	assert.InDelta(t, 20.0+4*0.6, sum, 1e-9)
}

func TestDistributeDurationsFloor(t *testing.T) {
	d := New(30, 0.6, 7)
	// many scenes over little audio forces short clips
	durations := d.DistributeDurations(12, 8.0)
	for i, dur := range durations {
		assert.Greater(t, dur, 0.0, "scene %d", i)
	}
}

func TestDistributeDurationsDeterministic(t *testing.T) {
	a := New(30, 0.6, 99).DistributeDurations(4, 15.0)
	b := New(30, 0.6, 99).DistributeDurations(4, 15.0)
	assert.Equal(t, a, b)

	c := New(30, 0.6, 100).DistributeDurations(4, 15.0)
	assert.NotEqual(t, a, c)
}

func TestDistributeDurationsJitterBounded(t *testing.T) {
	d := New(30, 0.6, 3)
	durations := d.DistributeDurations(8, 40.0)

	// relative step between neighbors stays within the deviation range,
	// with slack for floor clamping, rescale and grid snapping
	for i := 1; i < len(durations); i++ {
		ratio := durations[i] / durations[i-1]
		assert.Greater(t, ratio, 0.8, "scene %d", i)
		assert.Less(t, ratio, 1.2, "scene %d", i)
	}
}

func TestAssignEffectsValidAndSeeded(t *testing.T) {
	a := New(30, 0.6, 11).AssignEffects(10)
	b := New(30, 0.6, 11).AssignEffects(10)
	assert.Equal(t, a, b)
	for i, e := range a {
		assert.True(t, e.Valid(), "scene %d effect %q", i, e)
	}
}

func TestBuildTimeline(t *testing.T) {
	imgs := []*image.RGBA{
		image.NewRGBA(image.Rect(0, 0, 10, 10)),
		image.NewRGBA(image.Rect(0, 0, 10, 10)),
		image.NewRGBA(image.Rect(0, 0, 10, 10)),
	}
	paths := []string{"a.png", "b.png", "c.png"}

	d := New(30, 0.6, 5)
	tl, err := d.BuildTimeline(imgs, paths, 12.0)
	require.NoError(t, err)
	require.Len(t, tl.Scenes, 3)

	assert.Equal(t, 0.6, tl.Crossfade)
	assert.InDelta(t, 12.0, tl.Duration(), 1e-9)
	for i, s := range tl.Scenes {
		assert.Equal(t, paths[i], s.ImagePath)
		assert.True(t, s.Effect.Valid())
	}
}

func TestBuildTimelineSingleSceneNoCrossfade(t *testing.T) {
	d := New(30, 0.6, 5)
	tl, err := d.BuildTimeline(
		[]*image.RGBA{image.NewRGBA(image.Rect(0, 0, 4, 4))},
		[]string{"only.png"}, 5.0)
	require.NoError(t, err)
	assert.Zero(t, tl.Crossfade)
	assert.InDelta(t, 5.0, tl.Duration(), 1e-9)
}

func TestBuildTimelineEmpty(t *testing.T) {
	d := New(30, 0.6, 5)
	_, err := d.BuildTimeline(nil, nil, 5.0)
	assert.Error(t, err)
}

func TestManifestRoundTrip(t *testing.T) {
	imgs := []*image.RGBA{
		image.NewRGBA(image.Rect(0, 0, 10, 10)),
		image.NewRGBA(image.Rect(0, 0, 10, 10)),
	}
	d := New(30, 0.6, 21)
	tl, err := d.BuildTimeline(imgs, []string{"one.png", "two.png"}, 9.0)
	require.NoError(t, err)

	m := NewManifest(tl, 30, d.Seed())
	m.Audio = "voice.mp3"
	m.Captions = "voice.srt"

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, m.Save(path))

	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m.Seed, loaded.Seed)
	assert.Equal(t, m.Audio, loaded.Audio)
	assert.Equal(t, m.Scenes, loaded.Scenes)
	assert.Equal(t, []string{"one.png", "two.png"}, loaded.ImagePaths())

	rebuilt, err := loaded.Timeline(imgs)
	require.NoError(t, err)
	assert.InDelta(t, tl.Duration(), rebuilt.Duration(), 1e-9)
	for i := range tl.Scenes {
		assert.Equal(t, tl.Scenes[i].Effect, rebuilt.Scenes[i].Effect)
		assert.Equal(t, tl.Scenes[i].Duration, rebuilt.Scenes[i].Duration)
	}
}

func TestLoadManifestRejectsBadScenes(t *testing.T) {
	dir := t.TempDir()

	write := func(body string) string {
		path := filepath.Join(dir, "m.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	_, err := LoadManifest(write("version: \"1.0\"\nscenes: []\n"))
	assert.Error(t, err)

	_, err = LoadManifest(write(
		"version: \"1.0\"\nscenes:\n  - image: a.png\n    duration: 2\n    effect: warp_drive\n"))
	assert.Error(t, err)
}

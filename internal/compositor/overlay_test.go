package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anzal1/media-monkey/internal/config"
)

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#FFFF32")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 0x32, A: 255}, c)

	c, err = ParseHexColor("000000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{A: 255}, c)

	for _, bad := range []string{"", "#FFF", "#GGGGGG", "#FFFF320"} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestOverlayBurnDrawsTextWithOutline(t *testing.T) {
	cfg := config.Default()
	cfg.Width = 400
	cfg.Height = 400
	cfg.CaptionFontSize = 32

	o, err := NewOverlay(cfg)
	require.NoError(t, err)

	frame := image.NewRGBA(image.Rect(0, 0, 400, 400))
	for i := 0; i < len(frame.Pix); i += 4 {
		frame.Pix[i+3] = 255
	}
	o.Burn(frame, "HELLO")

	var fill int
	for y := 0; y < 400; y++ {
		for x := 0; x < 400; x++ {
			px := frame.RGBAAt(x, y)
			if px.R == 255 && px.G == 255 && px.B == 0x32 {
				fill++
			}
		}
	}
	assert.Greater(t, fill, 50, "glyph interiors should carry the fill color")

	// text block is anchored around 72% of the frame height
	minY, maxY := 400, 0
	for y := 0; y < 400; y++ {
		for x := 0; x < 400; x++ {
			px := frame.RGBAAt(x, y)
			if px.R == 255 && px.G == 255 {
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	center := (minY + maxY) / 2
	assert.InDelta(t, 288, center, 40)
}

func TestOverlayBurnEmptyTextNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Width = 100
	cfg.Height = 100

	o, err := NewOverlay(cfg)
	require.NoError(t, err)

	frame := image.NewRGBA(image.Rect(0, 0, 100, 100))
	before := make([]uint8, len(frame.Pix))
	copy(before, frame.Pix)

	o.Burn(frame, "")
	o.Burn(frame, "   ")
	assert.Equal(t, before, frame.Pix)
}

func TestOverlayWrapLongText(t *testing.T) {
	cfg := config.Default()
	cfg.Width = 200
	cfg.Height = 400
	cfg.CaptionFontSize = 28

	o, err := NewOverlay(cfg)
	require.NoError(t, err)

	lines := o.wrap("several words that cannot possibly fit one line")
	assert.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.NotEmpty(t, l)
	}

	assert.Equal(t, []string{"hi"}, o.wrap("hi"))
}

func TestOverlayDeterministic(t *testing.T) {
	cfg := config.Default()
	cfg.Width = 300
	cfg.Height = 300

	draw := func() []uint8 {
		o, err := NewOverlay(cfg)
		require.NoError(t, err)
		frame := image.NewRGBA(image.Rect(0, 0, 300, 300))
		o.Burn(frame, "SAME TEXT")
		return frame.Pix
	}
	assert.Equal(t, draw(), draw())
}

package thumbnail

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sceneStill(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = 255
	}
	return img
}

func TestGenerateWritesJPEGAtSize(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cover.jpg")
	params := Params{Width: 270, Height: 480, Title: "ocean facts", FontSize: 24, JPEGQuality: 85}

	err := Generate(sceneStill(500, 500, color.RGBA{R: 120, G: 80, B: 40}), params, out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 270, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestGenerateWithQRBadge(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cover.jpg")
	params := Params{
		Width: 1080, Height: 1920,
		Title: "deep sea", FontSize: 96, JPEGQuality: 90,
		ChannelURL: "https://example.com/channel",
	}
	err := Generate(sceneStill(1080, 1920, color.RGBA{B: 200}), params, out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)

	// QR badge corner carries bright modules on the darkened footage
	bounds := img.Bounds()
	var bright int
	for y := bounds.Dy() - qrSize - qrMargin; y < bounds.Dy()-qrMargin; y++ {
		for x := bounds.Dx() - qrSize - qrMargin; x < bounds.Dx()-qrMargin; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r>>8 > 200 && g>>8 > 200 && b>>8 > 200 {
				bright++
			}
		}
	}
	assert.Greater(t, bright, 100)
}

func TestGenerateTruncatesLongTitle(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cover.jpg")
	params := Params{
		Width: 270, Height: 480, FontSize: 20, JPEGQuality: 80,
		Title: "an exceedingly verbose title that goes on and on well past any reasonable cover length",
	}
	assert.NoError(t, Generate(sceneStill(270, 480, color.RGBA{G: 90}), params, out))
}

func TestGenerateRejectsBadSize(t *testing.T) {
	err := Generate(sceneStill(10, 10, color.RGBA{}), Params{Width: 0, Height: 10}, "x.jpg")
	assert.Error(t, err)
}

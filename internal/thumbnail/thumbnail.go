// Package thumbnail renders a cover image for a finished video: the
// first scene still, the title burned in large type, and an optional QR
// badge pointing at the channel.
package thumbnail

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

// Params controls thumbnail composition.
type Params struct {
	Width       int
	Height      int
	Title       string
	ChannelURL  string // empty = no QR badge
	FontSize    float64
	JPEGQuality int
}

// DefaultParams returns the vertical-cover defaults.
func DefaultParams(title string) Params {
	return Params{
		Width:       1080,
		Height:      1920,
		Title:       title,
		FontSize:    96,
		JPEGQuality: 90,
	}
}

const (
	maxTitleLen = 60
	qrSize      = 220
	qrMargin    = 48
)

// Generate composes the cover from the scene still and writes it as
// JPEG to outPath.
func Generate(scene image.Image, params Params, outPath string) error {
	if params.Width <= 0 || params.Height <= 0 {
		return apperrors.Newf(apperrors.CodeInvalidParams,
			"bad thumbnail size %dx%d", params.Width, params.Height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, params.Width, params.Height))
	coverScale(canvas, scene)
	darken(canvas, 0.35)

	if err := drawTitle(canvas, params); err != nil {
		return err
	}
	if params.ChannelURL != "" {
		if err := drawQRBadge(canvas, params.ChannelURL); err != nil {
			return err
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeEncodingFailed, "create thumbnail", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, canvas, &jpeg.Options{Quality: params.JPEGQuality}); err != nil {
		return apperrors.Wrap(apperrors.CodeEncodingFailed, "encode thumbnail", err)
	}
	return f.Close()
}

// coverScale fills dst with src, preserving aspect and center-cropping.
func coverScale(dst *image.RGBA, src image.Image) {
	dw := dst.Bounds().Dx()
	dh := dst.Bounds().Dy()
	sw := src.Bounds().Dx()
	sh := src.Bounds().Dy()
	if sw == 0 || sh == 0 {
		return
	}

	var cw, ch int
	if sw*dh > sh*dw {
		ch = sh
		cw = sh * dw / dh
	} else {
		cw = sw
		ch = sw * dh / dw
	}
	left := src.Bounds().Min.X + (sw-cw)/2
	top := src.Bounds().Min.Y + (sh-ch)/2
	crop := image.Rect(left, top, left+cw, top+ch)

	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
}

// darken multiplies every channel down so white title text reads on any
// footage.
func darken(img *image.RGBA, amount float64) {
	keep := 1.0 - amount
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(float64(img.Pix[i]) * keep)
		img.Pix[i+1] = uint8(float64(img.Pix[i+1]) * keep)
		img.Pix[i+2] = uint8(float64(img.Pix[i+2]) * keep)
	}
}

func drawTitle(canvas *image.RGBA, params Params) error {
	title := strings.ToUpper(strings.TrimSpace(params.Title))
	if title == "" {
		return nil
	}
	if len(title) > maxTitleLen {
		title = strings.TrimSpace(title[:maxTitleLen-3]) + "..."
	}

	fnt, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeFontNotFound, "parse title font", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    params.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeFontNotFound, "create title face", err)
	}
	defer face.Close()

	lines := wrapTitle(face, title, canvas.Bounds().Dx()-2*qrMargin)
	lineHeight := int(params.FontSize * 1.25)
	top := canvas.Bounds().Dy()/3 - lineHeight*len(lines)/2

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	for i, line := range lines {
		width := font.MeasureString(face, line).Ceil()
		x := (canvas.Bounds().Dx() - width) / 2
		y := top + i*lineHeight + face.Metrics().Ascent.Ceil()

		for dy := -3; dy <= 3; dy++ {
			for dx := -3; dx <= 3; dx++ {
				if dx*dx+dy*dy > 9 || (dx == 0 && dy == 0) {
					continue
				}
				drawString(canvas, face, line, x+dx, y+dy, black)
			}
		}
		drawString(canvas, face, line, x, y, white)
	}
	return nil
}

func drawString(dst *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func wrapTitle(face font.Face, title string, maxW int) []string {
	words := strings.Fields(title)
	var lines []string
	var cur string
	for _, w := range words {
		candidate := w
		if cur != "" {
			candidate = cur + " " + w
		}
		if font.MeasureString(face, candidate).Ceil() > maxW && cur != "" {
			lines = append(lines, cur)
			cur = w
		} else {
			cur = candidate
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// drawQRBadge places a QR code for the channel link in the bottom-right
// corner.
func drawQRBadge(canvas *image.RGBA, url string) error {
	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidParams, "build channel QR", err)
	}
	badge := qr.Image(qrSize)

	x := canvas.Bounds().Dx() - qrSize - qrMargin
	y := canvas.Bounds().Dy() - qrSize - qrMargin
	target := image.Rect(x, y, x+qrSize, y+qrSize)
	draw.Draw(canvas, target, badge, badge.Bounds().Min, draw.Src)
	return nil
}

package source

import (
	"context"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// PrepareParams controls headroom preparation.
type PrepareParams struct {
	ViewWidth  int
	ViewHeight int
	Headroom   float64 // oversize factor, e.g. 1.25
	Workers    int
}

// TargetSize returns the prepared image dimensions.
func (p PrepareParams) TargetSize() (int, int) {
	return int(float64(p.ViewWidth) * p.Headroom), int(float64(p.ViewHeight) * p.Headroom)
}

// Prepare decodes and resizes every source still to the headroom canvas.
// Scenes are independent, so decoding runs in parallel; the returned slice
// preserves source order.
func Prepare(ctx context.Context, src Source, params PrepareParams) ([]*image.RGBA, error) {
	n := src.Count()
	prepared := make([]*image.RGBA, n)

	workers := params.Workers
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := src.Image(i)
			if err != nil {
				return err
			}
			prepared[i] = FitHeadroom(img, params)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prepared, nil
}

// FitHeadroom scales an image to cover the headroom canvas preserving
// aspect ratio, then center-crops the overflow. CatmullRom is used here
// because this runs once per scene, not once per frame.
func FitHeadroom(img image.Image, params PrepareParams) *image.RGBA {
	targetW, targetH := params.TargetSize()

	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()

	// scale-to-cover: the smaller relative dimension dictates the factor
	var newW, newH int
	if srcW*targetH > srcH*targetW {
		newH = targetH
		newW = srcW * targetH / srcH
	} else {
		newW = targetW
		newH = srcH * targetW / srcW
	}

	scaled := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	left := (newW - targetW) / 2
	top := (newH - targetH) / 2

	out := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.Draw(out, out.Bounds(), scaled, image.Pt(left, top), draw.Src)
	return out
}

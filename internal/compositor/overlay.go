package compositor

import (
	"image"
	"image/color"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/anzal1/media-monkey/internal/config"
	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

// Caption anchor: text block centered at 72% of frame height, the sweet
// spot above phone UI chrome for vertical video.
const captionAnchor = 0.72

// sideMargin keeps wrapped caption lines off the frame edges.
const sideMargin = 50

// systemFontCandidates are tried when no caption font is configured.
// TrueType collections (.ttc) are skipped; opentype cannot parse them.
var systemFontCandidates = []string{
	"/System/Library/Fonts/Supplemental/Arial Bold.ttf",
	"/Library/Fonts/Arial Bold.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
	"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
	"C:/Windows/Fonts/arialbd.ttf",
}

// Overlay burns caption text onto frames. Rendering is stateless per
// frame and pixel-deterministic for a given font, text and frame size.
type Overlay struct {
	face       font.Face
	fill       color.RGBA
	outline    color.RGBA
	outlineR   int
	frameW     int
	frameH     int
	lineHeight int
}

// NewOverlay loads the caption font and colors from config. The bundled
// Go Bold face is the final fallback so caption rendering never depends
// on host fonts.
func NewOverlay(cfg *config.Config) (*Overlay, error) {
	fill, err := ParseHexColor(cfg.CaptionColor)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidParams, "caption color", err)
	}
	outline, err := ParseHexColor(cfg.CaptionOutlineColor)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidParams, "caption outline color", err)
	}

	fnt, err := loadFont(cfg.CaptionFont)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    cfg.CaptionFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFontNotFound, "create font face", err)
	}

	return &Overlay{
		face:       face,
		fill:       fill,
		outline:    outline,
		outlineR:   cfg.CaptionOutlineWidth,
		frameW:     cfg.Width,
		frameH:     cfg.Height,
		lineHeight: int(cfg.CaptionFontSize * 1.5),
	}, nil
}

func loadFont(path string) (*opentype.Font, error) {
	candidates := systemFontCandidates
	if path != "" {
		candidates = append([]string{path}, candidates...)
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if fnt, err := opentype.Parse(data); err == nil {
			return fnt, nil
		}
	}
	return opentype.Parse(gobold.TTF)
}

// Burn draws text centered near the bottom third of the frame: outline
// stroke first (filled circle of offsets), then the highlight fill on top.
func (o *Overlay) Burn(frame *image.RGBA, text string) {
	lines := o.wrap(text)
	if len(lines) == 0 {
		return
	}

	blockH := o.lineHeight * len(lines)
	top := int(float64(o.frameH)*captionAnchor) - blockH/2
	if top < 0 {
		top = 0
	}
	if top+blockH > o.frameH {
		top = o.frameH - blockH
	}

	for i, line := range lines {
		width := font.MeasureString(o.face, line).Ceil()
		x := (o.frameW - width) / 2
		// baseline sits at the line's ascent
		y := top + i*o.lineHeight + o.face.Metrics().Ascent.Ceil()

		r := o.outlineR
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx*dx+dy*dy > r*r || (dx == 0 && dy == 0) {
					continue
				}
				o.drawLine(frame, line, x+dx, y+dy, o.outline)
			}
		}
		o.drawLine(frame, line, x, y, o.fill)
	}
}

func (o *Overlay) drawLine(dst *image.RGBA, text string, x, y int, c color.RGBA) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: o.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// wrap splits text into lines that fit the frame width minus margins.
// Caption chunks are three words or fewer, so this rarely produces more
// than one line, but long words must not spill off-frame.
func (o *Overlay) wrap(text string) []string {
	maxW := o.frameW - 2*sideMargin
	words := strings.Fields(text)

	var lines []string
	var cur string
	for _, word := range words {
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if font.MeasureString(o.face, candidate).Ceil() > maxW && cur != "" {
			lines = append(lines, cur)
			cur = word
		} else {
			cur = candidate
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// ParseHexColor parses "#RRGGBB" (or "RRGGBB") into an opaque RGBA.
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, apperrors.Newf(apperrors.CodeInvalidParams, "hex color %q", s)
	}
	var out color.RGBA
	parts := []*uint8{&out.R, &out.G, &out.B}
	for i, p := range parts {
		v, err := hexByte(s[i*2 : i*2+2])
		if err != nil {
			return color.RGBA{}, err
		}
		*p = v
	}
	out.A = 0xFF
	return out, nil
}

func hexByte(s string) (uint8, error) {
	var v uint8
	for i := 0; i < 2; i++ {
		c := s[i]
		var d uint8
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, apperrors.Newf(apperrors.CodeInvalidParams, "hex digit %q", string(c))
		}
		v = v<<4 | d
	}
	return v, nil
}

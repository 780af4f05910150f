package timeline

import (
	"go.uber.org/zap"

	"github.com/anzal1/media-monkey/internal/log"
)

// CaptionChunk is a short timed text fragment burned onto frames while
// start <= t < end. Chunks are expected ordered and non-overlapping;
// overlap is tolerated via first-match lookup.
type CaptionChunk struct {
	Text  string
	Start float64
	End   float64
}

// Captions is the ordered caption track.
type Captions []CaptionChunk

// ActiveAt returns the first chunk covering time t, or nil. First-match in
// chunk order is the documented policy for malformed overlapping tracks.
func (c Captions) ActiveAt(t float64) *CaptionChunk {
	for i := range c {
		if c[i].Start <= t && t < c[i].End {
			return &c[i]
		}
	}
	return nil
}

// Overlaps returns the indices of chunks that start before their
// predecessor ends.
func (c Captions) Overlaps() []int {
	var out []int
	for i := 1; i < len(c); i++ {
		if c[i].Start < c[i-1].End {
			out = append(out, i)
		}
	}
	return out
}

// WarnOverlaps logs a single warning when the track contains overlapping
// chunks. Overlap is recoverable: rendering picks the first match.
func (c Captions) WarnOverlaps() {
	if overlaps := c.Overlaps(); len(overlaps) > 0 {
		log.GetLogger().Warn("caption chunks overlap, first match wins",
			zap.Int("count", len(overlaps)),
			zap.Int("first_index", overlaps[0]))
	}
}

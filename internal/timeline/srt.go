package timeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

// ParseSRT reads an SRT subtitle stream into caption chunks. Multi-line
// cue text is collapsed to a single space-joined line; index numbers are
// ignored (chunk order is the order of appearance).
func ParseSRT(r io.Reader) (Captions, error) {
	var caps Captions
	scanner := bufio.NewScanner(r)

	var (
		start, end float64
		textLines  []string
		haveTiming bool
	)
	flush := func() {
		if haveTiming && len(textLines) > 0 {
			caps = append(caps, CaptionChunk{
				Text:  strings.Join(textLines, " "),
				Start: start,
				End:   end,
			})
		}
		textLines = nil
		haveTiming = false
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
		case strings.Contains(line, "-->"):
			s, e, err := parseTimingLine(line)
			if err != nil {
				return nil, err
			}
			start, end = s, e
			haveTiming = true
		case !haveTiming:
			// sequence number (or garbage before the timing line), skip
		default:
			textLines = append(textLines, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCaptionParse, "read srt", err)
	}
	return caps, nil
}

// LoadSRT parses an SRT file from disk.
func LoadSRT(path string) (Captions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCaptionParse, "open srt", err)
	}
	defer f.Close()
	return ParseSRT(f)
}

func parseTimingLine(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, apperrors.Newf(apperrors.CodeCaptionParse, "malformed timing line %q", line)
	}
	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseTimestamp converts "HH:MM:SS,mmm" to seconds. A dot separator is
// accepted since some generators emit it.
func parseTimestamp(ts string) (float64, error) {
	ts = strings.ReplaceAll(ts, ",", ".")
	fields := strings.Split(ts, ":")
	if len(fields) != 3 {
		return 0, apperrors.Newf(apperrors.CodeCaptionParse, "malformed timestamp %q", ts)
	}
	h, err1 := strconv.Atoi(fields[0])
	m, err2 := strconv.Atoi(fields[1])
	s, err3 := strconv.ParseFloat(fields[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, apperrors.Newf(apperrors.CodeCaptionParse, "malformed timestamp %q", ts)
	}
	return float64(h)*3600 + float64(m)*60 + s, nil
}

// FormatTimestamp renders seconds as an SRT "HH:MM:SS,mmm" timestamp.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int64(seconds*1000 + 0.5)
	h := millis / 3_600_000
	m := (millis % 3_600_000) / 60_000
	s := (millis % 60_000) / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// WriteSRT renders the caption track back to SRT, one chunk per cue.
func WriteSRT(w io.Writer, caps Captions) error {
	for i, c := range caps {
		if _, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1, FormatTimestamp(c.Start), FormatTimestamp(c.End), c.Text); err != nil {
			return err
		}
	}
	return nil
}

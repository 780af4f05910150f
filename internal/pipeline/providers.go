package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/anzal1/media-monkey/internal/system"
	"github.com/anzal1/media-monkey/internal/timeline"
	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

// Script is the creative brief for one video.
type Script struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Hashtags     []string `json:"hashtags,omitempty"`
	Narration    string   `json:"narration"`
	ImagePrompts []string `json:"image_prompts,omitempty"`
}

// ScriptProvider supplies the script for a topic.
type ScriptProvider interface {
	Script(ctx context.Context, topic string) (*Script, error)
}

// VoiceProvider supplies the narration audio file for a script.
type VoiceProvider interface {
	Narrate(ctx context.Context, script *Script, outDir string) (string, error)
}

// ImageProvider supplies the ordered scene stills for a script.
type ImageProvider interface {
	Images(ctx context.Context, script *Script, outDir string) ([]string, error)
}

// TranscriptionProvider supplies timed caption chunks for a narration
// file.
type TranscriptionProvider interface {
	Transcribe(ctx context.Context, audioPath string, script *Script) (timeline.Captions, error)
}

// FileScriptProvider reads a pre-written script.json from the assets
// directory. The topic is only used as a fallback title.
type FileScriptProvider struct {
	Dir string
}

func (p *FileScriptProvider) Script(_ context.Context, topic string) (*Script, error) {
	data, err := os.ReadFile(filepath.Join(p.Dir, "script.json"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeScriptLoad, "read script.json", err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeScriptLoad, "parse script.json", err)
	}
	if s.Title == "" {
		s.Title = topic
	}
	if strings.TrimSpace(s.Narration) == "" {
		return nil, apperrors.New(apperrors.CodeScriptLoad, "script has no narration text")
	}
	return &s, nil
}

// DirVoiceProvider picks the most recent audio file from a directory,
// matching a workflow where narration is produced out of band and
// dropped into the assets folder.
type DirVoiceProvider struct {
	Dir string
}

func (p *DirVoiceProvider) Narrate(_ context.Context, _ *Script, _ string) (string, error) {
	path, err := system.FindLatestAudio(p.Dir)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeVoiceUnavailable, "find narration audio", err)
	}
	return path, nil
}

// DirImageProvider lists scene stills from a directory, sorted by name
// so scene order is stable.
type DirImageProvider struct {
	Dir string
}

func (p *DirImageProvider) Images(_ context.Context, _ *Script, _ string) ([]string, error) {
	paths, err := system.ListImages(p.Dir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeAssetNotFound, "list scene images", err)
	}
	return paths, nil
}

// SidecarTranscriptionProvider loads an SRT file sitting next to the
// narration audio (same base name). When no sidecar exists the script
// narration is chunked evenly over the audio duration instead.
type SidecarTranscriptionProvider struct{}

func (p *SidecarTranscriptionProvider) Transcribe(_ context.Context, audioPath string, script *Script) (timeline.Captions, error) {
	sidecar := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".srt"
	if _, err := os.Stat(sidecar); err == nil {
		return timeline.LoadSRT(sidecar)
	}

	duration, err := system.AudioDuration(audioPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCaptionParse, "probe narration for chunking", err)
	}
	return ChunkNarration(script.Narration, duration), nil
}

// chunkWords is the cap on words per caption chunk.
const chunkWords = 3

// ChunkNarration splits narration text into short caption chunks spread
// evenly over the audio duration. It is the estimate used when no real
// transcription timing is available.
func ChunkNarration(text string, duration float64) timeline.Captions {
	words := strings.Fields(text)
	if len(words) == 0 || duration <= 0 {
		return nil
	}

	var chunks []string
	for i := 0; i < len(words); i += chunkWords {
		end := i + chunkWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}

	perChunk := duration / float64(len(chunks))
	caps := make(timeline.Captions, len(chunks))
	for i, c := range chunks {
		caps[i] = timeline.CaptionChunk{
			Text:  c,
			Start: float64(i) * perChunk,
			End:   float64(i+1) * perChunk,
		}
	}
	return caps
}

// Package system wraps the host-facing helpers: ffprobe/ffmpeg discovery,
// resource limits, asset lookup, and render worker sizing.
package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/anzal1/media-monkey/internal/log"
)

// InitResourceLimits raises the open-file limit. Rendering spawns ffmpeg
// children and streams many assets; the default soft limit is too low on
// macOS.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.GetLogger().Warn("could not read file limit", zap.Error(err))
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.GetLogger().Warn("could not raise file limit", zap.Error(err))
	}
}

// FFmpegPath returns the ffmpeg binary to use, honoring FFMPEG_PATH.
func FFmpegPath() string {
	if p := os.Getenv("FFMPEG_PATH"); p != "" {
		return p
	}
	return "ffmpeg"
}

// FFprobePath returns the ffprobe binary to use, honoring FFPROBE_PATH.
func FFprobePath() string {
	if p := os.Getenv("FFPROBE_PATH"); p != "" {
		return p
	}
	return "ffprobe"
}

// AudioDuration probes an audio file's duration in seconds via ffprobe.
func AudioDuration(path string) (float64, error) {
	cmd := exec.Command(FFprobePath(), "-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w (%s)", path, err, strings.TrimSpace(string(out)))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unparseable duration %q", path, string(out))
	}
	return duration, nil
}

// AudioSampleRate probes an audio file's sample rate via ffprobe, falling
// back to 44100 when the stream does not report one.
func AudioSampleRate(path string) int {
	cmd := exec.Command(FFprobePath(), "-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 44100
	}
	rate, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil || rate <= 0 {
		return 44100
	}
	return rate
}

// BestH264Encoder picks the fastest available H.264 encoder.
// Priority: VideoToolbox (macOS), NVENC (NVIDIA), then software libx264.
func BestH264Encoder() string {
	candidates := []string{"h264_videotoolbox", "h264_nvenc"}

	cmd := exec.Command(FFmpegPath(), "-encoders")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, enc := range candidates {
		if strings.Contains(string(out), enc) {
			return enc
		}
	}
	return "libx264"
}

// DefaultQuality returns the per-encoder quality knob: CRF for software
// encoders, CQ for NVENC, bitrate units (quality*100 kbit/s) for
// VideoToolbox.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 22
	}
}

// RecommendedWorkers sizes the scene-preparation pool from the CPU count,
// capped so the in-flight frame buffers fit in a quarter of available
// memory. Frames are width*height*4 bytes.
func RecommendedWorkers(width, height int) int {
	workers := runtime.NumCPU()

	frameBytes := uint64(width) * uint64(height) * 4
	if frameBytes == 0 {
		return workers
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		// each worker holds the decoded source plus the prepared headroom copy
		budget := vm.Available / 4
		if maxByMem := int(budget / (frameBytes * 4)); maxByMem > 0 && maxByMem < workers {
			workers = maxByMem
		}
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// FindLatestAudio returns the most recently modified audio file in dir.
func FindLatestAudio(dir string) (string, error) {
	return findLatest(dir, []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"})
}

// FindLatestImage returns the most recently modified image file in dir.
func FindLatestImage(dir string) (string, error) {
	return findLatest(dir, []string{".jpg", ".jpeg", ".png"})
}

// ListImages returns the image files in dir sorted by name, so scene order
// is stable across runs.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}

func findLatest(dir string, extensions []string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := strings.ToLower(f.Name())
		matched := false
		for _, ext := range extensions {
			if strings.HasSuffix(name, ext) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no matching files in %s", dir)
	}
	return latestFile, nil
}

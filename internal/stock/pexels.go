// Package stock fetches fallback scene footage from Pexels when the
// image provider comes up empty: portrait stock videos are downloaded
// and their first frame extracted as a scene still.
package stock

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/anzal1/media-monkey/internal/log"
	"github.com/anzal1/media-monkey/internal/system"
	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

const apiBase = "https://api.pexels.com"

// Client talks to the Pexels video API.
type Client struct {
	http *resty.Client
}

// NewClient builds a Pexels client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(apiBase).
			SetHeader("Authorization", apiKey).
			SetTimeout(60 * time.Second).
			SetRetryCount(2),
	}
}

type searchResponse struct {
	Videos []pexelsVideo `json:"videos"`
}

type pexelsVideo struct {
	ID         int         `json:"id"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	VideoFiles []videoFile `json:"video_files"`
}

type videoFile struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Link   string `json:"link"`
}

// FetchStills searches portrait footage for the query, downloads up to
// count clips, and extracts the first frame of each into outDir. The
// returned paths are ordered and ready for scene preparation.
func (c *Client) FetchStills(ctx context.Context, query string, count int, outDir string) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	var result searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":       query,
			"orientation": "portrait",
			"per_page":    fmt.Sprintf("%d", count*2),
		}).
		SetResult(&result).
		Get("/videos/search")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStockFetch, "pexels search", err)
	}
	if resp.IsError() {
		return nil, apperrors.Newf(apperrors.CodeStockFetch,
			"pexels search: %s", resp.Status())
	}
	if len(result.Videos) == 0 {
		return nil, apperrors.Newf(apperrors.CodeStockFetch, "no stock footage for %q", query)
	}

	logger := log.GetLogger()
	var stills []string
	for i, video := range result.Videos {
		if len(stills) >= count {
			break
		}
		link := bestPortraitFile(video)
		if link == "" {
			continue
		}

		clipPath := filepath.Join(outDir, fmt.Sprintf("stock_%02d.mp4", i))
		if err := c.download(ctx, link, clipPath); err != nil {
			logger.Warn("stock clip download failed",
				zap.Int("video_id", video.ID), zap.Error(err))
			continue
		}

		stillPath := filepath.Join(outDir, fmt.Sprintf("stock_%02d.png", i))
		if err := extractFirstFrame(ctx, clipPath, stillPath); err != nil {
			logger.Warn("stock frame extraction failed",
				zap.String("clip", clipPath), zap.Error(err))
			continue
		}
		os.Remove(clipPath)
		stills = append(stills, stillPath)
	}

	if len(stills) == 0 {
		return nil, apperrors.Newf(apperrors.CodeStockFetch,
			"no usable stock footage for %q", query)
	}
	logger.Info("stock footage fetched",
		zap.String("query", query), zap.Int("stills", len(stills)))
	return stills, nil
}

// bestPortraitFile picks the largest portrait rendition of a video.
func bestPortraitFile(v pexelsVideo) string {
	best := ""
	bestW := 0
	for _, f := range v.VideoFiles {
		if f.Height <= f.Width {
			continue
		}
		if f.Width > bestW {
			bestW = f.Width
			best = f.Link
		}
	}
	return best
}

func (c *Client) download(ctx context.Context, url, path string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetOutput(path).
		Get(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("download %s: %s", url, resp.Status())
	}
	return nil
}

func extractFirstFrame(ctx context.Context, clipPath, stillPath string) error {
	cmd := exec.CommandContext(ctx, system.FFmpegPath(),
		"-y", "-i", clipPath,
		"-frames:v", "1",
		stillPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("extract frame: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

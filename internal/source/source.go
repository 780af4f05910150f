// Package source loads scene stills and prepares them for Ken Burns
// animation: every image is resized to an oversized "headroom" canvas the
// effect crop windows slide around in.
package source

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"

	apperrors "github.com/anzal1/media-monkey/pkg/errors"
)

// Source yields the ordered scene stills for a render.
type Source interface {
	Count() int
	Image(index int) (image.Image, error)
	Path(index int) string
	Close() error
}

// ImageSource reads stills from a directory (sorted by name) or an
// explicit file list.
type ImageSource struct {
	paths []string
}

// NewImageSource builds a source from a directory or a single image file.
func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeAssetNotFound, "stat image source", err)
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeAssetNotFound, "read image dir", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch filepath.Ext(entry.Name()) {
			case ".jpg", ".jpeg", ".png":
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}

	if len(paths) == 0 {
		return nil, apperrors.Newf(apperrors.CodeAssetNotFound, "no images in %s", path)
	}
	return &ImageSource{paths: paths}, nil
}

// NewImageListSource builds a source from an ordered path list.
func NewImageListSource(paths []string) *ImageSource {
	return &ImageSource{paths: paths}
}

func (s *ImageSource) Count() int {
	return len(s.paths)
}

func (s *ImageSource) Path(index int) string {
	return s.paths[index]
}

func (s *ImageSource) Image(index int) (image.Image, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeAssetNotFound, "open image", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeImageDecode, s.paths[index], err)
	}
	return img, nil
}

func (s *ImageSource) Close() error {
	return nil
}

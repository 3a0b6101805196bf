package processor

import (
	"os"
	"path/filepath"
	"strings"
)

// Sibling file suffixes of a page image.
const (
	SegmentationSuffix = ".segment.zip"
	BinarizedSuffix    = ".binarized.png"
	ContoursSuffix     = ".contours.zip"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// Paths are the files involved in processing one page.
type Paths struct {
	Page         string
	Segmentation string
	Binarized    string
	Contours     string
}

func PathsFor(page string) Paths {
	return Paths{
		Page:         page,
		Segmentation: withSuffix(page, SegmentationSuffix),
		Binarized:    withSuffix(page, BinarizedSuffix),
		Contours:     withSuffix(page, ContoursSuffix),
	}
}

// withSuffix replaces the last extension of path.
func withSuffix(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

// IsPageImage reports whether path names a page image rather than one of the
// files derived from it.
func IsPageImage(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if !imageExtensions[filepath.Ext(name)] {
		return false
	}
	return !strings.HasSuffix(name, BinarizedSuffix)
}

// ShouldProcess reports whether page is an image whose segmentation and
// binarization exist and whose contours archive does not.
func ShouldProcess(page string) bool {
	if !IsPageImage(page) || !isFile(page) {
		return false
	}

	paths := PathsFor(page)
	return isFile(paths.Segmentation) &&
		isFile(paths.Binarized) &&
		!exists(paths.Contours)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

package media

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type Kind int

const (
	KindNone Kind = iota
	KindImage
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "none"
	}
}

var (
	imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}
	videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".m4v"}

	// TargetFileTypes is the upload filter of the target picker.
	TargetFileTypes = []string{".png", ".jpg", ".jpeg", ".webp", ".mp4"}
	// SourceFileTypes is the upload filter of the source picker.
	SourceFileTypes = imageExtensions
)

func HasImageExtension(path string) bool {
	return hasExtension(path, imageExtensions)
}

func HasVideoExtension(path string) bool {
	return hasExtension(path, videoExtensions)
}

func hasExtension(path string, exts []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func IsImage(path string) bool {
	return Detect(path) == KindImage
}

func IsVideo(path string) bool {
	return Detect(path) == KindVideo
}

// Detect classifies an existing regular file. The extension decides when it
// is known; otherwise the content is sniffed.
func Detect(path string) Kind {
	if path == "" {
		return KindNone
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return KindNone
	}

	switch {
	case HasImageExtension(path):
		return KindImage
	case HasVideoExtension(path):
		return KindVideo
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return KindNone
	}

	switch {
	case strings.HasPrefix(mtype.String(), "image/"):
		return KindImage
	case strings.HasPrefix(mtype.String(), "video/"):
		return KindVideo
	default:
		return KindNone
	}
}

// NormalizeOutputPath derives the output file for a swap. When output is a
// directory the name is built from the source and target names; any other
// non-empty output is used as given.
func NormalizeOutputPath(source, target, output string) string {
	if source == "" || target == "" || output == "" {
		return ""
	}

	if info, err := os.Stat(output); err == nil && info.IsDir() {
		sourceName := stem(source)
		targetName := stem(target)
		return filepath.Join(output, sourceName+"-"+targetName+filepath.Ext(target))
	}

	return output
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

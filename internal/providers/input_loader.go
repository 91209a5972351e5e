package providers

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/osvaldoandrade/visiongo/pkg/domain"

	"github.com/pkg/errors"
)

var videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".wmv", ".m4v", ".3gp"}

// InputLoader turns command-line sources into inputs. Remote sources stay as
// URLs; local files are read and sent as base64.
type InputLoader interface {
	Load(ctx context.Context, source string, opts ...domain.InputOption) (domain.Input, error)
}

type localLoader struct {
	rootDir string
	// maxBytes <= 0 reads files of any size.
	maxBytes int64
}

// NewLocalLoader resolves relative file paths against rootDir. An empty
// rootDir uses the working directory.
func NewLocalLoader(rootDir string, maxBytes int64) InputLoader {
	return &localLoader{rootDir: rootDir, maxBytes: maxBytes}
}

func (l *localLoader) Load(ctx context.Context, source string, opts ...domain.InputOption) (domain.Input, error) {
	if err := ctx.Err(); err != nil {
		return domain.Input{}, err
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return domain.Input{}, errors.New("empty input source")
	}

	if IsRemote(source) {
		if IsVideo(source) {
			return domain.NewURLVideo(source, opts...), nil
		}
		return domain.NewURLImage(source, opts...), nil
	}

	path := strings.TrimPrefix(source, "file://")
	if !filepath.IsAbs(path) && l.rootDir != "" {
		path = filepath.Join(l.rootDir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return domain.Input{}, errors.Wrapf(err, "input %s", source)
	}
	if info.IsDir() {
		return domain.Input{}, errors.Errorf("input %s is a directory", source)
	}
	if l.maxBytes > 0 && info.Size() > l.maxBytes {
		return domain.Input{}, errors.Errorf("input %s is %d bytes, over the %d byte limit", source, info.Size(), l.maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Input{}, errors.Wrapf(err, "read input %s", source)
	}
	if IsVideo(path) {
		return domain.NewFileVideo(data, opts...), nil
	}
	return domain.NewFileImage(data, opts...), nil
}

// IsRemote reports whether source is an http or https URL.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsVideo guesses the media kind from the path extension, ignoring any query.
func IsVideo(source string) bool {
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		source = u.Path
	}
	ext := strings.ToLower(filepath.Ext(source))
	for _, v := range videoExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

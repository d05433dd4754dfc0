package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ErrUnsupportedFormat is returned by Open for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported audio file format")

// ExpandPath resolves a leading ~ and environment variables in path.
func ExpandPath(path string) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return os.ExpandEnv(p), nil
}

// Open decodes a .wav or .mp3 file selected by extension.
func Open(path string) (*PCM, error) {
	p, err := ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand path %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(p)) {
	case ".wav", ".wave":
		return OpenWAV(p)
	case ".mp3":
		return OpenMP3(p)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p)
	}
}

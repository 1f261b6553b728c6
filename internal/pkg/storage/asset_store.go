package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// ErrFileUnavailable wraps every failure to open or stat an asset.
var ErrFileUnavailable = errors.New("file not found or cannot be read")

// Asset is an open track file. Callers must close Body.
type Asset struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
	Body        io.ReadCloser
}

// AssetInfo describes an asset without opening it.
type AssetInfo struct {
	Name string
	Size int64
}

// AssetStore reads purchasable files by object name.
type AssetStore interface {
	Open(ctx context.Context, name string) (*Asset, error)
	Stat(ctx context.Context, name string) (*AssetInfo, error)
	Backend() string
}

// ContentType returns the MIME type for an audio file extension.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".mp4", ".aac":
		return "audio/mp4"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".wav":
		return "audio/wav"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// cleanName rejects names that could escape the store root.
func cleanName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "..") || strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return "", false
	}
	return name, true
}

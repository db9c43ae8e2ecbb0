// Package archive exports finished backtest reports to cold storage.
package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/newthinker/invert50/internal/config"
	"github.com/newthinker/invert50/internal/core"
)

// ErrNotFound is returned by Read for a missing object.
var ErrNotFound = errors.New("object not found")

// Storage is a flat key/value object store.
type Storage interface {
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	// List returns all paths under prefix, relative to the store root.
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Open builds the store named by cfg. It returns nil, nil when export is disabled.
func Open(cfg config.ArchiveConfig) (Storage, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive type %q", cfg.Type))
	}
}

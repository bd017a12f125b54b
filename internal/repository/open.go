package repository

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/debemdeboas/archive-editor/internal/config"
	"github.com/debemdeboas/archive-editor/internal/db"
	"github.com/debemdeboas/archive-editor/internal/util/compression"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured backend. The closer releases whatever the
// backend holds open.
func Open(ctx context.Context, cfg config.StorageConfig) (DraftRepository, io.Closer, error) {
	compressor, err := compression.ForName(cfg.Compression)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Backend {
	case "memory":
		return NewMemoryDraftRepository(), nopCloser{}, nil
	case "fs":
		r, err := NewFSDraftRepository(cfg.FS.Dir)
		if err != nil {
			return nil, nil, err
		}
		return r, nopCloser{}, nil
	case "sqlite", "":
		sqlite := db.NewSQLite(cfg.SQLite.Path)
		if err := sqlite.InitDB(); err != nil {
			return nil, nil, fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
		}
		return NewDBDraftRepository(sqlite, compressor), sqlite, nil
	case "s3":
		r, err := NewS3DraftRepository(ctx, S3Options{
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("S3_ACCESS_KEY_SECRET"),
			BaseEndpoint:    cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
		}, compressor)
		if err != nil {
			return nil, nil, err
		}
		return r, nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf(config.ErrUnknownBackendFmt, cfg.Backend)
}

/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package storage

import (
	"context"
	"fmt"

	"github.com/inventario/credvault/storage/file"
	"github.com/inventario/credvault/storage/repository"
	"github.com/inventario/credvault/storage/sql"
	"github.com/spf13/afero"
)

// New initializes the configured line resource. fs is only used by the file backend.
func New(ctx context.Context, cfg *Config, fs afero.Fs) (repository.Lines, error) {
	switch cfg.Type {
	case File:
		fileCfg := cfg.File
		if fileCfg == nil {
			fileCfg = &file.Config{Path: file.DefaultPath}
		}
		return file.New(fileCfg, fs), nil
	case MySQL:
		return sql.New(ctx, sql.MySQL, cfg.MySQL)
	case PgSQL:
		return sql.New(ctx, sql.PostgreSQL, cfg.PgSQL)
	default:
		return nil, fmt.Errorf("storage: unrecognized storage type: %d", cfg.Type)
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/nicolagi/tgdrive/internal/config"
	"github.com/nicolagi/tgdrive/internal/drive"
	"github.com/nicolagi/tgdrive/internal/drive/boltdrive"
	"github.com/nicolagi/tgdrive/internal/drive/memdrive"
	"github.com/nicolagi/tgdrive/internal/drive/pgdrive"
)

// openStore opens the index backend cfg names, migrating PostgreSQL schemas
// as needed.
func openStore(ctx context.Context, cfg config.DriveConfig) (drive.Store, error) {
	switch cfg.Backend {
	case "bolt":
		s, err := boltdrive.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := pgdrive.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case "memory":
		return memdrive.New(), nil
	default:
		return nil, fmt.Errorf("unknown drive backend %q", cfg.Backend)
	}
}

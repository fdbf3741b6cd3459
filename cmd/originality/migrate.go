package main

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/originality"
	"github.com/poiesic/originality/config"
	"github.com/poiesic/originality/storage"
	"github.com/urfave/cli/v2"
)

func migrateCommand(c *cli.Context) error {
	srcCfg := config.NewConfig(
		config.WithBackend(c.String("from-backend")),
		config.WithDBFile(c.String("from")),
		config.WithSearchEngine(config.EngineNone),
	)
	dstCfg := config.NewConfig(
		config.WithBackend(c.String("to-backend")),
		config.WithDBFile(c.String("to")),
		config.WithSearchEngine(config.EngineNone),
	)
	if err := srcCfg.Validate(); err != nil {
		return fmt.Errorf("invalid source: %w", err)
	}
	if err := dstCfg.Validate(); err != nil {
		return fmt.Errorf("invalid destination: %w", err)
	}
	if srcCfg.DBFile == dstCfg.DBFile {
		return fmt.Errorf("source and destination must differ")
	}

	logger := slog.Default()
	src, err := originality.OpenBacking(srcCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	dstBacking, err := originality.OpenBacking(dstCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	dst, err := storage.OpenCorpus(c.Context, dstBacking, storage.WithLogger(logger))
	if err != nil {
		dstBacking.Close()
		return fmt.Errorf("failed to load destination: %w", err)
	}
	defer dst.Close()

	fmt.Fprintf(c.App.ErrWriter, "Source: %s (%s)\n", srcCfg.DBFile, srcCfg.Backend)
	fmt.Fprintf(c.App.ErrWriter, "Destination: %s (%s)\n", dstCfg.DBFile, dstCfg.Backend)

	copied, err := storage.Copy(c.Context, src, dst)
	if err != nil {
		return fmt.Errorf("migration failed after %d entries: %w", copied, err)
	}
	fmt.Fprintf(c.App.Writer, "Copied %d entries (%d in destination)\n", copied, dst.Len())
	return nil
}

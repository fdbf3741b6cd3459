package main

import (
	"fmt"
	"io"
	"os"

	"github.com/poiesic/originality"
	"github.com/poiesic/originality/detect"
	"github.com/urfave/cli/v2"
)

func batchCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("batch file is required")
	}
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	var in io.Reader = c.App.Reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		in = f
	}

	lines, err := detect.ReadBatch(in)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	checker, err := originality.Open(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to open checker: %w", err)
	}
	defer checker.Close()

	fmt.Fprintf(c.App.ErrWriter, "Corpus: %s (%d entries)\n", cfg.DBFile, checker.Corpus().Len())
	fmt.Fprintf(c.App.ErrWriter, "Submissions: %d\n", len(lines))

	quiet := c.Bool("quiet")
	progress := detect.NewProgressTracker(c.App.ErrWriter, len(lines), c.Int("report-interval"))
	summary, err := checker.Detector().CheckBatch(c.Context, lines, progress, func(item detect.BatchItem) {
		if quiet {
			return
		}
		switch {
		case item.Verdict != nil && item.Err != nil:
			fmt.Fprintf(c.App.Writer, "%d\t%s\t(%v)\n", item.Line, item.Verdict, item.Err)
		case item.Verdict != nil:
			fmt.Fprintf(c.App.Writer, "%d\t%s\n", item.Line, item.Verdict)
		default:
			fmt.Fprintf(c.App.Writer, "%d\t⚠️ %v\n", item.Line, item.Err)
		}
	})
	fmt.Fprintln(c.App.Writer, summary)
	if err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	return nil
}

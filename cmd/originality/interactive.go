package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/originality"
	"github.com/poiesic/originality/core"
	"github.com/poiesic/originality/detect"
	"github.com/urfave/cli/v2"
)

const (
	prompt       = "\nEnter your text (or type 'exit' to quit): "
	exitCommand  = "exit"
	previewRunes = 50
)

func interactiveCommand(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}

	checker, err := originality.Open(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to open checker: %w", err)
	}
	defer checker.Close()

	if !checker.Detector().Online() {
		fmt.Fprintln(c.App.ErrWriter, "Online search disabled; checking against the local corpus only.")
	}
	return runInteractive(c.Context, checker.Detector(), c.App.Reader, c.App.Writer)
}

// runInteractive reads one submission per line until "exit" or end of
// input. Errors for a submission are printed and the loop continues.
func runInteractive(ctx context.Context, d *detect.Detector, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	monitor := &consoleMonitor{out: out}

	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(text, exitCommand) {
			fmt.Fprintln(out, "Exiting plagiarism checker...")
			return nil
		}

		verdict, err := d.CheckWithMonitor(ctx, text, monitor)
		if verdict != nil {
			fmt.Fprintln(out, verdict)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "⚠️ %v\n", err)
		}
	}
}

// consoleMonitor prints the online search notice.
type consoleMonitor struct {
	out io.Writer
}

var _ detect.Monitor = (*consoleMonitor)(nil)

func (m *consoleMonitor) Start(string)                     {}
func (m *consoleMonitor) AfterLocalMatch(*core.LocalMatch) {}

func (m *consoleMonitor) BeforeOnlineSearch(query string) {
	fmt.Fprintf(m.out, "🔍 Searching online for: %s...\n", preview(query))
}

func (m *consoleMonitor) AfterOnlineSearch(*core.SearchOutcome) {}
func (m *consoleMonitor) AfterPersist(bool, error)              {}
func (m *consoleMonitor) Finish(*core.Verdict)                  {}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) > previewRunes {
		runes = runes[:previewRunes]
	}
	return string(runes)
}

package cli

// This file contains the read-only commands over recorded runs: list,
// view and report.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/e2etap/e2etap/history"
	"github.com/e2etap/e2etap/query"
)

const timePrecision = time.Millisecond

func (a *App) list(ctx *cli.Context) error {
	entries, err := history.LoadEntries(a.logger, ctx.String("reports-dir"))
	if err != nil {
		return err
	}

	limit := ctx.Int("limit")
	display := entries
	if limit > 0 && limit < len(display) {
		display = display[:limit]
	}

	fmt.Printf("\n=== Runs (%d total) ===\n\n", len(entries))
	for _, entry := range display {
		summary := entry.Run.Summary()
		status := "✓"
		if summary.Failed > 0 {
			status = "✗"
		}
		fmt.Printf("%s  %s  [%s]  %d passed, %d failed  id=%s\n",
			status, entry.Run.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Run.Duration.Round(timePrecision),
			summary.Passed, summary.Failed, shortID(entry.Run.ID))
		if entry.Run.Command != "" {
			fmt.Printf("   Cmd: %s\n", entry.Run.Command)
		}
	}
	return nil
}

func (a *App) view(ctx *cli.Context) error {
	entry, err := history.FindByPrefix(a.logger, ctx.String("reports-dir"), ctx.Args().First())
	if err != nil {
		return err
	}

	run := entry.Run
	printRun(&run)

	testIndex := ctx.Int("test")
	if testIndex < 0 {
		return nil
	}

	engine := query.NewEngine(&run)
	actions, err := engine.Actions(testIndex)
	if err != nil {
		fmt.Println(err)
		return nil
	}

	fmt.Printf("\nActions for test %d:\n", testIndex)
	for i, action := range actions {
		label := action.Title
		if label == "" {
			label = action.Type
		}
		marker := " "
		if action.Error != nil {
			marker = "✗"
		}
		fmt.Printf("%s %3d  %-40s  %6dms  net=%d console=%d\n",
			marker, i, label, action.Timing.DurationMs,
			len(action.Network.Requests), len(action.Console))
	}
	return nil
}

func (a *App) report(ctx *cli.Context) error {
	entry, err := history.FindByPrefix(a.logger, ctx.String("reports-dir"), ctx.Args().First())
	if err != nil {
		return err
	}

	format := ctx.String("format")
	run := entry.Run
	data, err := query.NewEngine(&run).GenerateReport(format)
	if err != nil {
		return err
	}

	output := ctx.String("output")
	if output == "" {
		output = filepath.Join(entry.FullPath, "report."+format)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	a.logger.Info().Str("file", output).Str("format", format).Msg("Report generated")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func indentLines(s, prefix string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n"+prefix)
}

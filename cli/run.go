package cli

// This file contains the execution commands: run, batch, flaky and
// repeat. Each builds runner options, executes, records the run(s) in
// history, and prints a compact result.

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/e2etap/e2etap/history"
	"github.com/e2etap/e2etap/model"
	"github.com/e2etap/e2etap/runner"
)

func (a *App) runSingle(ctx *cli.Context) error {
	if ctx.Args().First() == "" {
		return fmt.Errorf("no test location specified (e.g., login.spec.ts:12)")
	}

	r := runner.New(a.logger, nil, a.runnerOptions(ctx, runner.ModeSingle))
	run, err := r.Execute(ctx.Context)
	if err != nil {
		return err
	}

	a.recordRun(ctx, run)
	printRun(run)

	if run.Summary().Failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (a *App) runBatch(ctx *cli.Context) error {
	r := runner.New(a.logger, nil, a.runnerOptions(ctx, runner.ModeBatch))
	run, err := r.Execute(ctx.Context)
	if err != nil {
		return err
	}

	a.recordRun(ctx, run)
	printRun(run)

	if run.Summary().Failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (a *App) runFlaky(ctx *cli.Context) error {
	if ctx.Args().First() == "" {
		return fmt.Errorf("no test location specified (e.g., login.spec.ts:12)")
	}

	r := runner.New(a.logger, nil, a.runnerOptions(ctx, runner.ModeFlaky))
	result, err := r.ExecuteFlaky(ctx.Context)
	if err != nil {
		return err
	}

	for _, run := range result.Runs {
		a.recordRun(ctx, run)
	}

	fmt.Printf("\n=== %s ===\n", result.Verdict)
	fmt.Printf("%s: %d attempts, %d passed, %d failed\n",
		result.Location, result.Attempts, result.Passes, result.Failures)
	for i, run := range result.Runs {
		status := model.StatusFailed
		if len(run.Tests) > 0 {
			status = run.Tests[0].Status
		}
		fmt.Printf("  attempt %d: %s  [%s]  id=%s\n", i+1, status,
			run.Duration.Round(timePrecision), shortID(run.ID))
	}

	if result.Verdict != model.VerdictConsistentPass {
		return cli.Exit("", 1)
	}
	return nil
}

func (a *App) runRepeat(ctx *cli.Context) error {
	if ctx.Args().First() == "" {
		return fmt.Errorf("no test location specified (e.g., login.spec.ts:12)")
	}

	r := runner.New(a.logger, nil, a.runnerOptions(ctx, runner.ModeRepeat))
	result, err := r.ExecuteRepeat(ctx.Context)
	if err != nil {
		return err
	}

	fmt.Printf("%s x%d: %d passed, %d failed\n",
		result.Location, result.Count, result.Passed, result.Failed)
	if result.Failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (a *App) recordRun(ctx *cli.Context, run *model.Run) {
	runDir, err := history.Record(ctx.String("reports-dir"), run)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to record run history")
		return
	}
	a.logger.Debug().Str("dir", runDir).Msg("Run recorded")
}

func printRun(run *model.Run) {
	summary := run.Summary()
	fmt.Printf("\n=== Run %s: %d tests, %d passed, %d failed ===\n\n",
		shortID(run.ID), summary.Total, summary.Passed, summary.Failed)

	for _, test := range run.Tests {
		status := "✓"
		if test.Status == model.StatusFailed {
			status = "✗"
		}
		fmt.Printf("%s  %s  [%s]\n", status, test.TestTitle, test.Duration.Round(timePrecision))
		if test.Error != "" {
			fmt.Printf("   %s\n", indentLines(test.Error, "   "))
		}
	}
}

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/e2etap/e2etap/history"
	"github.com/e2etap/e2etap/runner"
)

const AppName = "e2etap"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Run browser e2e tests as subprocesses and capture structured traces",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
				&cli.StringFlag{
					Name:  "reports-dir",
					Usage: "Directory for run records and generated reports",
					Value: history.DefaultReportsDir,
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}

	runFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "workdir",
			Usage: "Working directory for the test subprocess",
		},
		&cli.StringSliceFlag{
			Name:  "cmd",
			Usage: "Base test command (default: npx playwright test)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-spawn timeout (default: 60s single, 10m batch)",
		},
		&cli.StringFlag{
			Name:  "artifacts-dir",
			Usage: "Directory scanned for screenshots created during the run",
		},
	}

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run a single test location with live action capture",
		ArgsUsage: "<file.spec.ts:line>",
		Action:    app.runSingle,
		Flags:     runFlags,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "batch",
		Usage:  "Run all matching tests in one subprocess (structured results, no live capture)",
		Action: app.runBatch,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "grep",
				Usage: "Filter tests by title pattern",
			},
			&cli.StringFlag{
				Name:  "project",
				Usage: "Filter tests by project name",
			},
		}, runFlags...),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "flaky",
		Usage:     "Run one location repeatedly in separate subprocesses and classify the verdict",
		ArgsUsage: "<file.spec.ts:line>",
		Action:    app.runFlaky,
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "retries",
				Aliases: []string{"r"},
				Usage:   "Extra attempts beyond the first (attempts = retries+1)",
				Value:   2,
			},
		}, runFlags...),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "repeat",
		Usage:     "Repeat one location inside a single subprocess (aggregate counts only)",
		ArgsUsage: "<file.spec.ts:line>",
		Action:    app.runRepeat,
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Iteration count",
				Value:   10,
			},
		}, runFlags...),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous runs",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "view",
		Usage:     "View one run from history",
		ArgsUsage: "[ID-PREFIX]",
		Action:    app.view,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "test",
				Usage: "Test index to expand",
				Value: -1,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "report",
		Usage:     "Generate a self-contained HTML or JSON report for a run",
		ArgsUsage: "[ID-PREFIX]",
		Action:    app.report,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format: html or json",
				Value: "html",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (default: report.<format> in the run directory)",
			},
		},
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}

// runnerOptions translates already-validated flags into runner options.
func (a *App) runnerOptions(ctx *cli.Context, mode runner.Mode) runner.Options {
	return runner.Options{
		Mode:         mode,
		Command:      ctx.StringSlice("cmd"),
		WorkDir:      ctx.String("workdir"),
		Location:     ctx.Args().First(),
		Grep:         ctx.String("grep"),
		Project:      ctx.String("project"),
		Timeout:      ctx.Duration("timeout"),
		Retries:      ctx.Int("retries"),
		RepeatCount:  ctx.Int("count"),
		ArtifactsDir: ctx.String("artifacts-dir"),
	}
}

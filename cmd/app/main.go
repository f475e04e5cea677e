package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/relink/internal"
	pkgconfig "github.com/starford/relink/pkg/config"
)

// corpusFlags are shared by every command that operates on a corpus.
func corpusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file",
			DefaultText: "config/config.yaml",
			Value:       "config/config.yaml",
			Sources:     cli.EnvVars("APP_CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:    "folder",
			Aliases: []string{"f"},
			Usage:   "Root folder of the documents to process",
			Sources: cli.EnvVars("RELINK_FOLDER"),
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Report what would change without renaming or writing files",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of documents to rewrite concurrently",
		},
		&cli.StringFlag{
			Name:  "collision",
			Usage: "What to do when a name is already taken: warn, fail or overwrite",
		},
		&cli.StringFlag{
			Name:  "ledger",
			Usage: "SQLite file to journal runs in (outside the folder)",
		},
	}
}

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("folder") {
		cfg.Corpus.Root = cmd.String("folder")
	}
	if cmd.IsSet("dry-run") {
		cfg.Relink.DryRun = cmd.Bool("dry-run")
	}
	if cmd.IsSet("workers") {
		cfg.Relink.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("collision") {
		cfg.Relink.Collision = cmd.String("collision")
	}
	if cmd.IsSet("ledger") {
		cfg.Ledger.Path = cmd.String("ledger")
	}

	if err := pkgconfig.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func watch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Watch(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app watch error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func history(ctx context.Context, cmd *cli.Command) error {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	path := cfg.Ledger.Path
	if cmd.IsSet("ledger") {
		path = cmd.String("ledger")
	}
	if path == "" {
		return fmt.Errorf("no ledger configured: pass --ledger or set ledger.path")
	}
	if runID := cmd.String("run"); runID != "" {
		return internal.RunDetail(ctx, path, runID, cmd.String("backlinks"))
	}
	return internal.History(ctx, path, int(cmd.Int("limit")))
}

func main() {
	cmd := &cli.Command{
		Name:   "relink",
		Usage:  "Normalize document file names and rewrite [[wiki links]] as Markdown links",
		Action: run,
		Flags:  corpusFlags(),
		Commands: []*cli.Command{
			{
				Name:   "watch",
				Usage:  "Process the folder, then again whenever documents change",
				Action: watch,
				Flags:  corpusFlags(),
			},
			{
				Name:   "mcp",
				Usage:  "Serve relink tools over MCP on stdin/stdout",
				Action: serveMCP,
				Flags:  corpusFlags(),
			},
			{
				Name:   "history",
				Usage:  "List runs recorded in the ledger",
				Action: history,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to config file",
						Value:   "config/config.yaml",
						Sources: cli.EnvVars("APP_CONFIG_FILE"),
					},
					&cli.StringFlag{
						Name:  "ledger",
						Usage: "SQLite ledger file",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of runs to show",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "run",
						Usage: "Show the renames and unresolved links of one run",
					},
					&cli.StringFlag{
						Name:  "backlinks",
						Usage: "With --run, list the documents linking to this path",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	syncengine "github.com/starford/raido/internal/sync"
	pkgconfig "github.com/starford/raido/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if project := cmd.String("project"); project != "" {
		cfg.Sync.Project = project
	}
	return cfg, nil
}

func strategyList() string {
	all := syncengine.AllStrategies()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}

func syncOptions(cmd *cli.Command) (syncengine.Options, error) {
	opts := syncengine.Options{
		PushOnly:          cmd.Bool("push-only"),
		PullOnly:          cmd.Bool("pull-only"),
		DryRun:            cmd.Bool("dry-run"),
		Force:             cmd.Bool("force"),
		SyncDeletes:       cmd.Bool("sync-deletes"),
		RelinkCollections: cmd.Bool("relink"),
	}
	if s := cmd.String("strategy"); s != "" {
		opts.Strategy = syncengine.Strategy(s)
		if !opts.Strategy.IsValid() {
			return opts, fmt.Errorf("unknown strategy %q (valid: %s)", s, strategyList())
		}
	}
	return opts, nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
	projectFlag := &cli.StringFlag{
		Name:  "project",
		Usage: "Override the project name from config",
	}

	cmd := &cli.Command{
		Name:  "raido",
		Usage: "Sync a Markdown vault with a remote card repository",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Run one sync session between the vault and the remote repository",
				Flags: []cli.Flag{
					configFlag,
					projectFlag,
					&cli.BoolFlag{Name: "push-only", Usage: "Only push local changes"},
					&cli.BoolFlag{Name: "pull-only", Usage: "Only pull remote cards"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Report planned actions without writing anything"},
					&cli.BoolFlag{Name: "force", Usage: "Push objects even when their content hash is unchanged"},
					&cli.BoolFlag{Name: "sync-deletes", Usage: "Propagate local deletions to the remote repository"},
					&cli.BoolFlag{Name: "relink", Usage: "Reconcile collection links for all synced cards"},
					&cli.StringFlag{
						Name:    "strategy",
						Usage:   "Conflict strategy: " + strategyList(),
						Sources: cli.EnvVars("RAIDO_STRATEGY"),
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					opts, err := syncOptions(cmd)
					if err != nil {
						return err
					}
					if opts.Strategy == "" {
						opts.Strategy = syncengine.Strategy(cfg.Sync.Strategy)
					}
					return internal.RunSync(ctx, cfg, opts)
				},
			},
			{
				Name:  "serve",
				Usage: "Run the HTTP API with a live vault watcher",
				Flags: []cli.Flag{configFlag, projectFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					if err := internal.Serve(ctx, internal.WithConfig(cfg)); err != nil {
						return fmt.Errorf("app run error: %w", err)
					}
					return nil
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve sync tools over the Model Context Protocol on stdio",
				Flags: []cli.Flag{configFlag, projectFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunMCP(cfg)
				},
			},
			{
				Name:  "status",
				Usage: "Show the persisted sync state for the configured project",
				Flags: []cli.Flag{configFlag, projectFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunStatus(cfg)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/config"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/observability"
)

const defaultEnvFile = ".env"

// commandContext carries state resolved once in PersistentPreRunE.
type commandContext struct {
	envFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func (c *commandContext) load() error {
	if err := loadEnvFile(c.envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	c.logger = observability.NewLogger(cfg)
	return nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing default .env is not an error.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "travelbuddy",
		Short:         "Import places from shared travel content into trips",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			return ctx.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.envFile, "env-file", "", "Environment file to load (default .env when present)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newExtractCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))

	return rootCmd
}

// shouldSkipConfig reports whether cmd runs without configuration.
func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion":
			return true
		}
	}
	return cmd == cmd.Root()
}

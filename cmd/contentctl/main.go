package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/config"
	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/seed"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()

	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session is everything a command needs to talk to the content store.
type session struct {
	logger   *zap.Logger
	service  sitecontent.Service
	resolver *seed.Resolver
	close    func()
}

// app holds global flags and the way sessions are opened.
type app struct {
	configFile string
	verbose    bool
	open       func(ctx context.Context, a *app) (*session, error)
}

// NewRootCommand creates the contentctl command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{open: openSession})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "contentctl",
		Short: "Manage site content",
		Long: `contentctl seeds, inspects and exports the site content store.

The store is selected the same way as for the server: DATABASE_TYPE,
DATABASE_URL and DYNAMODB_* variables, a .env file, or --config.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newSeedCommand(a))
	rootCmd.AddCommand(newExportCommand(a))
	rootCmd.AddCommand(newListCommand(a))
	rootCmd.AddCommand(newGetCommand(a))
	rootCmd.AddCommand(newDeleteCommand(a))
	rootCmd.AddCommand(newStatsCommand(a))
	rootCmd.AddCommand(newSetStatusCommand(a))
	rootCmd.AddCommand(newEnvCommand(a))

	return rootCmd
}

// openSession builds the configured repository and service.
func openSession(ctx context.Context, a *app) (*session, error) {
	opts := []config.Option{config.WithEnv()}
	if a.configFile != "" {
		opts = []config.Option{config.WithFile(a.configFile)}
	}
	if a.verbose {
		opts = append(opts, config.WithLogLevel("debug"))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := zap.NewNop()
	if a.verbose {
		if logger, err = cfg.BuildLogger(); err != nil {
			return nil, err
		}
	}

	repo, cleanup, err := cfg.BuildRepository(ctx, logger)
	if err != nil {
		return nil, err
	}

	svc, err := cfg.BuildService(repo, logger)
	if err != nil {
		cleanup()
		return nil, err
	}

	resolver, err := cfg.BuildSeedResolver(ctx, logger)
	if err != nil {
		cleanup()
		return nil, err
	}

	return &session{
		logger:   logger,
		service:  svc,
		resolver: resolver,
		close: func() {
			cleanup()
			_ = logger.Sync()
		},
	}, nil
}

// withSession opens a session for the duration of fn.
func (a *app) withSession(cmd *cobra.Command, fn func(s *session, out io.Writer) error) error {
	s, err := a.open(cmd.Context(), a)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s, cmd.OutOrStdout())
}

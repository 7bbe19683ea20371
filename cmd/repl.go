package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/giantswarm/knav/internal/config"
	"github.com/giantswarm/knav/internal/dispatch"
	"github.com/giantswarm/knav/internal/logging"
	"github.com/giantswarm/knav/internal/nav"
	"github.com/giantswarm/knav/internal/objcache"
	"github.com/giantswarm/knav/internal/repl"
	"github.com/giantswarm/knav/internal/session"
)

// replOptions holds the flag values for the repl command.
type replOptions struct {
	configPath string
	logLevel   string
	workers    int
}

// newReplCmd creates the Cobra command that starts the interactive shell.
func newReplCmd() *cobra.Command {
	opts := &replOptions{}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive shell",
		Long: `Starts the interactive shell: a prompt tracking the current cluster,
namespace, and selection, with verbs that act on the selected objects.

Clusters come from the configuration file ($KNAV_CONFIG or
~/.knav/config.yaml by default).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to the cluster configuration file")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "minimum log level: debug, info, warn, error")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "max concurrent sub-operations per command")

	return cmd
}

func runRepl(cmd *cobra.Command, opts *replOptions) error {
	configPath := opts.configPath
	if configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	levelName := opts.logLevel
	if levelName == "" {
		levelName = cfg.LogLevel
	}
	level, err := parseLogLevel(levelName)
	if err != nil {
		return err
	}
	logger := logging.New(cmd.ErrOrStderr(), level)

	endpoints, err := cfg.Endpoints()
	if err != nil {
		return err
	}
	manager, err := session.NewManager(endpoints, logger)
	if err != nil {
		return err
	}
	defer manager.Close()

	workers := opts.workers
	if workers == 0 {
		workers = cfg.Workers
	}

	cache := objcache.New()
	state := nav.New()
	provider := dispatch.ManagerProvider{Manager: manager}

	var dispatchOpts []dispatch.Option
	if workers > 0 {
		dispatchOpts = append(dispatchOpts, dispatch.WithWorkers(workers))
	}
	dispatcher := dispatch.New(provider, cache, state, logger, dispatchOpts...)

	// SIGTERM ends the shell; SIGINT only cancels the command in flight
	// and is handled inside the loop.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	loop := repl.New(
		repl.ManagerClusters{Manager: manager},
		provider,
		dispatcher,
		cache,
		state,
		cmd.InOrStdin(),
		cmd.OutOrStdout(),
		os.Stdin,
		logger,
	)
	return loop.Run(ctx)
}

// parseLogLevel maps a level name to a slog level. An empty name means
// info.
func parseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

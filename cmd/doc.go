// Package cmd provides the command-line interface for knav.
//
// This package implements a Cobra-based CLI with multiple subcommands:
//   - repl: Starts the interactive shell (default behavior when no subcommand is provided)
//   - version: Displays the application version
//   - self-update: Updates the binary to the latest version from GitHub releases
//
// The CLI runs the repl command when no subcommand is specified, so plain
// `knav` drops straight into the shell.
//
// Command Structure:
//
//	knav [flags]                 # Starts the interactive shell (default)
//	knav repl [flags]            # Explicitly starts the shell
//	knav version                 # Shows version information
//	knav self-update             # Updates to latest release
//	knav help [command]          # Shows help information
//
// The repl command reads the cluster configuration file ($KNAV_CONFIG or
// ~/.knav/config.yaml) and supports flags for the config path, log level,
// and the per-command concurrency bound:
//
//	knav repl --config ./clusters.yaml --log-level debug --workers 8
package cmd

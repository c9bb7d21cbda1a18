// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// discipline-daemon enforces time-based access restrictions on this
// machine. It must run as root: it changes a user's password, toggles
// networking, and powers the machine off.
//
// On startup:
//  1. Loads the YAML config named by --config or DISCIPLINE_CONFIG.
//  2. Opens the state file, creating it from the policy file on first
//     run.
//  3. Starts the localhost debug server when enabled.
//  4. Runs the user, network, and device sync loops until SIGINT or
//     SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/discipline-project/discipline/lib/clock"
	"github.com/discipline-project/discipline/lib/config"
	"github.com/discipline-project/discipline/lib/debugserver"
	"github.com/discipline-project/discipline/lib/discipline"
	"github.com/discipline-project/discipline/lib/host"
	"github.com/discipline-project/discipline/lib/process"
	"github.com/discipline-project/discipline/lib/statefile"
	"github.com/discipline-project/discipline/lib/version"
)

var _ debugserver.Target = (*discipline.Discipline)(nil)

func main() {
	process.Exit(run())
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("discipline-daemon", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to discipline.yaml (default: $DISCIPLINE_CONFIG)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("discipline-daemon %s\n", version.Full())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	stateOptions := statefile.Options{}
	if cfg.Paths.Identity != "" {
		stateOptions, err = statefile.LoadIdentityFile(cfg.Paths.Identity)
		if err != nil {
			return err
		}
	}

	d, err := discipline.Open(ctx, discipline.Config{
		Path:         cfg.Paths.State,
		Initializer:  discipline.PolicyInitializer(cfg.Paths.Policy),
		Host:         host.NewLinux(hostCommands(cfg.Host), logger.With("component", "host")),
		Clock:        clock.Real(),
		Logger:       logger,
		StateOptions: stateOptions,
		Intervals: discipline.Intervals{
			User:     cfg.Intervals.User,
			Network:  cfg.Intervals.Network,
			Device:   cfg.Intervals.Device,
			TimeSync: cfg.Intervals.TimeSync,
		},
	})
	if err != nil {
		return fmt.Errorf("opening state: %w", err)
	}

	logger.Info("discipline-daemon starting",
		"version", version.Info(),
		"state", cfg.Paths.State,
		"sealed", stateOptions.Sealed(),
		"debug_server", cfg.Debug.Enabled,
	)

	debugDone := make(chan struct{})
	if cfg.Debug.Enabled {
		server := debugserver.New(debugserver.Config{
			Address: cfg.Debug.Address,
			Target:  d,
			Logger:  logger.With("component", "debug"),
		})
		go func() {
			defer close(debugDone)
			// Enforcement continues without the debug surface.
			if err := server.Serve(ctx); err != nil {
				logger.Error("debug server failed", "error", err)
			}
		}()
	} else {
		close(debugDone)
	}

	runErr := d.Run(ctx)
	<-debugDone

	logger.Info("discipline-daemon stopped")
	return runErr
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// hostCommands converts the config's command table.
func hostCommands(cfg config.HostConfig) host.Commands {
	return host.Commands{
		ChangePassword: cfg.ChangePassword,
		BlockNetwork:   cfg.BlockNetwork,
		AllowNetwork:   cfg.AllowNetwork,
		SyncClock:      cfg.SyncClock,
		Shutdown:       cfg.Shutdown,
	}
}

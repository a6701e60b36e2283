package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aryankumar/netdiscover/internal/classify"
	"github.com/aryankumar/netdiscover/internal/config"
	"github.com/aryankumar/netdiscover/internal/executor"
	"github.com/aryankumar/netdiscover/internal/output"
	"github.com/aryankumar/netdiscover/internal/store"
	"github.com/aryankumar/netdiscover/internal/util"
	"github.com/aryankumar/netdiscover/pkg/version"
)

const (
	dbDirPattern = "netdiscover_*_db"
	dbFileName   = "results.db"
)

// runDiscover is the root command: select devices, load config, run the
// pool against a fresh database and print the report
func runDiscover(cmd *cobra.Command, opts *rootOptions, d deps) error {
	ctx := cmd.Context()
	logger := opts.logger

	devices, err := selectDevices(opts)
	if err != nil {
		return err
	}

	mgr := config.NewManager(opts.configFile)
	cfg, err := mgr.Load()
	if err != nil {
		return err
	}
	logger.Debug("loaded configuration", "file", mgr.Path(), "config", *cfg)

	creds, err := cfg.Credentials()
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", dbDirPattern)
	if err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove database directory", "dir", dir, "error", err)
		}
	}()
	dbPath := filepath.Join(dir, dbFileName)

	db, err := store.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	logger.Debug("opened result store", "path", dbPath)

	sshCfg := cfg.SSHConfig()
	sshCfg.ClientVersion = version.SSHClientVersion()

	pool := executor.NewPool(executor.DefaultSize,
		executor.FromStore(db),
		d.newSessionClient(sshCfg),
		classify.Default(),
		executor.WithLogger(logger),
		executor.WithCredentials(creds),
		executor.WithCommandTimeout(cfg.CommandTimeout),
		executor.WithDrainTimeout(cfg.DrainTimeout),
	)

	report, runErr := pool.Run(ctx, devices)
	if executor.HasFailures(report.Results) {
		failed := executor.FilterByStatus(report.Results, executor.StatusFailed)
		logger.Warn("some devices could not be discovered",
			"failed", len(failed),
			"error", errors.Join(executor.Errors(failed)...))
	}

	// Rows are read back even after an abort; whatever was committed is shown
	records, err := store.ReadRecords(context.WithoutCancel(ctx), dbPath)
	if err != nil {
		logger.Warn("failed to read results", "error", err)
	}

	formatter := output.NewFormatter(opts.format,
		output.WithNoColor(opts.noColor),
		output.WithWide(opts.wide))
	if err := formatter.FormatReport(cmd.OutOrStdout(), output.NewReport(report, records)); err != nil {
		if runErr == nil {
			runErr = fmt.Errorf("failed to write report: %w", err)
		}
	}

	return runErr
}

// selectDevices turns --device/--seed into the list of devices to visit.
// Exactly one must be given; a seed file yields no devices.
func selectDevices(opts *rootOptions) ([]string, error) {
	switch {
	case opts.device != "" && opts.seed != "":
		return nil, util.NewConfigError(util.ErrNoDeviceSelected)
	case opts.device != "":
		host := util.NormalizeHost(opts.device)
		if host == "" {
			return nil, util.NewConfigError(util.ErrNoDeviceSelected)
		}
		return []string{host}, nil
	case opts.seed != "":
		if _, err := os.Stat(opts.seed); err != nil {
			return nil, util.NewConfigError(fmt.Errorf("seed file: %w", err))
		}
		opts.logger.Warn("seed expansion is not supported, no devices selected", "seed", opts.seed)
		return []string{}, nil
	default:
		return nil, util.NewConfigError(util.ErrNoDeviceSelected)
	}
}

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-kvs/core"
	"github.com/0xRadioAc7iv/go-kvs/internal"
	"github.com/0xRadioAc7iv/go-kvs/internal/logging"
	"github.com/0xRadioAc7iv/go-kvs/internal/utils"
)

const (
	dirDesc          = "store directory (default: current working directory)"
	configDesc       = "path to a YAML configuration file"
	logLevelDesc     = "log level: debug, info, warn or error"
	syncDesc         = "fsync the log after every write"
	formatHeaderDesc = "create and expect a format header at the start of the log"
	strictDesc       = "fail instead of cutting off an incomplete record at the end of the log"
)

// app carries the streams and flag values shared by every command.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	flags      internal.Config
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	c := &cobra.Command{
		Use:           "kvs",
		Short:         "A key-value store kept in a single append-only log",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	c.SetIn(stdin)
	c.SetOut(stdout)
	c.SetErr(stderr)

	defaults := internal.DefaultConfig()
	pf := c.PersistentFlags()
	pf.StringVarP(&a.flags.Dir, "dir", "d", defaults.Dir, dirDesc)
	pf.StringVarP(&a.configPath, "config", "c", "", configDesc)
	pf.StringVar(&a.flags.LogLevel, "log-level", defaults.LogLevel, logLevelDesc)
	pf.BoolVar(&a.flags.SyncWrites, "sync", defaults.SyncWrites, syncDesc)
	pf.BoolVar(&a.flags.FormatHeader, "format-header", defaults.FormatHeader, formatHeaderDesc)
	pf.BoolVar(&a.flags.StrictRecovery, "strict", defaults.StrictRecovery, strictDesc)

	c.AddCommand(
		a.newSetCmd(),
		a.newGetCmd(),
		a.newRemoveCmd(),
		a.newShellCmd(),
	)
	return c
}

// config merges the config file, if any, with the flags the user set.
func (a *app) config(cmd *cobra.Command) (*internal.Config, error) {
	cfg := internal.DefaultConfig()
	if a.configPath != "" {
		var err error
		if cfg, err = internal.LoadFile(a.configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Dir = a.flags.Dir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.LogLevel
	}
	if flags.Changed("sync") {
		cfg.SyncWrites = a.flags.SyncWrites
	}
	if flags.Changed("format-header") {
		cfg.FormatHeader = a.flags.FormatHeader
	}
	if flags.Changed("strict") {
		cfg.StrictRecovery = a.flags.StrictRecovery
	}
	return cfg, nil
}

// withStore opens the store the flags point at, runs fn and closes the
// store again.
func (a *app) withStore(cmd *cobra.Command, fn func(*core.Store) error) (err error) {
	cfg, err := a.config(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, a.stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	dir, err := utils.ResolveDirectory(cfg.Dir)
	if err != nil {
		return fmt.Errorf("resolve directory: %w", err)
	}

	s, err := core.Open(dir,
		core.WithLogger(logger.With(zap.String("cmd", cmd.Name()))),
		core.WithSyncWrites(cfg.SyncWrites),
		core.WithFormatHeader(cfg.FormatHeader),
		core.WithStrictRecovery(cfg.StrictRecovery),
	)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()

	return fn(s)
}

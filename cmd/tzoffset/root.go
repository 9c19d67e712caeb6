package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ngrash/tzoffset/internal/config"
	"github.com/ngrash/tzoffset/internal/logging"
	"github.com/ngrash/tzoffset/tzdb"
)

// app is the state shared by the subcommands. It is filled in before a
// subcommand runs.
type app struct {
	fs     afero.Fs
	cfg    config.Config
	logger *zap.Logger
	db     *tzdb.Database
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs, logger: zap.NewNop()}
	root := &cobra.Command{
		Use:           "tzoffset",
		Short:         "Resolve UTC offsets of IANA time zones",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	config.RegisterFlags(root.PersistentFlags())
	root.AddCommand(
		newZonesCmd(a),
		newOffsetCmd(a),
		newLocalCmd(a),
		newTransitionsCmd(a),
		newInspectCmd(a),
		newDiffCmd(a),
		newPackCmd(a),
		newImportSQLiteCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	v := config.NewViper(a.fs)
	if err := config.BindFlags(cmd, v); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	a.db = tzdb.New(cfg.Loader(a.fs, logger), tzdb.WithLogger(logger))
	return nil
}

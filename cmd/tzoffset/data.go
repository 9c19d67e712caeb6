package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ngrash/tzoffset/tzdb"
	"github.com/ngrash/tzoffset/tzdb/blobstore"
	"github.com/ngrash/tzoffset/tzdb/dirstore"
	"github.com/ngrash/tzoffset/tzdb/sqlitestore"
	"github.com/ngrash/tzoffset/tzif"
)

// readAll returns the TZif data of every zone of s.
func readAll(s tzdb.DataSource) (map[string][]byte, error) {
	ids, err := s.AvailableIDs()
	if err != nil {
		return nil, err
	}
	zones := make(map[string][]byte, len(ids))
	for _, id := range ids {
		b, err := s.ZoneData(id)
		if err != nil {
			return nil, err
		}
		zones[id] = b
	}
	return zones, nil
}

// normalizeTZif rewrites b with only the parts offset resolution reads.
func normalizeTZif(b []byte) ([]byte, error) {
	f, err := tzif.Parse(b)
	if err != nil {
		return nil, err
	}
	d, err := tzif.Build(f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newPackCmd(a *app) *cobra.Command {
	var (
		version   string
		normalize bool
	)
	cmd := &cobra.Command{
		Use:   "pack <zoneinfo dir> <blob file>",
		Short: "Pack a zoneinfo directory into a blob file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := dirstore.Open(a.fs, args[0], dirstore.WithLogger(a.logger))
			if err != nil {
				return err
			}
			zones, err := readAll(src)
			if err != nil {
				return err
			}
			if normalize {
				for id, b := range zones {
					if zones[id], err = normalizeTZif(b); err != nil {
						return fmt.Errorf("normalize %s: %w", id, err)
					}
				}
			}
			f, err := a.fs.Create(args[1])
			if err != nil {
				return err
			}
			if err := blobstore.Build(f, version, zones); err != nil {
				f.Close()
				return fmt.Errorf("build blob: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.logger.Info("Packed zones", zap.Int("zones", len(zones)), zap.String("version", version), zap.String("path", args[1]))
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "tzdata", `version tag, e.g. "tzdata2025b"`)
	cmd.Flags().BoolVar(&normalize, "normalize", false, "rewrite zones without leap seconds and indicators")
	return cmd
}

func newImportSQLiteCmd(a *app) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "import-sqlite <database file>",
		Short: "Copy the zones of the configured store into a sqlite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.cfg.OpenStore(a.fs, a.logger)
			if err != nil {
				return err
			}
			src, ok := s.(tzdb.DataSource)
			if !ok {
				return fmt.Errorf("store %q does not provide TZif data", a.cfg.Store)
			}
			if version == "" {
				if b, ok := s.(*blobstore.Store); ok {
					version = b.Version()
				}
			}
			zones, err := readAll(src)
			if err != nil {
				return err
			}
			dst, err := sqlitestore.Open(args[0])
			if err != nil {
				return err
			}
			defer dst.Close()
			ctx := cmd.Context()
			if err := dst.Import(ctx, zones); err != nil {
				return err
			}
			if version != "" {
				if err := dst.SetVersion(ctx, version); err != nil {
					return err
				}
			}
			a.logger.Info("Imported zones", zap.Int("zones", len(zones)), zap.String("path", args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "version recorded in the database (default: version of a blob store)")
	return cmd
}

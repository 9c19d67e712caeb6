// Package config reads the settings of the tzoffset command from flags,
// TZOFFSET_* environment variables and an optional config file, in that
// order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ngrash/tzoffset/internal/logging"
	"github.com/ngrash/tzoffset/tzdb"
	"github.com/ngrash/tzoffset/tzdb/blobstore"
	"github.com/ngrash/tzoffset/tzdb/dirstore"
	"github.com/ngrash/tzoffset/tzdb/embedded"
	"github.com/ngrash/tzoffset/tzdb/registry"
	"github.com/ngrash/tzoffset/tzdb/sqlitestore"
)

// EnvPrefix prefixes the environment variables, e.g. TZOFFSET_STORE.
const EnvPrefix = "TZOFFSET"

// Store kinds.
const (
	StoreAuto     = "auto"
	StoreDir      = "dir"
	StoreBlob     = "blob"
	StoreEmbedded = "embedded"
	StoreSQLite   = "sqlite"
	StoreRegistry = "registry"
)

// Keys, also used as flag names.
const (
	KeyConfig      = "config"
	KeyStore       = "store"
	KeyZoneinfoDir = "zoneinfo-dir"
	KeyBlob        = "blob"
	KeySQLite      = "sqlite"
	KeyAddr        = "addr"
	KeyCORSOrigins = "cors-origin"
	KeyLogLevel    = "log-level"
	KeyLogFormat   = "log-format"
)

// Config holds the settings shared by all subcommands.
type Config struct {
	// Store selects the zone data source. Auto uses ZoneinfoDir if it
	// exists and the embedded data otherwise.
	Store       string
	ZoneinfoDir string
	BlobPath    string
	SQLitePath  string

	Addr        string
	CORSOrigins []string

	Log logging.Config
}

// RegisterFlags adds the persistent flags of the root command.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyConfig, "", "config file (yaml, json or toml)")
	fs.String(KeyStore, StoreAuto, "zone data source: auto, dir, blob, embedded, sqlite or registry")
	fs.String(KeyZoneinfoDir, dirstore.DefaultRoot, "zoneinfo directory for the dir store")
	fs.String(KeyBlob, "", "blob file for the blob store")
	fs.String(KeySQLite, "", "database file for the sqlite store")
	fs.String(KeyAddr, "localhost:8080", "listen address of serve")
	fs.StringSlice(KeyCORSOrigins, nil, "origins allowed to call the API from a browser")
	fs.String(KeyLogLevel, "info", "log level: debug, info, warn or error")
	fs.String(KeyLogFormat, "console", "log format: console or json")
}

// BindFlags binds every flag of cmd, inherited ones included, to v.
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var result error
	visit := func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			result = multierror.Append(result, err)
		}
	}
	cmd.Flags().VisitAll(visit)
	cmd.InheritedFlags().VisitAll(visit)
	return result
}

// NewViper returns a viper instance reading TZOFFSET_* variables from the
// environment and files from fs.
func NewViper(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file named by the config key, if any, and returns
// the validated settings.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	c := Config{
		Store:       v.GetString(KeyStore),
		ZoneinfoDir: v.GetString(KeyZoneinfoDir),
		BlobPath:    v.GetString(KeyBlob),
		SQLitePath:  v.GetString(KeySQLite),
		Addr:        v.GetString(KeyAddr),
		CORSOrigins: v.GetStringSlice(KeyCORSOrigins),
		Log: logging.Config{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
	}
	if c.Store == "" {
		c.Store = StoreAuto
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var result error
	switch c.Store {
	case StoreAuto, StoreEmbedded, StoreRegistry:
	case StoreDir:
		if c.ZoneinfoDir == "" {
			result = multierror.Append(result, fmt.Errorf("store %q needs --%s", c.Store, KeyZoneinfoDir))
		}
	case StoreBlob:
		if c.BlobPath == "" {
			result = multierror.Append(result, fmt.Errorf("store %q needs --%s", c.Store, KeyBlob))
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			result = multierror.Append(result, fmt.Errorf("store %q needs --%s", c.Store, KeySQLite))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown store %q", c.Store))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, err)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return result
}

// OpenStore opens the configured store. Files are read from fs except
// for the sqlite database, which needs a real file.
func (c Config) OpenStore(fs afero.Fs, logger *zap.Logger) (tzdb.Store, error) {
	switch c.Store {
	case StoreAuto:
		if ok, _ := afero.DirExists(fs, c.ZoneinfoDir); ok && c.ZoneinfoDir != "" {
			logger.Debug("Using zoneinfo directory", zap.String("root", c.ZoneinfoDir))
			return asStore(dirstore.Open(fs, c.ZoneinfoDir, dirstore.WithLogger(logger)))
		}
		logger.Debug("Using embedded time zone data")
		return asStore(embedded.Store())
	case StoreDir:
		return asStore(dirstore.Open(fs, c.ZoneinfoDir, dirstore.WithLogger(logger)))
	case StoreBlob:
		return asStore(blobstore.Open(fs, c.BlobPath))
	case StoreEmbedded:
		return asStore(embedded.Store())
	case StoreSQLite:
		return asStore(sqlitestore.Open(c.SQLitePath))
	case StoreRegistry:
		return registry.Loader()
	default:
		return nil, fmt.Errorf("unknown store %q", c.Store)
	}
}

// asStore drops the typed nil of a failed open.
func asStore[S tzdb.Store](s S, err error) (tzdb.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Loader returns a tzdb.Loader that opens the configured store.
func (c Config) Loader(fs afero.Fs, logger *zap.Logger) tzdb.Loader {
	return func() (tzdb.Store, error) {
		return c.OpenStore(fs, logger)
	}
}

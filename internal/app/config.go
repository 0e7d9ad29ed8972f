package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"

	"olm/internal/store"
)

const (
	// ConfigFilename is the name of the config file inside the home directory.
	ConfigFilename = "olm.conf"

	defaultHome       = "~/.olm"
	defaultDebugLevel = "info"
)

// Output formats for structured command output.
const (
	OutputYAML = "yaml"
	OutputJSON = "json"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime options for building the app. It is read from
// <home>/olm.conf and overridden by command line flags.
type Config struct {
	Home       string `toml:"home"`       // state directory, e.g. ~/.olm
	DebugLevel string `toml:"debuglevel"` // "info" or "OLM=trace,STOR=debug"
	LogFile    string `toml:"logfile"`    // optional rotated log file
	KDF        string `toml:"kdf"`        // argon2id or scrypt
	Output     string `toml:"output"`     // yaml or json

	// RetainGroupHistory imports inbound group sessions that keep their
	// first checkpoint, so messages decrypt in any order.
	RetainGroupHistory bool `toml:"retaingrouphistory"`
}

// DefaultConfig returns the configuration used when no file or flag sets a
// value.
func DefaultConfig() Config {
	return Config{
		Home:       defaultHome,
		DebugLevel: defaultDebugLevel,
		KDF:        string(store.KDFArgon2id),
		Output:     OutputYAML,
	}
}

// LoadConfig returns the defaults overlaid with the config file in home, if
// one exists. An empty home means the default.
func LoadConfig(home string) (Config, error) {
	cfg := DefaultConfig()
	if home != "" {
		cfg.Home = home
	}
	dir, err := homedir.Expand(cfg.Home)
	if err != nil {
		return cfg, err
	}

	path := filepath.Join(dir, ConfigFilename)
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	// The file lives in home, so it cannot move it.
	cfg.Home = dir
	return cfg, nil
}

// Validate expands paths and checks enumerated values.
func (c *Config) Validate() error {
	var err error
	if c.Home, err = homedir.Expand(c.Home); err != nil {
		return err
	}
	if c.LogFile != "" {
		if c.LogFile, err = homedir.Expand(c.LogFile); err != nil {
			return err
		}
	}
	if _, err := store.DefaultKDFParams(store.KDF(c.KDF)); err != nil {
		return fmt.Errorf("%w: kdf %q: %w", ErrInvalidConfig, c.KDF, err)
	}
	switch c.Output {
	case OutputYAML, OutputJSON:
	default:
		return fmt.Errorf("%w: output must be %s or %s, got %q", ErrInvalidConfig, OutputYAML, OutputJSON, c.Output)
	}
	return nil
}

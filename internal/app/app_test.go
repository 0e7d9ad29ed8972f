package app

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := LoadConfig(home)
	require.NoError(t, err)
	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, "info", cfg.DebugLevel)
	assert.Equal(t, "argon2id", cfg.KDF)
	assert.Equal(t, OutputYAML, cfg.Output)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_File(t *testing.T) {
	home := t.TempDir()
	conf := `
debuglevel = "OLM=trace,STOR=debug"
kdf = "scrypt"
output = "json"
retaingrouphistory = true
home = "/elsewhere"
`
	require.NoError(t, os.WriteFile(filepath.Join(home, ConfigFilename), []byte(conf), 0o600))

	cfg, err := LoadConfig(home)
	require.NoError(t, err)
	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, "OLM=trace,STOR=debug", cfg.DebugLevel)
	assert.Equal(t, "scrypt", cfg.KDF)
	assert.Equal(t, OutputJSON, cfg.Output)
	assert.True(t, cfg.RetainGroupHistory)
}

func TestLoadConfig_Malformed(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, ConfigFilename), []byte("kdf = "), 0o600))
	_, err := LoadConfig(home)
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KDF = "bcrypt"
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Output = "xml"
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestLogBackend_Levels(t *testing.T) {
	var out bytes.Buffer
	b, err := newLogBackend("", "warn,OLM=trace", &out)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelTrace, b.logger(SubsysEngine).Level())
	assert.Equal(t, slog.LevelWarn, b.logger(SubsysStore).Level())

	b.logger(SubsysStore).Infof("hidden")
	b.logger(SubsysStore).Warnf("shown")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "STOR: shown")

	_, err = newLogBackend("", "loud", &out)
	require.Error(t, err)
	_, err = newLogBackend("", "OLM=trace=debug", &out)
	require.Error(t, err)
}

func TestLogBackend_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "olm.log")
	b, err := newLogBackend(path, "info", nil)
	require.NoError(t, err)
	b.logger(SubsysCommands).Infof("to file")
	require.NoError(t, b.close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "CMDS: to file")
}

func TestNewApp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Home = filepath.Join(t.TempDir(), "state")
	var out bytes.Buffer
	a, err := newApp(cfg, rand.Reader, &out)
	require.NoError(t, err)
	defer a.Close()

	assert.DirExists(t, cfg.Home)
	assert.Equal(t, cfg.Home, a.Store.Dir())

	_, fp, err := a.Accounts.CreateAccount("Correct-Horse-9")
	require.NoError(t, err)
	assert.Contains(t, out.String(), fp.String())
	assert.FileExists(t, filepath.Join(cfg.Home, "account.enc"))
}

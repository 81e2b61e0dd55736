package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/brettbedarf/memvfs/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestNewConfig_WithNilOverride tests that NewConfig creates a config with all default values
// when no override is provided.
func TestNewConfig_WithNilOverride(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(nil)

	require.NotNil(t, cfg)
	assert.Equal(t, createDefaultCfg(), cfg, "must use default values when no config provided")
}

func TestNewConfig_WithAllOverride(t *testing.T) {
	t.Parallel()

	override := createOverride()
	override.LogLvl = util.Pointer(TraceVerbose)
	cfg := NewConfig(override)

	expCfg := &Config{
		Scheme:    *override.Scheme,
		LogLvl:    util.TraceLevel,
		DirPerms:  *override.DirPerms,
		FilePerms: *override.FilePerms,
	}
	require.NotNil(t, cfg)
	assert.Equal(t, expCfg, cfg, "must override all provided fields")
}

func TestConfig_Merge_LogLvlConversion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		verboseValue  int
		expectedLevel util.LogLevel
	}{
		{"verbose_1_error", 1, util.ErrorLevel},
		{"verbose_3_info", 3, util.InfoLevel},
		{"verbose_5_trace", 5, util.TraceLevel},
		{"verbose_0_clamped_to_1", 0, util.ErrorLevel},
		{"verbose_100_clamped_to_5", 100, util.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(&ConfigOverride{LogLvl: &tt.verboseValue})
			assert.Equal(t, tt.expectedLevel, cfg.LogLvl)
		})
	}
}

func TestConfig_Merge_PartialOverride(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(&ConfigOverride{FilePerms: util.Pointer(uint32(0o644))})

	expCfg := createDefaultCfg()
	expCfg.FilePerms = 0o644
	assert.Equal(t, expCfg, cfg, "must override all provided fields and leave rest default")
}

func TestConfig_Merge_MasksPermBits(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(&ConfigOverride{DirPerms: util.Pointer(uint32(0o40755))})
	assert.Equal(t, uint32(0o755), cfg.DirPerms, "type bits must not leak into perms")
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scheme  string
		wantErr bool
	}{
		{"vfs", false},
		{"memfs", false},
		{"", true},
		{"vfs://", true},
		{"a/b", true},
	}
	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Scheme = tt.scheme
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidScheme)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_URLPrefix(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "vfs://", NewDefaultConfig().URLPrefix())
}

func TestLoadConfigOverrideFile_Valid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ext     string
		marshal func(any) ([]byte, error)
	}{
		{".yaml", yaml.Marshal},
		{".yml", yaml.Marshal},
		{".json", json.Marshal},
	}

	for _, c := range cases {
		t.Run("valid"+c.ext, func(t *testing.T) {
			t.Parallel()
			override := createOverride()
			data, err := c.marshal(override)
			require.NoError(t, err)
			path := filepath.Join(t.TempDir(), "override"+c.ext)
			require.NoError(t, os.WriteFile(path, data, 0o600))

			loaded, err := LoadConfigOverrideFile(path)

			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, *override, *loaded)
		})
	}
}

func TestLoadConfigOverrideFile_NonExistentFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does_not_exist.yaml")

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err), "expected not exist error, got %v", err)
}

func TestLoadConfigOverrideFile_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "override.txt")
	require.NoError(t, os.WriteFile(path, []byte("scheme: x"), 0o600))

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config file extension")
}

func TestLoadConfigOverrideFile_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "override.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config file")
}

func TestNewConfigFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheme: mem\nverbose: 4\n"), 0o600))

	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)

	expCfg := createDefaultCfg()
	expCfg.Scheme = "mem"
	expCfg.LogLvl = util.DebugLevel
	assert.Equal(t, expCfg, cfg)

	_, err = NewConfigFromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadEnvOverride_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	data := "MEMVFS_SCHEME=mem\nMEMVFS_VERBOSE=5\nMEMVFS_DIR_PERMS=0755\nMEMVFS_FILE_PERMS=0o600\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	override, err := LoadEnvOverride(path)
	require.NoError(t, err)

	assert.Equal(t, "mem", *override.Scheme)
	assert.Equal(t, 5, *override.LogLvl)
	assert.Equal(t, uint32(0o755), *override.DirPerms)
	assert.Equal(t, uint32(0o600), *override.FilePerms)
}

func TestLoadEnvOverride_ProcessEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MEMVFS_SCHEME=fromfile\n"), 0o600))
	t.Setenv(EnvScheme, "fromenv")

	override, err := LoadEnvOverride(path)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", *override.Scheme)
	assert.Nil(t, override.LogLvl)
	assert.Nil(t, override.DirPerms)
}

func TestLoadEnvOverride_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MEMVFS_FILE_PERMS=rwx\n"), 0o600))

	_, err := LoadEnvOverride(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvFilePerms)

	_, err = LoadEnvOverride(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestParsePerms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"0777", 0o777, false},
		{"644", 0o644, false},
		{"0o700", 0o700, false},
		{" 0600 ", 0o600, false},
		{"1777", 0o1777, false},
		{"99", 0, true},
		{"17777", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePerms(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func createDefaultCfg() *Config {
	return &Config{
		Scheme:    DefaultScheme,
		LogLvl:    DefaultLogLvl,
		DirPerms:  DefaultDirPerms,
		FilePerms: DefaultFilePerms,
	}
}

// createOverride makes a ConfigOverride with all non-default values
func createOverride() *ConfigOverride {
	testLogVerbose := TraceVerbose
	if DefaultLogLvl == util.TraceLevel {
		testLogVerbose = DebugVerbose
	}
	return &ConfigOverride{
		Scheme:    util.Pointer("test"),
		LogLvl:    util.Pointer(testLogVerbose),
		DirPerms:  util.Pointer(uint32(0o700)),
		FilePerms: util.Pointer(uint32(0o600)),
	}
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brettbedarf/memvfs/internal/util"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default configuration constants. See [Config] for field descriptions.
const (
	// DefaultScheme is the URL scheme identifying the virtual filesystem, i.e. vfs://root/file
	DefaultScheme = "vfs"

	DefaultLogLvl = util.InfoLevel

	// DefaultDirPerms is applied to directories created without explicit perms
	DefaultDirPerms uint32 = 0o777

	// DefaultFilePerms is applied to files created without explicit perms
	DefaultFilePerms uint32 = 0o777
)

// CLI style verbosity values accepted by [ConfigOverride.LogLvl]
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Environment keys read by [LoadEnvOverride]
const (
	EnvScheme    = "MEMVFS_SCHEME"
	EnvVerbose   = "MEMVFS_VERBOSE"
	EnvDirPerms  = "MEMVFS_DIR_PERMS"
	EnvFilePerms = "MEMVFS_FILE_PERMS"
)

var ErrInvalidScheme = errors.New("invalid scheme")

// Config contains runtime configuration values for the virtual filesystem.
type Config struct {
	Scheme    string        // URL scheme, without "://" (Default "vfs")
	LogLvl    util.LogLevel // Internal log level (Default info)
	DirPerms  uint32        // Permission bits for new directories (Default 0777)
	FilePerms uint32        // Permission bits for new files (Default 0777)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	Scheme *string `yaml:"scheme,omitempty" json:"scheme,omitempty"`
	// LogLvl is CLI style verbosity between 1 (error) and 5 (trace); clamped
	LogLvl    *int    `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	DirPerms  *uint32 `yaml:"dir_perms,omitempty" json:"dir_perms,omitempty"`
	FilePerms *uint32 `yaml:"file_perms,omitempty" json:"file_perms,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		Scheme:    DefaultScheme,
		LogLvl:    DefaultLogLvl,
		DirPerms:  DefaultDirPerms,
		FilePerms: DefaultFilePerms,
	}
}

// NewConfig creates a default Config with override applied; override may be nil
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.Scheme != nil {
		c.Scheme = *override.Scheme
	}
	if override.LogLvl != nil {
		c.LogLvl = util.LevelFromVerbosity(*override.LogLvl)
	}
	if override.DirPerms != nil {
		c.DirPerms = *override.DirPerms & 0o7777
	}
	if override.FilePerms != nil {
		c.FilePerms = *override.FilePerms & 0o7777
	}
}

// Validate reports configuration values the filesystem cannot work with
func (c *Config) Validate() error {
	if c.Scheme == "" || strings.ContainsAny(c.Scheme, ":/") {
		return fmt.Errorf("%w: %q", ErrInvalidScheme, c.Scheme)
	}
	return nil
}

// URLPrefix returns the scheme with its separator, i.e. "vfs://"
func (c *Config) URLPrefix() string {
	return c.Scheme + "://"
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}

// LoadEnvOverride reads MEMVFS_* keys from the given dotenv files (".env" if
// none given and it exists). Process environment values take precedence over
// file values. Missing keys stay nil.
func LoadEnvOverride(files ...string) (*ConfigOverride, error) {
	vals := map[string]string{}
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}
	if len(files) > 0 {
		read, err := godotenv.Read(files...)
		if err != nil {
			return nil, fmt.Errorf("failed to read env files: %w", err)
		}
		vals = read
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vals[key]
		return v, ok
	}

	var override ConfigOverride
	if v, ok := lookup(EnvScheme); ok {
		override.Scheme = util.Pointer(v)
	}
	if v, ok := lookup(EnvVerbose); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvVerbose, err)
		}
		override.LogLvl = util.Pointer(n)
	}
	for key, dst := range map[string]**uint32{EnvDirPerms: &override.DirPerms, EnvFilePerms: &override.FilePerms} {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		perms, err := ParsePerms(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		*dst = util.Pointer(perms)
	}
	return &override, nil
}

// ParsePerms parses an octal permission string such as "0755", "755" or "0o755"
func ParsePerms(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0o")
	p, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid permission bits %q: %w", s, err)
	}
	if p > 0o7777 {
		return 0, fmt.Errorf("invalid permission bits %q: out of range", s)
	}
	return uint32(p), nil
}

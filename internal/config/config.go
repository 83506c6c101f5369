package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"shelver/internal/domain"
)

const (
	DefaultRoot = "."

	BackendSQLite = "sqlite"
	BackendJSONL  = "jsonl"
)

// RootDir returns the root directory from the SHELVER_ROOT env var,
// falling back to DefaultRoot.
func RootDir() string {
	if env := os.Getenv("SHELVER_ROOT"); env != "" {
		return env
	}
	return DefaultRoot
}

// OrganizeConfig tunes a batch run
type OrganizeConfig struct {
	Collision         string `mapstructure:"collision"`
	Workers           int    `mapstructure:"workers"`
	MaxFiles          int    `mapstructure:"max_files"`
	SkipUncategorized bool   `mapstructure:"skip_uncategorized"`
	ContentSniffBytes int    `mapstructure:"content_sniff_bytes"`
}

// RiskConfig holds the thresholds that require confirmation
type RiskConfig struct {
	FileCountThreshold int      `mapstructure:"file_count_threshold"`
	LargeFileMB        int      `mapstructure:"large_file_mb"`
	CriticalPatterns   []string `mapstructure:"critical_patterns"`
}

// DefaultConfig names the fallback for files no rule matched
type DefaultConfig struct {
	Category    string `mapstructure:"category"`
	Destination string `mapstructure:"destination"`
}

type Config struct {
	Root    string `mapstructure:"root"`
	DataDir string `mapstructure:"data_dir"`

	Journal struct {
		Backend string `mapstructure:"backend"`
	} `mapstructure:"journal"`

	Organize OrganizeConfig `mapstructure:"organize"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Default  DefaultConfig  `mapstructure:"default"`

	Watch struct {
		Debounce time.Duration `mapstructure:"debounce"`
	} `mapstructure:"watch"`

	Rules     []domain.Rule `mapstructure:"rules"`
	RulesFile string        `mapstructure:"rules_file"`

	// ConfigFile is the config file viper read, if any
	ConfigFile string `mapstructure:"-"`
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("root", RootDir())
	v.SetDefault("data_dir", "")
	v.SetDefault("journal.backend", BackendSQLite)
	v.SetDefault("organize.collision", string(domain.CollisionRename))
	v.SetDefault("organize.workers", 1)
	v.SetDefault("organize.max_files", 100)
	v.SetDefault("organize.skip_uncategorized", false)
	v.SetDefault("organize.content_sniff_bytes", 0)
	v.SetDefault("risk.file_count_threshold", 50)
	v.SetDefault("risk.large_file_mb", 10)
	v.SetDefault("risk.critical_patterns", domain.DefaultCriticalPatterns)
	v.SetDefault("default.category", domain.DefaultCategory)
	v.SetDefault("default.destination", domain.DefaultDestination)
	v.SetDefault("watch.debounce", 500*time.Millisecond)
	v.SetDefault("rules_file", "")
}

// NewViper builds a viper instance with defaults, environment bindings and
// the config file. A missing config file is not an error.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(ExpandPath(cfgFile))
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "shelver"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SHELVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No user config; fall back to ./shelver.yaml
		if cfgFile == "" {
			if _, statErr := os.Stat("shelver.yaml"); statErr == nil {
				v.SetConfigFile("shelver.yaml")
				if err := v.ReadInConfig(); err != nil {
					return nil, fmt.Errorf("failed to read config: %w", err)
				}
			}
		}
	}

	return v, nil
}

// Load decodes the viper state into a validated Config
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	root, err := filepath.Abs(ExpandPath(cfg.Root))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	cfg.Root = root
	if cfg.DataDir != "" {
		cfg.DataDir = ExpandPath(cfg.DataDir)
	}

	if cfg.RulesFile != "" {
		rules, err := LoadRulesFile(ExpandPath(cfg.RulesFile))
		if err != nil {
			return nil, err
		}
		cfg.Rules = rules
	}
	if len(cfg.Rules) == 0 {
		cfg.Rules = domain.DefaultRules()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	switch c.Journal.Backend {
	case BackendSQLite, BackendJSONL:
	default:
		return fmt.Errorf("%w: journal.backend must be %q or %q, got %q",
			domain.ErrInvalidInput, BackendSQLite, BackendJSONL, c.Journal.Backend)
	}
	if _, err := domain.ParseCollisionPolicy(c.Organize.Collision); err != nil {
		return fmt.Errorf("organize.collision: %w", err)
	}
	if c.Organize.Workers < 1 {
		return fmt.Errorf("%w: organize.workers must be at least 1", domain.ErrInvalidInput)
	}
	if c.Organize.MaxFiles < 0 || c.Organize.ContentSniffBytes < 0 {
		return fmt.Errorf("%w: organize limits must not be negative", domain.ErrInvalidInput)
	}
	if c.Risk.LargeFileMB < 0 || c.Risk.FileCountThreshold < 0 {
		return fmt.Errorf("%w: risk thresholds must not be negative", domain.ErrInvalidInput)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("%w: watch.debounce must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// Collision returns the parsed collision policy
func (c *Config) Collision() domain.CollisionPolicy {
	p, _ := domain.ParseCollisionPolicy(c.Organize.Collision)
	return p
}

// RiskPolicy converts the risk section into a domain policy
func (c *Config) RiskPolicy() domain.RiskPolicy {
	return domain.RiskPolicy{
		FileCountThreshold: c.Risk.FileCountThreshold,
		LargeFileBytes:     int64(c.Risk.LargeFileMB) * 1024 * 1024,
		CriticalPatterns:   c.Risk.CriticalPatterns,
	}
}

// DataDirectory returns where journals live: data_dir when set, otherwise
// $XDG_DATA_HOME/shelver.
func (c *Config) DataDirectory() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "shelver")
}

// JournalPath returns the journal file for the configured root, one per root
func (c *Config) JournalPath() string {
	ext := ".db"
	if c.Journal.Backend == BackendJSONL {
		ext = ".jsonl"
	}
	return filepath.Join(c.DataDirectory(), HashRoot(c.Root)+ext)
}

// ExcludedPaths lists files inside the root the organizer must never move
func (c *Config) ExcludedPaths() []string {
	journal := c.JournalPath()
	// Side files of the sqlite WAL and the jsonl lock
	paths := []string{journal, journal + "-wal", journal + "-shm", journal + ".lock"}
	if c.ConfigFile != "" {
		if abs, err := filepath.Abs(c.ConfigFile); err == nil {
			paths = append(paths, abs)
		}
	}
	if c.RulesFile != "" {
		if abs, err := filepath.Abs(ExpandPath(c.RulesFile)); err == nil {
			paths = append(paths, abs)
		}
	}
	return paths
}

// HashRoot returns a short hash of the root path
func HashRoot(root string) string {
	h := sha256.Sum256([]byte(root))
	return hex.EncodeToString(h[:8]) // First 8 bytes = 16 hex chars
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

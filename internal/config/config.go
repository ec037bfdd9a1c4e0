package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PathsConfig contains path-related configuration
type PathsConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	JournalFile string `mapstructure:"journal_file"`
	LogFile     string `mapstructure:"log_file"`
	LogDir      string `mapstructure:"log_dir"` // installer engine logs, one file per install
}

// EngineConfig selects the external installer tools
type EngineConfig struct {
	Msiexec string `mapstructure:"msiexec"`
	Msiinfo string `mapstructure:"msiinfo"`
	Reader  string `mapstructure:"reader"` // auto, native (msi.dll) or msiinfo
	LogMode string `mapstructure:"log_mode"`
}

// InventoryConfig selects where installed packages are enumerated from
type InventoryConfig struct {
	Fallback bool   `mapstructure:"fallback"`  // use Add/Remove Programs entries
	HiveFile string `mapstructure:"hive_file"` // offline SOFTWARE hive; empty means the live registry
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration into v. Tests pass a fresh viper.New().
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("toml")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "msipkg"))
	}
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variable overrides
	v.SetEnvPrefix("MSIPKG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Paths.DataDir = expandPath(cfg.Paths.DataDir)
	cfg.Paths.JournalFile = expandPath(cfg.Paths.JournalFile)
	cfg.Paths.LogFile = expandPath(cfg.Paths.LogFile)
	cfg.Paths.LogDir = expandPath(cfg.Paths.LogDir)
	cfg.Inventory.HiveFile = expandPath(cfg.Inventory.HiveFile)

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		homeDir = "."
	}
	dataDir := filepath.Join(homeDir, ".local", "share", "msipkg")

	v.SetDefault("paths.data_dir", dataDir)
	v.SetDefault("paths.journal_file", filepath.Join(dataDir, "journal.db"))
	v.SetDefault("paths.log_file", filepath.Join(dataDir, "msipkg.log"))
	v.SetDefault("paths.log_dir", filepath.Join(dataDir, "logs"))

	v.SetDefault("engine.msiexec", "msiexec")
	v.SetDefault("engine.msiinfo", "msiinfo")
	v.SetDefault("engine.reader", "auto")
	v.SetDefault("engine.log_mode", "voicewarmupx")

	v.SetDefault("inventory.fallback", false)
	v.SetDefault("inventory.hive_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.color", "auto")
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}

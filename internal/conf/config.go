// config.go: settings struct and functions to load and save the Qa-Hub configuration.
package conf

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled  bool         // true to enable this log
	Path     string       // path to the log file
	Rotation RotationType // type of log rotation
	MaxSize  int64        // max size in bytes for RotationSize
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// MainSettings contains general application settings
type MainSettings struct {
	Name string    // name of this Qa-Hub instance
	Log  LogConfig // main log settings
}

// WebServerSettings contains settings for the HTTP API server
type WebServerSettings struct {
	Enabled   bool      // true to enable the API server
	Port      string    // port to listen on
	AuthToken string    // bearer token required on mutating endpoints; empty disables auth
	Log       LogConfig // web server log settings
}

// SQLiteSettings contains settings for the SQLite database
type SQLiteSettings struct {
	Enabled bool   // true to enable the SQLite store
	Path    string // path to the database file
}

// MySQLSettings contains settings for the MySQL database
type MySQLSettings struct {
	Enabled  bool   // true to enable the MySQL store
	Username string // username for the database
	Password string // password for the database
	Database string // database name
	Host     string // host of the database
	Port     string // port of the database
}

// OutputSettings selects the persistence backend
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// ImportSettings contains defaults for CSV/TSV import
type ImportSettings struct {
	DefaultSeverity string // severity assigned to rows with a blank severity cell
	ListSeparator   string // multi-value separator inside label cells
}

// DedupeSettings tunes how duplicate scans are presented. The grouping
// threshold itself is fixed; this only trims which groups are shown.
type DedupeSettings struct {
	Threshold float64 // minimum group score included in scan results
}

// Settings contains all configuration options for Qa-Hub
type Settings struct {
	Debug bool // true to enable debug logging

	Main      MainSettings
	WebServer WebServerSettings
	Output    OutputSettings
	Import    ImportSettings
	Dedupe    DedupeSettings

	// Set from build info at startup, not read from the config file.
	Version   string `yaml:"-" mapstructure:"-"`
	BuildDate string `yaml:"-" mapstructure:"-"`
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("QAHUB")
	viper.AutomaticEnv()

	// Defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes a config file populated with the current
// defaults to the first default config path.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	defaults := &Settings{}
	if err := viper.Unmarshal(defaults); err != nil {
		return fmt.Errorf("error unmarshaling defaults: %w", err)
	}
	data, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("error marshaling default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, loading them once if needed.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SetTestSettings injects a settings instance, for tests only.
func SetTestSettings(settings *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = settings
}

// GetDefaultConfigPaths returns the default config file locations, in
// lookup order: working directory first, then the user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error resolving user config directory: %w", err)
	}
	return []string{".", filepath.Join(configDir, "qa-hub")}, nil
}

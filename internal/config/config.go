package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CliFlags holds the values of command-line flags.
type CliFlags struct {
	ConfigPath    string
	Jobs          []string
	JobsFile      string
	JenkinsHome   string
	BaseURL       string
	Capture       string
	Format        string
	ThemeName     string
	MetricsFile   string
	NoColor       bool
	Debug         bool
	MaxLineLength int

	// Flags to track if they were explicitly set by the user
	NoColorSet bool
	DebugSet   bool
}

// AppConfig represents the application's configuration from .buildchain.yaml.
type AppConfig struct {
	Jobs          []string `yaml:"jobs,omitempty"`
	JobsFile      string   `yaml:"jobs_file,omitempty"`
	JenkinsHome   string   `yaml:"jenkins_home,omitempty"`
	BaseURL       string   `yaml:"base_url,omitempty"`
	Capture       string   `yaml:"capture,omitempty"`
	Format        string   `yaml:"format,omitempty"`
	Theme         string   `yaml:"theme,omitempty"`
	MetricsFile   string   `yaml:"metrics_file,omitempty"`
	NoColor       bool     `yaml:"no_color"`
	Debug         bool     `yaml:"debug"`
	MaxLineLength int      `yaml:"max_line_length"` // In bytes
}

// Constants for default values.
const (
	ConfigFileName       = ".buildchain.yaml"
	EnvFileName          = ".env"
	DefaultFormat        = "auto"
	DefaultTheme         = "default"
	DefaultCapture       = "last-digit"
	DefaultMaxLineLength = 1 * 1024 * 1024 // 1MB
)

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Capture:       DefaultCapture,
		Format:        DefaultFormat,
		Theme:         DefaultTheme,
		MaxLineLength: DefaultMaxLineLength,
	}
}

// LoadConfig loads the configuration file at path, or the first
// .buildchain.yaml found by getConfigPath when path is empty. It returns the
// defaults and an empty path when no file is found. An explicit path that
// does not exist is an error.
func LoadConfig(path string) (*AppConfig, string, error) {
	appCfg := defaultAppConfig()

	if path == "" {
		path = getConfigPath()
		if path == "" {
			return appCfg, "", nil
		}
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, path, fmt.Errorf("read config %s: %w", path, err)
	}

	var fileCfg AppConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, path, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Merge file settings onto the defaults
	if len(fileCfg.Jobs) > 0 {
		appCfg.Jobs = fileCfg.Jobs
	}
	if fileCfg.JobsFile != "" {
		appCfg.JobsFile = resolveRelative(path, fileCfg.JobsFile)
	}
	if fileCfg.JenkinsHome != "" {
		appCfg.JenkinsHome = resolveRelative(path, fileCfg.JenkinsHome)
	}
	if fileCfg.MetricsFile != "" {
		appCfg.MetricsFile = resolveRelative(path, fileCfg.MetricsFile)
	}
	if fileCfg.BaseURL != "" {
		appCfg.BaseURL = fileCfg.BaseURL
	}
	if fileCfg.Capture != "" {
		appCfg.Capture = fileCfg.Capture
	}
	if fileCfg.Format != "" {
		appCfg.Format = fileCfg.Format
	}
	if fileCfg.Theme != "" {
		appCfg.Theme = fileCfg.Theme
	}
	if fileCfg.MaxLineLength > 0 {
		appCfg.MaxLineLength = fileCfg.MaxLineLength
	}
	appCfg.NoColor = fileCfg.NoColor
	appCfg.Debug = fileCfg.Debug

	return appCfg, path, nil
}

// getConfigPath tries to find the .buildchain.yaml configuration file.
// It checks the local directory first, then UserConfigDir/buildchain.
func getConfigPath() string {
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}

	configHome, err := os.UserConfigDir()
	// An empty or root config dir is not usable for the per-user path.
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	userPath := filepath.Join(configHome, "buildchain", ConfigFileName)
	if _, err := os.Stat(userPath); err == nil {
		return userPath
	}
	return ""
}

// resolveRelative interprets p relative to the directory of the config file.
func resolveRelative(configPath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

// LoadEnvFile loads variables from path into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = EnvFileName
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

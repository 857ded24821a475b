package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/dkoosis/buildchain/pkg/annotate"
)

// Source values recorded in ResolvedConfig.
const (
	SourceCLI     = "cli"
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceDefault = "default"
)

// Environment variable names.
const (
	EnvJobsFile    = "BUILDCHAIN_JOBS_FILE"
	EnvJenkinsHome = "BUILDCHAIN_JENKINS_HOME"
	EnvBaseURL     = "BUILDCHAIN_BASE_URL"
	EnvCapture     = "BUILDCHAIN_CAPTURE"
	EnvFormat      = "BUILDCHAIN_FORMAT"
	EnvTheme       = "BUILDCHAIN_THEME"
	EnvNoColor     = "BUILDCHAIN_NO_COLOR"
	EnvDebug       = "BUILDCHAIN_DEBUG"
	EnvMetricsFile = "BUILDCHAIN_METRICS_FILE"
)

var (
	validFormats = []string{"auto", "html", "terminal", "json", "plain"}
	validThemes  = []string{"default", "orca", "mono"}
)

// ResolvedConfig holds the final configuration after applying all priority rules.
type ResolvedConfig struct {
	// Job sources
	Jobs        []string
	JobsFile    string
	JenkinsHome string

	// Annotation
	BaseURL string
	Capture annotate.Capture

	// Presentation
	Format  string
	Theme   string
	NoColor bool

	Debug         bool
	MetricsFile   string
	MaxLineLength int
	ConfigPath    string // empty when no config file was found

	// Resolution metadata (for debugging)
	FormatSource  string
	ThemeSource   string
	CaptureSource string
	NoColorSource string
}

// HasJobSource reports whether any source of job names is configured.
func (c *ResolvedConfig) HasJobSource() bool {
	return len(c.Jobs) > 0 || c.JobsFile != "" || c.JenkinsHome != ""
}

// ResolveConfig resolves configuration from all sources with explicit
// priority order: CLI flags, then environment, then the config file, then
// defaults.
func ResolveConfig(cliFlags CliFlags) (*ResolvedConfig, error) {
	appCfg, path, err := LoadConfig(cliFlags.ConfigPath)
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedConfig{
		Jobs:          appCfg.Jobs,
		MaxLineLength: appCfg.MaxLineLength,
		ConfigPath:    path,
	}
	if cliFlags.MaxLineLength > 0 {
		resolved.MaxLineLength = cliFlags.MaxLineLength
	}
	if len(cliFlags.Jobs) > 0 {
		resolved.Jobs = cliFlags.Jobs
	}

	resolved.JobsFile, _ = resolveString(cliFlags.JobsFile, EnvJobsFile, appCfg.JobsFile, "")
	resolved.JenkinsHome, _ = resolveString(cliFlags.JenkinsHome, EnvJenkinsHome, appCfg.JenkinsHome, "")
	resolved.BaseURL, _ = resolveString(cliFlags.BaseURL, EnvBaseURL, appCfg.BaseURL, "")
	resolved.MetricsFile, _ = resolveString(cliFlags.MetricsFile, EnvMetricsFile, appCfg.MetricsFile, "")
	resolved.Format, resolved.FormatSource = resolveString(cliFlags.Format, EnvFormat, appCfg.Format, DefaultFormat)
	resolved.Theme, resolved.ThemeSource = resolveString(cliFlags.ThemeName, EnvTheme, appCfg.Theme, DefaultTheme)

	capture, captureSource := resolveString(cliFlags.Capture, EnvCapture, appCfg.Capture, DefaultCapture)
	resolved.CaptureSource = captureSource
	resolved.Capture, err = annotate.ParseCapture(capture)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Resolve NoColor with priority: CLI > ENV > file
	resolved.NoColor, resolved.NoColorSource = false, SourceDefault
	if cliFlags.NoColorSet {
		resolved.NoColor, resolved.NoColorSource = cliFlags.NoColor, SourceCLI
	} else if envNoColor := getEnvBool(EnvNoColor); envNoColor != nil {
		resolved.NoColor, resolved.NoColorSource = *envNoColor, SourceEnv
	} else if os.Getenv("NO_COLOR") != "" {
		// NO_COLOR disables color when set to any non-empty value.
		resolved.NoColor, resolved.NoColorSource = true, SourceEnv
	} else if appCfg.NoColor {
		resolved.NoColor, resolved.NoColorSource = true, SourceFile
	}

	// Resolve Debug with priority: CLI > ENV > file
	resolved.Debug = appCfg.Debug
	if cliFlags.DebugSet {
		resolved.Debug = cliFlags.Debug
	} else if envDebug := getEnvBool(EnvDebug); envDebug != nil {
		resolved.Debug = *envDebug
	}

	// NoColor implies the monochrome theme
	if resolved.NoColor {
		resolved.Theme = "mono"
	}

	if err := validateResolvedConfig(resolved); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return resolved, nil
}

// resolveString returns the first non-empty of cli, the env variable, and
// file, with its source. A file value equal to def counts as the default.
func resolveString(cli, envKey, file, def string) (string, string) {
	if cli != "" {
		return cli, SourceCLI
	}
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v, SourceEnv
	}
	if file != "" && file != def {
		return file, SourceFile
	}
	return def, SourceDefault
}

// getEnvBool reads a boolean from environment variables, trying multiple keys.
// Returns nil if none are set, or a pointer to the boolean value.
func getEnvBool(keys ...string) *bool {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				return &b
			}
		}
	}
	return nil
}

// validateResolvedConfig validates the resolved configuration and returns errors for invalid states.
func validateResolvedConfig(cfg *ResolvedConfig) error {
	if !slices.Contains(validFormats, cfg.Format) {
		return fmt.Errorf("invalid format value: %s (must be: %s)", cfg.Format, strings.Join(validFormats, ", "))
	}
	if !slices.Contains(validThemes, cfg.Theme) {
		return fmt.Errorf("invalid theme value: %s (must be: %s)", cfg.Theme, strings.Join(validThemes, ", "))
	}
	if cfg.MaxLineLength <= 0 {
		return fmt.Errorf("max_line_length must be positive, got: %d", cfg.MaxLineLength)
	}
	return nil
}

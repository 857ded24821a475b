package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/dkoosis/buildchain/pkg/annotate"
)

func TestResolveConfig_PriorityOrder(t *testing.T) {
	tests := []struct {
		name              string
		cliFlags          CliFlags
		envVars           map[string]string
		file              string
		wantFormat        string
		wantFormatSource  string
		wantNoColorSource string
	}{
		{
			name:             "defaults when nothing set",
			wantFormat:       "auto",
			wantFormatSource: SourceDefault,
		},
		{
			name:             "file has priority over defaults",
			file:             "format: html\n",
			wantFormat:       "html",
			wantFormatSource: SourceFile,
		},
		{
			name:             "env has priority over file",
			file:             "format: html\n",
			envVars:          map[string]string{EnvFormat: "json"},
			wantFormat:       "json",
			wantFormatSource: SourceEnv,
		},
		{
			name:             "CLI has priority over env",
			cliFlags:         CliFlags{Format: "plain"},
			envVars:          map[string]string{EnvFormat: "json"},
			wantFormat:       "plain",
			wantFormatSource: SourceCLI,
		},
		{
			name:              "CLI no-color has priority over env",
			cliFlags:          CliFlags{NoColor: false, NoColorSet: true},
			envVars:           map[string]string{"NO_COLOR": "1"},
			wantFormat:        "auto",
			wantFormatSource:  SourceDefault,
			wantNoColorSource: SourceCLI,
		},
		{
			name:              "NO_COLOR env over file",
			envVars:           map[string]string{"NO_COLOR": "1"},
			file:              "no_color: false\n",
			wantFormat:        "auto",
			wantFormatSource:  SourceDefault,
			wantNoColorSource: SourceEnv,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := isolate(t)
			if tt.file != "" {
				writeFile(t, filepath.Join(tempDir, ConfigFileName), tt.file)
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			resolved, err := ResolveConfig(tt.cliFlags)
			if err != nil {
				t.Fatalf("ResolveConfig() error = %v", err)
			}
			if resolved.Format != tt.wantFormat {
				t.Errorf("Format = %v, want %v", resolved.Format, tt.wantFormat)
			}
			if resolved.FormatSource != tt.wantFormatSource {
				t.Errorf("FormatSource = %v, want %v", resolved.FormatSource, tt.wantFormatSource)
			}
			if tt.wantNoColorSource != "" && resolved.NoColorSource != tt.wantNoColorSource {
				t.Errorf("NoColorSource = %v, want %v", resolved.NoColorSource, tt.wantNoColorSource)
			}
		})
	}
}

func TestResolveConfig_ResolvesAllFields(t *testing.T) {
	tempDir := isolate(t)
	writeFile(t, filepath.Join(tempDir, ConfigFileName), `
jobs: [foo]
jenkins_home: /srv/jenkins
capture: first-number
theme: orca
`)
	t.Setenv(EnvBaseURL, "https://ci.example.com")
	t.Setenv(EnvDebug, "true")

	resolved, err := ResolveConfig(CliFlags{
		Jobs:        []string{"job03", "m02"},
		MetricsFile: "out.prom",
	})
	if err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}

	if len(resolved.Jobs) != 2 || resolved.Jobs[0] != "job03" {
		t.Errorf("CLI jobs should replace file jobs, got %v", resolved.Jobs)
	}
	if resolved.JenkinsHome != "/srv/jenkins" {
		t.Errorf("JenkinsHome = %q", resolved.JenkinsHome)
	}
	if resolved.BaseURL != "https://ci.example.com" {
		t.Errorf("BaseURL = %q", resolved.BaseURL)
	}
	if resolved.Capture != annotate.CaptureFirstNumber || resolved.CaptureSource != SourceFile {
		t.Errorf("Capture = %v from %s", resolved.Capture, resolved.CaptureSource)
	}
	if resolved.Theme != "orca" || resolved.ThemeSource != SourceFile {
		t.Errorf("Theme = %q from %s", resolved.Theme, resolved.ThemeSource)
	}
	if !resolved.Debug {
		t.Error("expected debug from env")
	}
	if resolved.MetricsFile != "out.prom" {
		t.Errorf("MetricsFile = %q", resolved.MetricsFile)
	}
	if resolved.ConfigPath != ConfigFileName {
		t.Errorf("ConfigPath = %q", resolved.ConfigPath)
	}
	if !resolved.HasJobSource() {
		t.Error("expected a job source")
	}
}

func TestResolveConfig_NoColorSelectsMonoTheme(t *testing.T) {
	isolate(t)

	resolved, err := ResolveConfig(CliFlags{ThemeName: "orca", NoColor: true, NoColorSet: true})
	if err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}
	if resolved.Theme != "mono" {
		t.Errorf("Theme = %q, want mono", resolved.Theme)
	}
}

func TestResolveConfig_Validation(t *testing.T) {
	tests := []struct {
		name     string
		cliFlags CliFlags
		wantErr  string
	}{
		{name: "invalid format", cliFlags: CliFlags{Format: "xml"}, wantErr: "invalid format value"},
		{name: "invalid theme", cliFlags: CliFlags{ThemeName: "neon"}, wantErr: "invalid theme value"},
		{name: "invalid capture", cliFlags: CliFlags{Capture: "all"}, wantErr: "unknown capture mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			_, err := ResolveConfig(tt.cliFlags)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolveConfig_HasNoJobSource_When_NothingConfigured(t *testing.T) {
	isolate(t)

	resolved, err := ResolveConfig(CliFlags{})
	if err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}
	if resolved.HasJobSource() {
		t.Errorf("expected no job source, got %+v", resolved)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("BC_TEST_A", "")
	t.Setenv("BC_TEST_B", "false")

	got := getEnvBool("BC_TEST_A", "BC_TEST_B")
	if got == nil || *got {
		t.Fatalf("expected false from second key, got %v", got)
	}

	t.Setenv("BC_TEST_B", "not-a-bool")
	if got := getEnvBool("BC_TEST_B"); got != nil {
		t.Errorf("expected nil for unparsable value, got %v", *got)
	}
}

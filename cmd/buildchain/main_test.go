package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const consoleLog = "Started by user admin\n" +
	"Triggering a new build of job03 #4\n" +
	"Waiting for m02\n" +
	"Finished: SUCCESS\n"

// sandbox runs the test in an empty directory with no buildchain environment.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	for _, key := range []string{
		"BUILDCHAIN_JOBS_FILE", "BUILDCHAIN_JENKINS_HOME", "BUILDCHAIN_BASE_URL",
		"BUILDCHAIN_CAPTURE", "BUILDCHAIN_FORMAT", "BUILDCHAIN_THEME",
		"BUILDCHAIN_NO_COLOR", "BUILDCHAIN_DEBUG", "BUILDCHAIN_METRICS_FILE", "NO_COLOR",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	sandbox(t)

	code, out, _ := runCLI(t, "", "version")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "buildchain version ")
	assert.Contains(t, out, "Commit: ")
}

func TestRun_Help_ExitsZero(t *testing.T) {
	sandbox(t)

	code, out, _ := runCLI(t, "", "--help")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "annotate")
	assert.Contains(t, out, "resolve")
}

func TestRun_ReturnsUsageError_When_CommandUnknown(t *testing.T) {
	sandbox(t)

	code, _, errOut := runCLI(t, "", "frobnicate")

	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "buildchain:")
}

func TestRun_Annotate_FromStdin_PlainFormat(t *testing.T) {
	sandbox(t)

	code, out, errOut := runCLI(t, consoleLog, "annotate", "-j", "job03", "-j", "m02", "--format", "plain")

	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "Started by user admin\n"+
		"Triggering a new build of job03 #4 -> /job/job03/4/console\n"+
		"Waiting for m02\n"+
		"Finished: SUCCESS\n"+
		"LINKS: 1/4 job03=1\n", out)
}

func TestRun_Annotate_FromFile_HTMLFormat(t *testing.T) {
	dir := sandbox(t)
	logPath := filepath.Join(dir, "console.log")
	write(t, logPath, consoleLog)

	code, out, errOut := runCLI(t, "", "annotate", "-j", "job03", "--base-url", "https://ci.example.com", logPath)

	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasPrefix(out, `<pre class="console-output">`), out)
	assert.Contains(t, out, `<a href="https://ci.example.com/job/job03/4/console">Triggering a new build of job03 #4`)
	assert.True(t, strings.HasSuffix(out, "</pre>\n"), out)
}

func TestRun_Annotate_UsesConfigFile(t *testing.T) {
	dir := sandbox(t)
	write(t, filepath.Join(dir, ".buildchain.yaml"), "jobs_file: jobs.toml\nformat: json\ncapture: first-number\n")
	write(t, filepath.Join(dir, "jobs.toml"), "jobs = [\"job03\"]\n")

	code, out, errOut := runCLI(t, "Triggering a new build of job03 #12\n", "annotate")

	require.Equal(t, 0, code, errOut)
	var line struct {
		Line  int    `json:"line"`
		Job   string `json:"job"`
		Build int    `json:"build"`
		URL   string `json:"url"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &line))
	assert.Equal(t, 1, line.Line)
	assert.Equal(t, "job03", line.Job)
	assert.Equal(t, 12, line.Build)
	assert.Equal(t, "/job/job03/12/console", line.URL)
}

func TestRun_Annotate_JenkinsBuild(t *testing.T) {
	dir := sandbox(t)
	home := filepath.Join(dir, "jenkins")
	write(t, filepath.Join(home, "jobs", "main", "builds", "12", "log"), consoleLog)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "jobs", "job03"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, "jobs", "m02"), 0o755))

	code, out, errOut := runCLI(t, "", "annotate", "--jenkins-home", home, "--build", "main#12", "--format", "plain")

	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "job03 #4 -> /job/job03/4/console\n")
	assert.Contains(t, out, "LINKS: 1/4 job03=1\n")
}

func TestRun_Annotate_WritesMetricsFile(t *testing.T) {
	dir := sandbox(t)
	metricsPath := filepath.Join(dir, "buildchain.prom")

	code, _, errOut := runCLI(t, consoleLog, "annotate", "-j", "job03", "--format", "plain", "--metrics-file", metricsPath)

	require.Equal(t, 0, code, errOut)
	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "buildchain_lines_total 4")
	assert.Contains(t, string(data), `buildchain_links_total{job="job03"} 1`)
	assert.Contains(t, string(data), `buildchain_resolve_total{outcome="filtered"} 1`)
}

func TestRun_Annotate_LogsDebug_When_DebugFlag(t *testing.T) {
	sandbox(t)

	code, _, errOut := runCLI(t, consoleLog, "--debug", "annotate", "-j", "job03", "--format", "plain")

	require.Equal(t, 0, code)
	assert.Contains(t, errOut, "level=DEBUG")
	assert.Contains(t, errOut, "linked build")
	assert.Contains(t, errOut, "job=job03")
}

func TestRun_Annotate_UsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no jobs", args: []string{"annotate"}, wantErr: "no jobs configured"},
		{name: "bad format", args: []string{"annotate", "-j", "x", "--format", "xml"}, wantErr: "invalid format value"},
		{name: "bad capture", args: []string{"annotate", "-j", "x", "--capture", "all"}, wantErr: "unknown capture mode"},
		{name: "missing log", args: []string{"annotate", "-j", "x", "does-not-exist.log"}, wantErr: "log:"},
		{name: "build without home", args: []string{"annotate", "-j", "x", "--build", "main#1"}, wantErr: "--build requires --jenkins-home"},
		{name: "missing jobs file", args: []string{"annotate", "--jobs-file", "nope.yaml"}, wantErr: "nope.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sandbox(t)

			code, _, errOut := runCLI(t, "", tt.args...)

			assert.Equal(t, 2, code)
			assert.Contains(t, errOut, tt.wantErr)
		})
	}
}

func TestRun_Resolve_PrintsUsedJobs(t *testing.T) {
	dir := sandbox(t)
	write(t, filepath.Join(dir, "jobs.yaml"), "- foo\n- bar\n- baz\n- m02\n- job03\n")

	code, out, errOut := runCLI(t, consoleLog, "resolve", "--jobs-file", filepath.Join(dir, "jobs.yaml"))

	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "m02\njob03\n", out)
}

func TestRun_View_RequiresTerminal(t *testing.T) {
	sandbox(t)

	code, _, errOut := runCLI(t, consoleLog, "view", "-j", "job03")

	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "view needs a terminal")
}

func TestRun_Follow_RequiresFile(t *testing.T) {
	sandbox(t)

	code, _, errOut := runCLI(t, consoleLog, "follow", "-j", "job03")

	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "follow needs a LOG file")
}

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_Follow_LinksJobsFirstMentionedInAppendedLines(t *testing.T) {
	dir := sandbox(t)
	logPath := filepath.Join(dir, "console.log")
	write(t, logPath, "Started\nTriggering a new build of job03 #4\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"follow", "-j", "job03", "-j", "m02", "--format", "plain", logPath},
			strings.NewReader(""), &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "job03 #4 -> /job/job03/4/console")
	}, 5*time.Second, 20*time.Millisecond)

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("Triggering a new build of m02 #7\nFinished: SUCCESS\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "Finished: SUCCESS\n")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, 0, code, stderr.String())
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not stop after cancel")
	}
	out := stdout.String()
	assert.Contains(t, out, "Triggering a new build of m02 #7 -> /job/m02/7/console\n")
	assert.Contains(t, out, "LINKS: 2/4 job03=1 m02=1\n")
}

func TestParseBuildRef(t *testing.T) {
	job, n, err := parseBuildRef("folder/main#42")
	require.NoError(t, err)
	assert.Equal(t, "folder/main", job)
	assert.Equal(t, 42, n)

	for _, bad := range []string{"main", "#4", "main#x", "main#-1"} {
		_, _, err := parseBuildRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestResolveFormat_UsesHTML_When_NotTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, "html", resolveFormat("auto", &buf))
	assert.Equal(t, "json", resolveFormat("json", &buf))
}

// failingWriter accepts limit writes and then fails every write.
type failingWriter struct {
	limit  int
	writes int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > w.limit {
		return 0, errors.New("write |1: broken pipe")
	}
	return len(p), nil
}

func TestRun_Annotate_StopsAndFails_When_OutputClosed(t *testing.T) {
	sandbox(t)

	stdout := &failingWriter{limit: 1}
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"annotate", "-j", "job03", "--format", "plain"},
		strings.NewReader(consoleLog), stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Equal(t, 2, stdout.writes)
	assert.Contains(t, stderr.String(), "broken pipe")
}

func TestRun_Resolve_Fails_When_OutputClosed(t *testing.T) {
	sandbox(t)

	stdout := &failingWriter{}
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"resolve", "-j", "job03", "-j", "m02"},
		strings.NewReader(consoleLog), stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Equal(t, 1, stdout.writes)
	assert.Contains(t, stderr.String(), "write output")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dkoosis/buildchain/internal/config"
	"github.com/dkoosis/buildchain/internal/logfields"
	"github.com/dkoosis/buildchain/internal/metrics"
	"github.com/dkoosis/buildchain/internal/version"
	"github.com/dkoosis/buildchain/pkg/annotate"
	"github.com/dkoosis/buildchain/pkg/buildlog"
	"github.com/dkoosis/buildchain/pkg/jobs"
	"github.com/dkoosis/buildchain/pkg/markup"
	"github.com/dkoosis/buildchain/pkg/render"
	"github.com/dkoosis/buildchain/pkg/viewer"
)

// CLI defines the command line. Global flags apply to every command.
type CLI struct {
	Config string `short:"c" help:"Configuration file path (default: .buildchain.yaml)"`
	Debug  bool   `help:"Enable debug logging"`

	Annotate AnnotateCmd `cmd:"" help:"Annotate a build log and print it"`
	Resolve  ResolveCmd  `cmd:"" help:"Print the known jobs mentioned in a build log"`
	Follow   FollowCmd   `cmd:"" help:"Annotate a growing build log until interrupted; every known job is linked"`
	View     ViewCmd     `cmd:"" help:"Browse an annotated build log interactively"`
	Version  VersionCmd  `cmd:"" help:"Show version and exit"`
}

// SourceFlags select the known jobs and the build log.
type SourceFlags struct {
	Jobs          []string `short:"j" name:"job" sep:"none" help:"Known job name (repeatable)"`
	JobsFile      string   `name:"jobs-file" help:"YAML or TOML file listing job names"`
	JenkinsHome   string   `name:"jenkins-home" help:"Jenkins home; job names come from its jobs/ directory"`
	Build         string   `name:"build" placeholder:"JOB#NUMBER" help:"Read this build's log under --jenkins-home instead of LOG"`
	MaxLineLength int      `name:"max-line-length" help:"Maximum console line length in bytes"`
}

func (f SourceFlags) apply(flags *config.CliFlags) {
	flags.Jobs = f.Jobs
	flags.JobsFile = f.JobsFile
	flags.JenkinsHome = f.JenkinsHome
	flags.MaxLineLength = f.MaxLineLength
}

// AnnotateFlags control link generation and presentation.
type AnnotateFlags struct {
	BaseURL     string `name:"base-url" help:"Prefix for generated links, e.g. https://ci.example.com"`
	Capture     string `help:"Build number capture: last-digit or first-number"`
	Theme       string `help:"Theme: default, orca, mono"`
	NoColor     bool   `name:"no-color" help:"Disable colors and hyperlinks"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this file on exit"`
}

func (f AnnotateFlags) apply(flags *config.CliFlags) {
	flags.BaseURL = f.BaseURL
	flags.Capture = f.Capture
	flags.ThemeName = f.Theme
	flags.MetricsFile = f.MetricsFile
	flags.NoColor, flags.NoColorSet = f.NoColor, f.NoColor
}

// App carries process-level state into command Run methods.
type App struct {
	ctx     context.Context
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	globals *CLI
}

// session is the per-command state derived from the resolved configuration.
type session struct {
	cfg      *config.ResolvedConfig
	logger   *slog.Logger
	registry jobs.Registry
	recorder metrics.Recorder
	prom     *metrics.PrometheusRecorder // nil unless a metrics file is configured
}

// setup resolves configuration, logging, job registry and metrics.
func (app *App) setup(flags config.CliFlags) (*session, error) {
	if err := config.LoadEnvFile(""); err != nil {
		return nil, &usageError{err: err}
	}
	flags.ConfigPath = app.globals.Config
	flags.Debug, flags.DebugSet = app.globals.Debug, app.globals.Debug

	cfg, err := config.ResolveConfig(flags)
	if err != nil {
		return nil, &usageError{err: err}
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(app.stderr, &slog.HandlerOptions{Level: level}))

	registry, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, logger: logger, registry: registry, recorder: metrics.NoopRecorder{}}
	if cfg.MetricsFile != "" {
		s.prom = metrics.NewPrometheusRecorder(nil)
		s.recorder = s.prom
	}

	logger.Debug("configuration resolved",
		logfields.Path(cfg.ConfigPath),
		logfields.Count(len(registry.Names())),
		logfields.Capture(cfg.Capture.String()),
		slog.String("format", cfg.Format),
		slog.String("format_source", cfg.FormatSource),
		slog.String("theme", cfg.Theme),
		slog.String("theme_source", cfg.ThemeSource))
	return s, nil
}

func loadRegistry(cfg *config.ResolvedConfig) (jobs.Registry, error) {
	if !cfg.HasJobSource() {
		return nil, usagef("no jobs configured: use --job, --jobs-file or --jenkins-home")
	}
	regs := []jobs.Registry{jobs.NewStatic(cfg.Jobs...)}
	if cfg.JobsFile != "" {
		reg, err := jobs.LoadFile(cfg.JobsFile)
		if err != nil {
			return nil, &usageError{err: err}
		}
		regs = append(regs, reg)
	}
	if cfg.JenkinsHome != "" {
		reg, err := jobs.LoadDir(cfg.JenkinsHome)
		if err != nil {
			return nil, &usageError{err: err}
		}
		regs = append(regs, reg)
	}
	return jobs.Concat(regs...), nil
}

// openBuild selects the build from --build, a LOG path, or stdin.
func (s *session) openBuild(logArg, buildRef string, stdin io.Reader) (buildlog.Build, error) {
	switch {
	case buildRef != "" && logArg != "":
		return nil, usagef("LOG and --build are mutually exclusive")
	case buildRef != "":
		if s.cfg.JenkinsHome == "" {
			return nil, usagef("--build requires --jenkins-home")
		}
		job, number, err := parseBuildRef(buildRef)
		if err != nil {
			return nil, &usageError{err: err}
		}
		b := buildlog.Jenkins(s.cfg.JenkinsHome, job, number)
		if _, err := os.Stat(b.Path()); err != nil {
			return nil, usagef("build %s: %w", b.ID(), err)
		}
		return b, nil
	case logArg == "" || logArg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, usagef("reading stdin: %w", err)
		}
		return buildlog.NewBytes("stdin", data), nil
	default:
		if _, err := os.Stat(logArg); err != nil {
			return nil, usagef("log: %w", err)
		}
		return buildlog.NewFile("", logArg), nil
	}
}

// parseBuildRef splits "JOB#NUMBER".
func parseBuildRef(ref string) (string, int, error) {
	i := strings.LastIndex(ref, "#")
	if i <= 0 {
		return "", 0, fmt.Errorf("invalid build %q (expected JOB#NUMBER)", ref)
	}
	n, err := strconv.Atoi(ref[i+1:])
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("invalid build number in %q", ref)
	}
	return ref[:i], n, nil
}

func (s *session) annotator(b buildlog.Build) *annotate.Annotator {
	resolver := annotate.NewResolver(s.registry,
		annotate.WithLogger(s.logger), annotate.WithMetrics(s.recorder))
	return annotate.New(resolver, b,
		annotate.WithCapture(s.cfg.Capture), annotate.WithBaseURL(s.cfg.BaseURL))
}

func (s *session) renderer(w io.Writer) (render.Renderer, error) {
	r, err := render.New(resolveFormat(s.cfg.Format, w), render.Options{
		Theme:      render.ThemeByName(s.cfg.Theme),
		Hyperlinks: !s.cfg.NoColor,
	})
	if err != nil {
		return nil, &usageError{err: err}
	}
	return r, nil
}

// finish writes the metrics file, if configured, and combines its error with err.
func (s *session) finish(err error) error {
	if s.prom == nil {
		return err
	}
	if werr := s.prom.WriteTextfile(s.cfg.MetricsFile); werr != nil {
		return errors.Join(err, werr)
	}
	s.logger.Debug("metrics written", logfields.Path(s.cfg.MetricsFile))
	return err
}

// emit returns a line callback writing rendered lines to w. A failed write
// stops the processor.
func emit(w io.Writer, r render.Renderer) annotate.LineCallback {
	return func(n int, t *markup.Text, ref *annotate.Reference) error {
		if _, err := io.WriteString(w, r.RenderLine(n, t, ref)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
}

// writeTrailer writes the renderer's closing output unless processing
// already failed, and returns the first error.
func writeTrailer(w io.Writer, r render.Renderer, err error) error {
	if err != nil {
		return err
	}
	if _, werr := io.WriteString(w, r.Finish()); werr != nil {
		return fmt.Errorf("write output: %w", werr)
	}
	return nil
}

// AnnotateCmd implements the 'annotate' command.
type AnnotateCmd struct {
	SourceFlags   `embed:""`
	AnnotateFlags `embed:""`
	Format        string `short:"f" help:"Output format: auto, html, terminal, json, plain"`
	Log           string `arg:"" optional:"" help:"Build log file; stdin when omitted or -"`
}

func (c *AnnotateCmd) Run(app *App) error {
	var flags config.CliFlags
	c.SourceFlags.apply(&flags)
	c.AnnotateFlags.apply(&flags)
	flags.Format = c.Format

	s, err := app.setup(flags)
	if err != nil {
		return err
	}
	b, err := s.openBuild(c.Log, c.Build, app.stdin)
	if err != nil {
		return err
	}
	r, err := s.renderer(app.stdout)
	if err != nil {
		return err
	}

	rc, err := b.OpenLog()
	if err != nil {
		return s.finish(err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			s.logger.Warn("closing build log failed", logfields.Build(b.ID()), logfields.Error(cerr))
		}
	}()

	a := s.annotator(b)
	err = annotate.NewProcessor(s.cfg.MaxLineLength).Process(rc, a, emit(app.stdout, r))
	if err = writeTrailer(app.stdout, r, err); err != nil {
		err = fmt.Errorf("annotate %s: %w", b.ID(), err)
	}
	return s.finish(err)
}

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	SourceFlags `embed:""`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this file on exit"`
	Log         string `arg:"" optional:"" help:"Build log file; stdin when omitted or -"`
}

func (c *ResolveCmd) Run(app *App) error {
	var flags config.CliFlags
	c.SourceFlags.apply(&flags)
	flags.MetricsFile = c.MetricsFile

	s, err := app.setup(flags)
	if err != nil {
		return err
	}
	b, err := s.openBuild(c.Log, c.Build, app.stdin)
	if err != nil {
		return err
	}

	for _, name := range s.annotator(b).JobNames() {
		if _, err := fmt.Fprintln(app.stdout, name); err != nil {
			return s.finish(fmt.Errorf("write output: %w", err))
		}
	}
	return s.finish(nil)
}

// FollowCmd implements the 'follow' command.
type FollowCmd struct {
	SourceFlags   `embed:""`
	AnnotateFlags `embed:""`
	Format        string `short:"f" help:"Output format: auto, html, terminal, json, plain"`
	Log           string `arg:"" optional:"" help:"Build log file to follow"`
}

func (c *FollowCmd) Run(app *App) error {
	if (c.Log == "" || c.Log == "-") && c.Build == "" {
		return usagef("follow needs a LOG file or --build")
	}

	var flags config.CliFlags
	c.SourceFlags.apply(&flags)
	c.AnnotateFlags.apply(&flags)
	flags.Format = c.Format

	s, err := app.setup(flags)
	if err != nil {
		return err
	}
	b, err := s.openBuild(c.Log, c.Build, app.stdin)
	if err != nil {
		return err
	}
	file, ok := b.(*buildlog.File)
	if !ok {
		return usagef("follow needs a LOG file or --build")
	}
	r, err := s.renderer(app.stdout)
	if err != nil {
		return err
	}

	// The log is still growing, so its job names are not known up front.
	a := s.annotator(nil)
	proc := annotate.NewProcessor(s.cfg.MaxLineLength)
	onLine := emit(app.stdout, r)
	next := 1
	s.logger.Info("following build log", logfields.Build(b.ID()), logfields.Path(file.Path()), logfields.Session(a.Session()))

	err = buildlog.Follow(app.ctx, file.Path(), proc.MaxLineLength(), func(lines []string) error {
		var perr error
		next, perr = proc.ProcessLines(lines, next, a, onLine)
		return perr
	})
	if err = writeTrailer(app.stdout, r, err); err != nil {
		err = fmt.Errorf("follow %s: %w", b.ID(), err)
	}
	return s.finish(err)
}

// ViewCmd implements the 'view' command.
type ViewCmd struct {
	SourceFlags   `embed:""`
	AnnotateFlags `embed:""`
	Log           string `arg:"" optional:"" help:"Build log file; stdin when omitted or -"`
}

func (c *ViewCmd) Run(app *App) error {
	if !isTTYWriter(app.stdout) {
		return usagef("view needs a terminal; use annotate for redirected output")
	}

	var flags config.CliFlags
	c.SourceFlags.apply(&flags)
	c.AnnotateFlags.apply(&flags)

	s, err := app.setup(flags)
	if err != nil {
		return err
	}
	b, err := s.openBuild(c.Log, c.Build, app.stdin)
	if err != nil {
		return err
	}

	rc, err := b.OpenLog()
	if err != nil {
		return s.finish(err)
	}
	defer func() { _ = rc.Close() }()

	var lines viewer.Builder
	if err := annotate.NewProcessor(s.cfg.MaxLineLength).Process(rc, s.annotator(b), lines.Add); err != nil {
		return s.finish(fmt.Errorf("annotate %s: %w", b.ID(), err))
	}
	return s.finish(viewer.Run(app.ctx, b.ID(), lines.Lines(), render.ThemeByName(s.cfg.Theme)))
}

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	_, err := io.WriteString(app.stdout, version.String("buildchain"))
	return err
}

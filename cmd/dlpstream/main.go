// dlpstream runs yt-dlp and turns its console output into a stream of events.
//
// Usage:
//
//	dlpstream [flags] [--] <yt-dlp args...>
//	dlpstream render [--format text|json] < events.ndjson
//	dlpstream version
//
// Output formats (auto-detected):
//
//	text  styled one-line-per-event output (default when stdout is a TTY)
//	json  one JSON event per line (default when piped)
//	tui   live progress view
//
// yt-dlp's stderr is passed through unchanged. The exit code is yt-dlp's own,
// 127 when it cannot be found, 2 for usage errors and 130 when interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dkoosis/dlpstream/internal/config"
	"github.com/dkoosis/dlpstream/internal/launcher"
	"github.com/dkoosis/dlpstream/internal/logging"
	"github.com/dkoosis/dlpstream/internal/version"
	"github.com/dkoosis/dlpstream/pkg/classify"
	"github.com/dkoosis/dlpstream/pkg/pipeline"
	"github.com/dkoosis/dlpstream/pkg/render"
)

const (
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), launcher.InterruptSignals()...)
	defer stop()

	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	var usage usageError
	switch {
	case err == nil:
		return a.code
	case errors.As(err, &usage):
		fmt.Fprintf(stderr, "dlpstream: %v\n", err)
		fmt.Fprintf(stderr, "Run 'dlpstream --help' for usage.\n")
		return exitUsage
	default:
		fmt.Fprintf(stderr, "dlpstream: %v\n", err)
		if a.code == 0 {
			return 1
		}
		return a.code
	}
}

// usageError marks errors caused by how dlpstream was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// app holds the streams and flag values for one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	flags      config.CliFlags
	renderAs   string

	// code is the process exit code once a command has run.
	code int
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "dlpstream [flags] [--] <yt-dlp args...>",
		Short: "Run yt-dlp and stream its output as events",
		Long: `dlpstream starts yt-dlp with the given arguments and classifies each line
of its output into an event: warning, error, already_exists, location,
progress, starting_playlist or playlist_index. Lines that match nothing are
dropped. yt-dlp's stderr is passed through unchanged.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError{errors.New("no yt-dlp arguments given")}
			}
			return nil
		},
		RunE:          a.download,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	// Everything after the first positional argument belongs to yt-dlp.
	root.Flags().SetInterspersed(false)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default is ./"+config.FileName+" or $XDG_CONFIG_HOME/dlpstream/"+config.FileName+")")
	pf.StringVar(&a.flags.Theme, "theme", "", "theme: default, mono")
	pf.BoolVar(&a.flags.NoColor, "no-color", false, "disable colors")
	pf.BoolVar(&a.flags.Debug, "debug", false, "enable debug logging")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "log level: off, debug, info, warn, error")
	pf.StringVar(&a.flags.LogFile, "log-file", "", "append JSON logs to this file")

	f := root.Flags()
	f.StringVar(&a.flags.Binary, "bin", "", "downloader executable (default \"yt-dlp\")")
	f.StringVar(&a.flags.Format, "format", "", "output format: auto, json, text, tui")
	f.IntVar(&a.flags.MaxLineLength, "max-line-length", 0, "maximum bytes in one output line")

	root.AddCommand(a.renderCommand(), a.versionCommand())
	return root
}

func (a *app) renderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a saved JSON event stream read from stdin",
		Args:  cobra.NoArgs,
		RunE:  a.render,
	}
	cmd.Flags().StringVar(&a.renderAs, "format", config.FormatText, "output format: text, json")
	return cmd
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := io.WriteString(a.stdout, version.String())
			return err
		},
	}
}

// loadConfig resolves file, environment and flag settings for cmd.
func (a *app) loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, usageError{err}
	}
	config.ApplyEnv(cfg)

	flags := a.flags
	flags.NoColorSet = cmd.Flags().Changed("no-color")
	flags.DebugSet = cmd.Flags().Changed("debug")
	cfg = config.MergeWithFlags(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return nil, usageError{err}
	}
	return cfg, nil
}

// newLogger builds the logger for cfg. Logs go to the log file when one is
// configured and to stderr otherwise, except in tui mode where stderr belongs
// to the terminal view.
func (a *app) newLogger(cfg *config.AppConfig, format string) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }
	if cfg.LogFile != "" {
		return logging.NewFile(cfg.LogFile, cfg.LogLevel)
	}
	if format == config.FormatTUI {
		return logging.Discard(), noop, nil
	}
	return logging.New(a.stderr, cfg.LogLevel), noop, nil
}

func (a *app) download(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	format := resolveFormat(cfg.Format, a.stdout)
	logger, closeLog, err := a.newLogger(cfg, format)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			fmt.Fprintf(a.stderr, "dlpstream: closing log: %v\n", cerr)
		}
	}()
	if cfg.Source != "" {
		logger.Debug("config loaded", "path", cfg.Source)
	}

	runner := pipeline.New(pipeline.Options{
		Binary:       cfg.Binary,
		DefaultArgs:  cfg.DefaultArgs,
		MaxChunkSize: cfg.MaxLineLength,
		Logger:       logger,
	})
	theme := selectTheme(cfg)

	var res *pipeline.Result
	switch format {
	case config.FormatTUI:
		opts := render.TUIOptions{
			Title:  strings.TrimSpace(cfg.Binary + " " + strings.Join(args, " ")),
			Theme:  theme,
			Input:  a.stdin,
			Output: a.stdout,
		}
		res, err = render.RunTUI(ctx, opts, func(ctx context.Context, sink classify.Sink, errOut io.Writer) (*pipeline.Result, error) {
			return runner.Run(ctx, sink, errOut, args...)
		})
	case config.FormatText:
		width, _ := termSize(a.stdout)
		res, err = runner.Run(ctx, render.NewText(a.stdout, theme, width), a.stderr, args...)
	default:
		res, err = runner.Run(ctx, classify.NewJSONSink(a.stdout), a.stderr, args...)
	}
	return a.finish(res, err)
}

// finish records the exit code for a pipeline result and decides whether err
// still needs reporting.
func (a *app) finish(res *pipeline.Result, err error) error {
	if res != nil {
		a.code = res.ExitCode
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.code = exitInterrupted
		return nil
	case errors.Is(err, pipeline.ErrNonZeroExit):
		// yt-dlp has already explained itself on stderr.
		return nil
	default:
		if a.code == 0 {
			a.code = 1
		}
		return err
	}
}

func (a *app) render(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	var sink classify.Sink
	switch strings.ToLower(a.renderAs) {
	case config.FormatText:
		width, _ := termSize(a.stdout)
		sink = render.NewText(a.stdout, selectTheme(cfg), width)
	case config.FormatJSON:
		sink = classify.NewJSONSink(a.stdout)
	default:
		return usageError{fmt.Errorf("unknown render format %q (expected text, json)", a.renderAs)}
	}

	malformed, err := replay(a.stdin, sink, cfg.MaxLineLength)
	if malformed > 0 {
		fmt.Fprintf(a.stderr, "dlpstream: warning: %d malformed line(s) skipped\n", malformed)
	}
	return err
}

func selectTheme(cfg *config.AppConfig) render.Theme {
	if cfg.NoColor {
		return render.MonoTheme()
	}
	return render.ThemeByName(cfg.Theme)
}

func resolveFormat(format string, w io.Writer) string {
	if format != config.FormatAuto {
		return format
	}
	if isTTYWriter(w) {
		return config.FormatText
	}
	return config.FormatJSON
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termSize returns the terminal dimensions for w, or zero when w is not a
// terminal.
func termSize(w io.Writer) (width, height int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, 0
	}
	if tw, th, err := term.GetSize(int(f.Fd())); err == nil {
		return tw, th
	}
	return 80, 24
}

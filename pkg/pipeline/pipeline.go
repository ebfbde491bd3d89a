// Package pipeline runs the downloader and turns its output into events.
//
// One invocation owns one child process. The child's stdout is decoded,
// split into chunks and classified into events delivered to a sink; its
// stderr is copied to the error writer byte for byte. Both copies run
// concurrently with the child and the call returns once the child has been
// reaped. Output still held open by descendants is cut off two seconds after
// the child exits.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/dkoosis/dlpstream/internal/launcher"
	"github.com/dkoosis/dlpstream/internal/logging"
	"github.com/dkoosis/dlpstream/pkg/classify"
)

// DefaultBinary is the downloader started when Options.Binary is empty.
const DefaultBinary = "yt-dlp"

var (
	// ErrStart is returned when the downloader could not be started.
	ErrStart = errors.New("starting downloader")
	// ErrStream is returned when copying stdout or stderr failed mid-run.
	ErrStream = errors.New("streaming downloader output")
	// ErrNonZeroExit is returned when the downloader exits with a non-zero code.
	// Use errors.As with ExitCodeError to read the code.
	ErrNonZeroExit = errors.New("downloader exited with non-zero code")
)

// ExitCodeError carries the downloader's exit code.
type ExitCodeError struct {
	Code int
}

func (e ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// Options configures a Runner.
type Options struct {
	// Binary is the downloader executable. Defaults to DefaultBinary.
	Binary string
	// DefaultArgs are placed before the per-run arguments.
	DefaultArgs []string
	// MaxChunkSize bounds one stdout chunk. Ignored when Classifier is set.
	MaxChunkSize int
	// Classifier overrides the default rule set.
	Classifier *classify.Classifier
	// Logger receives lifecycle records. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Result describes a finished invocation.
type Result struct {
	RunID    string
	Binary   string
	Args     []string
	Pid      int
	ExitCode int
	Events   int
	Duration time.Duration
}

// Runner starts downloader invocations. It is safe for concurrent use; every
// Run owns its own process and pipes.
type Runner struct {
	binary      string
	defaultArgs []string
	classifier  *classify.Classifier
	logger      *slog.Logger
}

// New creates a Runner from opts.
func New(opts Options) *Runner {
	r := &Runner{
		binary:      opts.Binary,
		defaultArgs: append([]string(nil), opts.DefaultArgs...),
		classifier:  opts.Classifier,
		logger:      opts.Logger,
	}
	if r.binary == "" {
		r.binary = DefaultBinary
	}
	if r.classifier == nil {
		r.classifier = classify.Default(classify.WithMaxChunkSize(opts.MaxChunkSize))
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	return r
}

// Run starts the default downloader with args, writes one JSON event per
// classified stdout chunk to out and copies stderr to errOut unchanged.
func Run(ctx context.Context, out, errOut io.Writer, args ...string) (*Result, error) {
	return New(Options{}).Run(ctx, classify.NewJSONSink(out), errOut, args...)
}

// Run starts the downloader with args and blocks until it has exited and
// both output streams are drained.
//
// Error semantics:
//   - (result, nil): the downloader exited 0.
//   - (result, ErrStart): the downloader could not be started; ExitCode is
//     127 when the executable was not found.
//   - (result, ErrStream): a copy failed (for example the sink returned an
//     error); the child is killed. Output already written is not rolled back.
//   - (result, ErrNonZeroExit): the downloader exited non-zero; the error
//     also wraps ExitCodeError.
//   - (result, ctx.Err()): ctx was cancelled and the child killed.
//
// The result is never nil.
func (r *Runner) Run(ctx context.Context, sink classify.Sink, errOut io.Writer, args ...string) (*Result, error) {
	if errOut == nil {
		errOut = io.Discard
	}
	fullArgs := make([]string, 0, len(r.defaultArgs)+len(args))
	fullArgs = append(fullArgs, r.defaultArgs...)
	fullArgs = append(fullArgs, args...)

	result := &Result{
		RunID:  uuid.NewString(),
		Binary: r.binary,
		Args:   fullArgs,
	}
	logger := r.logger.With("run_id", result.RunID, "binary", r.binary)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	started := time.Now()
	proc, err := launcher.Start(runCtx, r.binary, fullArgs)
	if err != nil {
		result.ExitCode = launcher.ExitCode(err)
		result.Duration = time.Since(started)
		logger.Debug("start failed", "error", err, "exit_code", result.ExitCode)
		return result, fmt.Errorf("%w: %w", ErrStart, err)
	}
	result.Pid = proc.Pid()
	logger.Debug("process started", "pid", result.Pid, "args", fullArgs)

	var events int
	p := pool.New().WithErrors()
	p.Go(func() error {
		defer proc.Stdout.Close()
		n, err := r.classifier.Transform(proc.Stdout, sink)
		events = n
		if err != nil {
			cancel()
			return fmt.Errorf("%w: stdout: %w", ErrStream, err)
		}
		return nil
	})
	p.Go(func() error {
		defer proc.Stderr.Close()
		if _, err := io.Copy(errOut, proc.Stderr); err != nil {
			cancel()
			return fmt.Errorf("%w: stderr: %w", ErrStream, err)
		}
		return nil
	})

	streamErr := p.Wait()
	code, waitErr := proc.Wait()
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		logger.Warn("output left open after exit", "pid", result.Pid)
		waitErr = nil
	}

	result.ExitCode = code
	result.Events = events
	result.Duration = time.Since(started)

	switch {
	case (streamErr != nil || waitErr != nil) && ctx.Err() != nil:
		logger.Info("run cancelled", "pid", result.Pid, "exit_code", code)
		return result, fmt.Errorf("downloader run cancelled: %w", ctx.Err())
	case streamErr != nil:
		logger.Warn("stream failed", "pid", result.Pid, "error", streamErr)
		return result, streamErr
	case waitErr != nil:
		logger.Info("process exited", "pid", result.Pid, "exit_code", code, "events", events)
		return result, fmt.Errorf("%w: %w", ErrNonZeroExit, ExitCodeError{Code: code})
	}

	logger.Debug("process exited", "pid", result.Pid, "exit_code", code, "events", events,
		"duration", result.Duration)
	return result, nil
}

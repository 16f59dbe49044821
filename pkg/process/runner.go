package process

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/logging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout bounds a run when the caller passes no timeout
	DefaultTimeout = 60 * time.Second

	waitDelay   = 2 * time.Second
	maxLineSize = 1024 * 1024
)

// Result holds the outcome of a finished process
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner starts external processes and captures their output
type Runner struct {
	// Dir is the working directory; empty means the current one
	Dir    string
	logger zerolog.Logger
}

// NewRunner creates a Runner
func NewRunner() *Runner {
	return &Runner{
		logger: logging.GetLogger("process"),
	}
}

// Run starts executable with args and waits for it to exit or for timeout
// to expire. On expiry the process is killed and an ErrTimeout error is
// returned. A non-zero exit status is not an error; check Result.ExitCode.
func (r *Runner) Run(ctx context.Context, executable string, args []string, timeout time.Duration) (Result, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, executable, args...)
	cmd.Dir = r.Dir
	cmd.WaitDelay = waitDelay

	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	r.logger.Debug().
		Str("executable", executable).
		Strs("args", args).
		Dur("timeout", timeout).
		Msg("Starting process")

	if err := cmd.Start(); err != nil {
		_ = stdoutW.Close()
		_ = stderrW.Close()
		return Result{}, errors.Wrapf(err, errors.ErrProcessStart, "cannot start %s", executable).
			WithDetail("executable", executable)
	}

	var stdout, stderr lineBuffer
	var g errgroup.Group
	g.Go(func() error { return stdout.consume(stdoutR) })
	g.Go(func() error { return stderr.consume(stderrR) })

	waitErr := cmd.Wait()
	_ = stdoutW.Close()
	_ = stderrW.Close()
	readErr := g.Wait()

	if stderrors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		r.logger.Warn().
			Str("executable", executable).
			Dur("timeout", timeout).
			Msg("Process timed out and was killed")
		return Result{}, errors.Newf(errors.ErrTimeout, "%s did not exit within %s", executable, timeout).
			WithDetail("executable", executable).
			WithDetail("timeout", timeout.String())
	}
	if ctx.Err() != nil {
		return Result{}, errors.Wrapf(ctx.Err(), errors.ErrInternal, "%s was cancelled", executable)
	}

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !stderrors.As(waitErr, &exitErr) {
			return result, errors.Wrapf(waitErr, errors.ErrInternal, "waiting for %s failed", executable)
		}
		result.ExitCode = exitErr.ExitCode()
	}
	if readErr != nil {
		return result, errors.Wrapf(readErr, errors.ErrInternal, "reading output of %s failed", executable)
	}

	r.logger.Debug().
		Str("executable", executable).
		Int("exitCode", result.ExitCode).
		Str("stdout", result.Stdout).
		Str("stderr", result.Stderr).
		Msg("Process finished")

	return result, nil
}

// lineBuffer collects lines from a stream in arrival order
type lineBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *lineBuffer) consume(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		b.mu.Lock()
		b.sb.WriteString(scanner.Text())
		b.sb.WriteByte('\n')
		b.mu.Unlock()
	}
	err := scanner.Err()
	if err != nil {
		// keep the writer side from blocking on a reader that gave up
		_, _ = io.Copy(io.Discard, r)
	}
	return err
}

func (b *lineBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

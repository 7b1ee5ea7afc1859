package engine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/duetcmp/duet/pkg/duet/logging"
	"github.com/duetcmp/duet/pkg/duet/types"
)

// Result is the single terminal event of an Invocation: exactly one of
// Report or Err is set.
type Result struct {
	Report *types.ScanReport
	Err    error
}

// Invocation is one running scan subprocess. Progress lines stream on
// Progress() while the process runs; exactly one Result is delivered on
// Done(). Cancel is cooperative: it signals the process and no result
// should be assumed to arrive afterwards.
type Invocation struct {
	cmd      *exec.Cmd
	progress chan string
	done     chan Result
	canceled atomic.Bool
}

// Scan starts an asynchronous scan invocation. The returned Invocation
// is already running; the caller must consume Done() exactly once.
func (e *Engine) Scan(left, right string, opts Options) (*Invocation, error) {
	logger := logging.Get("engine")

	cmd := exec.Command(e.path, e.ScanArgs(left, right, opts)...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stderr: %w", err)
	}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	inv := &Invocation{
		cmd:      cmd,
		progress: make(chan string, 64),
		done:     make(chan Result, 1),
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", e.path, err)
	}
	logger.Info("scan started", "left", left, "right", right, "pid", cmd.Process.Pid)

	var stderrTail strings.Builder
	drained := make(chan struct{})
	go func() {
		defer close(inv.progress)
		defer close(drained)
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			stderrTail.WriteString(line)
			stderrTail.WriteString("\n")
			select {
			case inv.progress <- line:
			default:
				// A slow consumer must not stall the engine.
			}
		}
	}()

	go func() {
		// Wait must not run until stderr is fully drained: the pipe is
		// closed by Wait, and stderrTail is only safe to read once the
		// scanner goroutine has exited.
		<-drained
		waitErr := cmd.Wait()
		inv.done <- e.finish(stdout.Bytes(), strings.TrimSpace(stderrTail.String()), waitErr, inv.canceled.Load())
		close(inv.done)
	}()

	return inv, nil
}

// finish turns process termination into the invocation's single Result.
func (e *Engine) finish(stdout []byte, stderr string, waitErr error, canceled bool) Result {
	logger := logging.Get("engine")

	if canceled {
		return Result{Err: fmt.Errorf("comparison canceled")}
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return Result{Err: fmt.Errorf("engine: %w", waitErr)}
		}
		if exitErr.ExitCode() != e.diffExitCode {
			logger.Error("scan failed", "code", exitErr.ExitCode(), "stderr", stderr)
			if stderr != "" {
				return Result{Err: fmt.Errorf("engine exited with code %d: %s", exitErr.ExitCode(), stderr)}
			}
			return Result{Err: fmt.Errorf("engine exited with code %d", exitErr.ExitCode())}
		}
		// The diff exit code means differences found, a successful scan.
	}

	report, err := types.ParseReport(stdout)
	if err != nil {
		logger.Error("scan output unparsable", "error", err)
		return Result{Err: err}
	}
	logger.Info("scan finished", "entries", len(report.Entries))
	return Result{Report: report}
}

// Progress streams the engine's stderr lines verbatim. The channel is
// closed when the process's stderr closes.
func (i *Invocation) Progress() <-chan string { return i.progress }

// Done delivers the invocation's single terminal Result.
func (i *Invocation) Done() <-chan Result { return i.done }

// Cancel requests termination of the running process. Repeated calls
// are no-ops; the first call disables further cancellation.
func (i *Invocation) Cancel() {
	if i.canceled.Swap(true) {
		return
	}
	if i.cmd.Process != nil {
		_ = i.cmd.Process.Kill()
	}
}

// Canceled reports whether Cancel has been requested.
func (i *Invocation) Canceled() bool { return i.canceled.Load() }

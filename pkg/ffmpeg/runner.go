package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Binary is the ffmpeg executable, resolved through PATH.
var Binary = "ffmpeg"

// stderrLimit bounds how much encoder chatter is retained per process.
const stderrLimit = 64 * 1024

// waitDelay is how long Wait keeps I/O pipes open after the process has
// been killed by context cancellation.
const waitDelay = 5 * time.Second

// Process represents a running ffmpeg process with lifecycle management.
type Process struct {
	cmd    *exec.Cmd
	pid    int
	done   chan struct{}
	err    error
	stderr *tailBuffer
}

// PID returns the process ID, or 0 if not started.
func (p *Process) PID() int {
	return p.pid
}

// Wait blocks until the process completes and returns any error.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Kill sends SIGKILL to the process.
func (p *Process) Kill() error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// Signal sends a signal to the process.
func (p *Process) Signal(sig os.Signal) error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(sig)
}

// Done returns a channel that closes when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Stderr returns the retained tail of stderr output.
func (p *Process) Stderr() string {
	return p.stderr.String()
}

// Start starts an ffmpeg process. Cancelling ctx kills the process; the
// resulting error then matches ctx.Err() under errors.Is.
// If progress is non-nil it receives parsed -progress updates and is closed
// when the process exits.
func Start(ctx context.Context, args []string, progress chan<- Progress) (*Process, error) {
	cmd := exec.CommandContext(ctx, Binary, args...)
	cmd.WaitDelay = waitDelay

	p := &Process{
		cmd:    cmd,
		done:   make(chan struct{}),
		stderr: &tailBuffer{limit: stderrLimit},
	}
	cmd.Stderr = p.stderr

	// The progress channel is owned by the process from here on; close it
	// on every early return so range loops over it terminate.
	fail := func(err error) (*Process, error) {
		if progress != nil {
			close(progress)
		}
		return nil, err
	}

	var scanner *bufio.Scanner
	if progress != nil {
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return fail(fmt.Errorf("ffmpeg: failed to create stdout pipe: %w", err))
		}
		scanner = bufio.NewScanner(stdout)
	}

	if err := cmd.Start(); err != nil {
		return fail(fmt.Errorf("ffmpeg: failed to start: %w", err))
	}
	p.pid = cmd.Process.Pid

	go func() {
		defer close(p.done)
		if scanner != nil {
			defer close(progress)
			ParseProgressOutput(scanner, progress)
		}

		if err := cmd.Wait(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = fmt.Errorf("%w: %v", ctxErr, err)
			}
			p.err = &Error{
				Args:   args,
				Stderr: p.stderr.String(),
				Err:    err,
			}
		}
	}()

	return p, nil
}

// run executes ffmpeg and waits for completion.
func run(ctx context.Context, args []string, progress chan<- Progress) error {
	proc, err := Start(ctx, args, progress)
	if err != nil {
		return err
	}
	return proc.Wait()
}

// RunResult contains the outcome of an ffmpeg invocation, including captured stderr.
type RunResult struct {
	// Logs is the retained tail of ffmpeg stderr, available on success and failure.
	Logs string
	// Err is non-nil when ffmpeg exited with a non-zero status.
	Err error
}

func runCapture(ctx context.Context, args []string) RunResult {
	proc, err := Start(ctx, args, nil)
	if err != nil {
		return RunResult{Err: err}
	}
	waitErr := proc.Wait()
	return RunResult{
		Logs: proc.Stderr(),
		Err:  waitErr,
	}
}

// Error represents an ffmpeg execution error with context.
type Error struct {
	Args   []string
	Stderr string
	Err    error
}

// Error implements error. Only the last few stderr lines are included.
func (e *Error) Error() string {
	if tail := e.Tail(3); tail != "" {
		return fmt.Sprintf("ffmpeg: %v: %s", e.Err, tail)
	}
	return fmt.Sprintf("ffmpeg: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Tail returns the last n lines of stderr.
func (e *Error) Tail(n int) string {
	lines := strings.Split(strings.TrimSpace(e.Stderr), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Command returns the command that was executed.
func (e *Error) Command() string {
	return Binary + " " + strings.Join(e.Args, " ")
}

// tailBuffer is an io.Writer that keeps only the most recent limit bytes.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

// Package bwexec runs the Bitwarden CLI as a subprocess and captures its
// output. It never interprets stdout beyond passthrough; callers parse.
package bwexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Input describes a single CLI invocation.
type Input struct {
	// Args is the argument vector after the executable name.
	Args []string
	// Session, when set, is appended as `--session <token>` and exported
	// as BW_SESSION in the child environment.
	Session string
	// Stdin, when set, is piped to the child on standard input. Secrets
	// go here, never into Args.
	Stdin string
}

// Result carries the captured output of an invocation. Stdout and Stderr
// are kept strictly separate so warnings on stderr never pollute a JSON
// payload on stdout.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs Bitwarden CLI invocations.
type Runner interface {
	Run(ctx context.Context, in Input) (Result, error)
}

// CLI is the production Runner backed by the installed `bw` binary.
type CLI struct {
	executable string
	timeout    time.Duration
}

// NewCLI creates a CLI runner for the given executable path. An empty path
// resolves `bw` on PATH.
func NewCLI(executable string, timeout time.Duration) (*CLI, error) {
	if executable == "" {
		path, err := exec.LookPath("bw")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExecutableNotFound, err)
		}
		executable = path
	}

	return &CLI{
		executable: executable,
		timeout:    timeout,
	}, nil
}

// Run executes the CLI and captures stdout, stderr and the exit code. It
// returns an error only when the process could not be started or the
// context ended; a non-zero exit is reported through Result.ExitCode.
func (c *CLI) Run(ctx context.Context, in Input) (Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := append([]string{}, in.Args...)
	env := os.Environ()
	if in.Session != "" {
		args = append(args, "--session", in.Session)
		env = append(env, "BW_SESSION="+in.Session)
	}

	cmd := exec.CommandContext(ctx, c.executable, args...)
	cmd.Env = env
	if in.Stdin != "" {
		cmd.Stdin = strings.NewReader(in.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, fmt.Errorf("running %q timed out: %w", c.executable, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
				return Result{}, fmt.Errorf("%w: %v", ErrExecutableNotFound, err)
			}
			return Result{}, fmt.Errorf("%w: %v", ErrRunFailed, err)
		}
	}

	return Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}, nil
}

// Output runs the CLI and returns stdout, converting a non-zero exit into
// an *ExecError carrying the exit code and stderr.
func Output(ctx context.Context, r Runner, in Input) (string, error) {
	res, err := r.Run(ctx, in)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &ExecError{
			Args:     in.Args,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
		}
	}

	return res.Stdout, nil
}

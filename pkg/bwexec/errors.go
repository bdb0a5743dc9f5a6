package bwexec

import (
	"fmt"
	"strings"

	"github.com/hamba/pkg/v2/errors"
)

const (
	ErrExecutableNotFound = errors.Error("bitwarden CLI executable could not be found")
	ErrRunFailed          = errors.Error("bitwarden CLI could not be run")
)

// ExecError reports a CLI invocation that exited non-zero.
type ExecError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("bw %s: exit %d: %s", strings.Join(e.Args, " "), e.ExitCode, strings.TrimSpace(e.Stderr))
}

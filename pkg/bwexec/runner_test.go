package bwexec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutput(t *testing.T) {
	tests := []struct {
		name       string
		result     Result
		want       string
		wantErr    bool
		wantStderr string
	}{
		{
			name:   "zero exit passes stdout through",
			result: Result{Stdout: `{"name":"GitHub"}`},
			want:   `{"name":"GitHub"}`,
		},
		{
			name:       "non-zero exit becomes ExecError",
			result:     Result{Stderr: "Not found.", ExitCode: 1},
			wantErr:    true,
			wantStderr: "Not found.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &stubRunner{result: tt.result}

			out, err := Output(context.Background(), r, Input{Args: []string{"get", "item", "GitHub"}})

			if !tt.wantErr {
				assert.Nil(t, err)
				assert.Equal(t, tt.want, out)
				return
			}

			var execErr *ExecError
			assert.True(t, errors.As(err, &execErr))
			assert.Equal(t, tt.result.ExitCode, execErr.ExitCode)
			assert.Equal(t, tt.wantStderr, execErr.Stderr)
			assert.Equal(t, []string{"get", "item", "GitHub"}, execErr.Args)
		})
	}
}

func TestCLI_RunMissingExecutable(t *testing.T) {
	cli := &CLI{executable: "/nonexistent/bw"}

	_, err := cli.Run(context.Background(), Input{Args: []string{"status"}})

	assert.True(t, errors.Is(err, ErrExecutableNotFound))
}

func TestCLI_RunSpawnFailure(t *testing.T) {
	// a present but non-executable binary must not be reported as missing
	path := filepath.Join(t.TempDir(), "bw")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o644)
	assert.Nil(t, err)

	cli := &CLI{executable: path}

	_, err = cli.Run(context.Background(), Input{Args: []string{"status"}})

	assert.True(t, errors.Is(err, ErrRunFailed))
	assert.False(t, errors.Is(err, ErrExecutableNotFound))
}

func TestExecError_Error(t *testing.T) {
	err := &ExecError{
		Args:     []string{"get", "item", "GitHub"},
		ExitCode: 1,
		Stderr:   "Not found.\n",
	}

	assert.Equal(t, "bw get item GitHub: exit 1: Not found.", err.Error())
}

type stubRunner struct {
	result Result
}

func (r *stubRunner) Run(_ context.Context, _ Input) (Result, error) {
	return r.result, nil
}

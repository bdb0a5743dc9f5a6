package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v3"
	"gitlab.com/sickit/bw-session/pkg/bwconf"
)

func TestApplyConfigFlags(t *testing.T) {
	config := bwconf.Config{
		Username:   "ops@example.com",
		Sync:       true,
		Timeout:    time.Minute,
		Executable: "/opt/bitwarden/bw",
	}

	app := &cli.Command{
		Name:  "bwenv-test",
		Flags: newFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := applyConfigFlags(cmd, &config); err != nil {
				return err
			}

			// every configured value must be applied, not just the first
			assert.Equal(t, "ops@example.com", cmd.String(flagUsername))
			assert.Equal(t, "/opt/bitwarden/bw", cmd.String(flagExecutable))
			assert.Equal(t, time.Minute, cmd.Duration(flagTimeout))
			assert.True(t, cmd.Bool(flagSync))

			return nil
		},
	}

	err := app.Run(context.Background(), []string{"bwenv-test"})
	assert.Nil(t, err)
}

func TestApplyConfigFlags_FlagsWin(t *testing.T) {
	config := bwconf.Config{
		Username: "ops@example.com",
		Sync:     true,
	}

	app := &cli.Command{
		Name:  "bwenv-test",
		Flags: newFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := applyConfigFlags(cmd, &config); err != nil {
				return err
			}

			// command line flags are never overridden by the config
			assert.Equal(t, "other@example.com", cmd.String(flagUsername))
			assert.True(t, cmd.Bool(flagSync))

			return nil
		},
	}

	err := app.Run(context.Background(), []string{"bwenv-test", "--username", "other@example.com"})
	assert.Nil(t, err)
}

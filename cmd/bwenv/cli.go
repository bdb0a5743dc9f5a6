package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/hamba/cmd/v3/observe"
	lctx "github.com/hamba/logger/v2/ctx"
	"github.com/sethvargo/go-retry"
	"github.com/urfave/cli/v3"
	bw "gitlab.com/sickit/bw-session"
	"gitlab.com/sickit/bw-session/pkg/bwconf"
)

func runCli(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	obsvr, err := observe.New(ctx, cmd, "bwenv", &observe.Options{
		StatsRuntime: false,
	})
	if err != nil {
		return fmt.Errorf("failed to create observer: %w", err)
	}
	defer obsvr.Close()

	confFile, err := os.ReadFile(cmd.String(flagConfig))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config := bwconf.Config{}
	validate := validator.New()
	dec := yaml.NewDecoder(
		strings.NewReader(string(confFile)),
		yaml.Validator(validate),
	)
	err = dec.Decode(&config)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	obsvr.Log.Debug("read config", lctx.Str("config", fmt.Sprintf("%+v", config)))

	if err = config.Validate(); err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	if err = applyConfigFlags(cmd, &config); err != nil {
		return err
	}

	session, err := newSession(cmd, obsvr)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return session.Run(ctx, func(ctx context.Context, s *bw.Session) error {
		if cmd.Bool(flagSync) {
			if err := syncVault(ctx, s, obsvr); err != nil {
				return fmt.Errorf("failed to sync vault: %w", err)
			}
		}

		for _, e := range config.Exports {
			obsvr.Log.Info("resolving export", lctx.Str("item", e.Item), lctx.Str("field", e.Field), lctx.Str("env", e.Env))
			value, err := s.Get(ctx, e.Field, e.Item)
			if err != nil {
				return fmt.Errorf("failed to resolve export %s: %w", e.Env, err)
			}
			fmt.Fprintf(os.Stdout, "%s=%s\n", e.Env, value)
		}

		for _, l := range config.Lists {
			obsvr.Log.Info("listing objects", lctx.Str("type", l.Type))
			recs, err := s.List(ctx, l.Type, l.Filters)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", l.Type, err)
			}

			out, err := json.MarshalIndent(recs, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render %s list: %w", l.Type, err)
			}
			fmt.Fprintln(os.Stdout, string(out))
		}

		obsvr.Log.Debug("all exports resolved, 🙏thank you for using bwenv!")

		return nil
	})
}

// applyConfigFlags sets every flag that was not given on the command line
// from the config, except credentials. Each value is applied independently
// so one configured field never shadows another.
func applyConfigFlags(cmd *cli.Command, config *bwconf.Config) error {
	if !cmd.IsSet(flagUsername) && config.Username != "" {
		if err := cmd.Set(flagUsername, config.Username); err != nil {
			return fmt.Errorf("failed to set username from config: %w", err)
		}
	}
	if !cmd.IsSet(flagExecutable) && config.Executable != "" {
		if err := cmd.Set(flagExecutable, config.Executable); err != nil {
			return fmt.Errorf("failed to set executable from config: %w", err)
		}
	}
	if !cmd.IsSet(flagTimeout) && config.Timeout > 0 {
		if err := cmd.Set(flagTimeout, config.Timeout.String()); err != nil {
			return fmt.Errorf("failed to set timeout from config: %w", err)
		}
	}
	if !cmd.IsSet(flagSync) && config.Sync {
		if err := cmd.Set(flagSync, strconv.FormatBool(config.Sync)); err != nil {
			return fmt.Errorf("failed to set sync from config: %w", err)
		}
	}

	return nil
}

// syncVault retries transient sync failures; retrying lives here in the
// caller, the session itself never retries.
func syncVault(ctx context.Context, s *bw.Session, obsvr *observe.Observer) error {
	b := retry.NewExponential(500 * time.Millisecond)
	b = retry.WithMaxRetries(5, b)
	b = retry.WithMaxDuration(2*time.Minute, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.Sync(ctx); err != nil {
			obsvr.Log.Debug("retry on err", lctx.Err(err))
			return retry.RetryableError(err)
		}
		return nil
	})
}

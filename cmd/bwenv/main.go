package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/ettle/strcase"
	"github.com/hamba/cmd/v3"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

const (
	flagConfig     = "config"
	flagUsername   = "username"
	flagPassword   = "password"
	flagExecutable = "executable"
	flagTimeout    = "timeout"
	flagSync       = "sync"
)

var version = "¯\\_(ツ)_/¯"

var flags = newFlags()

// newFlags builds a fresh flag set. Flag state lives on the flag values, so
// every command instance needs its own set.
func newFlags() cmd.Flags {
	return cmd.Flags{
		&cli.StringFlag{
			Name:    flagConfig,
			Value:   "./bwenv.yaml",
			Usage:   "The path to the configuration file",
			Sources: cli.EnvVars(strcase.ToSNAKE(flagConfig)),
		},
		&cli.StringFlag{
			Name:    flagUsername,
			Value:   "",
			Usage:   "The Bitwarden account email to log in as",
			Sources: cli.EnvVars(strcase.ToSNAKE(flagUsername)),
		},
		&cli.StringFlag{
			Name:    flagPassword,
			Value:   "",
			Usage:   "The Bitwarden master password; omit to be prompted via pinentry",
			Sources: cli.EnvVars("BW_PASSWORD", strcase.ToSNAKE(flagPassword)),
		},
		&cli.StringFlag{
			Name:    flagExecutable,
			Value:   "",
			Usage:   "The path to the Bitwarden CLI binary, resolved on PATH when empty",
			Sources: cli.EnvVars(strcase.ToSNAKE(flagExecutable)),
		},
		&cli.DurationFlag{
			Name:    flagTimeout,
			Value:   0,
			Usage:   "The per-invocation timeout for the Bitwarden CLI",
			Sources: cli.EnvVars(strcase.ToSNAKE(flagTimeout)),
		},
		&cli.BoolFlag{
			Name:    flagSync,
			Value:   false,
			Usage:   "Sync the vault before resolving exports",
			Sources: cli.EnvVars(strcase.ToSNAKE(flagSync)),
		},
	}.Merge(cmd.LogFlags)
}

func main() {
	os.Exit(realMain())
}

func realMain() (code int) {
	ui := newTerm()
	cli.RootCommandHelpTemplate = fmt.Sprintf(`%s
EXAMPLES:

	# Resolve vault items into environment assignments, prompting via pinentry
	bwenv --config ci-secrets.yaml

	# Headless: password from the environment, eval the output
	BW_PASSWORD=... eval "$(bwenv --config ci-secrets.yaml --sync)"

	# Example configuration
	https://gitlab.com/sickit/bw-session/-/blob/main/pkg/bwconf/full-config.yaml

SUPPORT: mailto:toop@sickit.eu

`, cli.RootCommandHelpTemplate)

	defer func() {
		if v := recover(); v != nil {
			ui.Error(fmt.Sprintf("Panic: %v\n%s", v, string(debug.Stack())))
			code = 1
			return
		}
	}()

	app := cli.Command{
		Name:    "bwenv",
		Usage:   "Resolve Bitwarden vault items into environment assignments",
		Version: version,
		Action:  runCli,
		Flags:   flags,
		Suggest: true,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, os.Args); err != nil {
		ui.Error(err.Error())
		return 1
	}
	return 0
}

package main

import (
	"fmt"
	"os"

	"github.com/hamba/cmd/v3/observe"
	"github.com/hamba/cmd/v3/term"
	"github.com/urfave/cli/v3"
	bw "gitlab.com/sickit/bw-session"
)

func newTerm() term.Term {
	return term.Prefixed{
		ErrorPrefix: "Error: ",
		Term: term.Colored{
			ErrorColor: term.Red,
			Term: term.Basic{
				Writer:      os.Stdout,
				ErrorWriter: os.Stderr,
				Verbose:     false,
			},
		},
	}
}

func newSession(cmd *cli.Command, obsvr *observe.Observer) (*bw.Session, error) {
	if cmd.String(flagUsername) == "" {
		return nil, fmt.Errorf("no username specified")
	}

	opts := []bw.Option{}
	if cmd.String(flagPassword) != "" {
		opts = append(opts, bw.WithPassword(cmd.String(flagPassword)))
	}
	if cmd.String(flagExecutable) != "" {
		opts = append(opts, bw.WithExecutable(cmd.String(flagExecutable)))
	}
	if cmd.Duration(flagTimeout) > 0 {
		opts = append(opts, bw.WithTimeout(cmd.Duration(flagTimeout)))
	}

	session, err := bw.New(cmd.String(flagUsername), obsvr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

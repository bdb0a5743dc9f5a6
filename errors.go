package bw_session

import (
	errors2 "github.com/hamba/pkg/v2/errors"
	"gitlab.com/sickit/bw-session/pkg/item"
)

const (
	ErrNotLoggedIn       = errors2.Error("session is not logged in")
	ErrAuthentication    = errors2.Error("authentication failed")
	ErrPasswordIncorrect = errors2.Error("username or password is incorrect")
	ErrAPIKeyRequired    = errors2.Error("CLI must be authenticated with an API key")
	ErrNotFound          = errors2.Error("no matching vault object")

	// ErrParse is reported when the CLI printed something that is not the
	// expected JSON payload.
	ErrParse = item.ErrMalformed
)

// Package pinentry obtains the master password from the external pinentry
// program when the caller did not supply one. Pinentry needs a terminal or
// a display; headless callers should pass the password up front instead.
package pinentry

import (
	"fmt"
	"strings"

	assuan "github.com/gopasspw/pinentry"
	"github.com/hamba/pkg/v2/errors"
)

const (
	ErrUnavailable = errors.Error("pinentry program unavailable")
	ErrCancelled   = errors.Error("pinentry cancelled")
)

// Prompter asks the user for a password.
type Prompter interface {
	Password(description, prompt string) (string, error)
}

// Pinentry prompts through the system pinentry program with masked input.
type Pinentry struct{}

// New creates a pinentry backed Prompter.
func New() *Pinentry {
	return &Pinentry{}
}

// Password launches pinentry with the given description and prompt and
// reads a single secret back.
func (p *Pinentry) Password(description, prompt string) (string, error) {
	client, err := assuan.New()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer client.Close()

	if err := client.Set("title", "Bitwarden"); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := client.Set("desc", description); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := client.Set("prompt", prompt); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	pin, err := client.GetPin()
	if err != nil {
		if strings.Contains(err.Error(), "cancel") {
			return "", fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return string(pin), nil
}

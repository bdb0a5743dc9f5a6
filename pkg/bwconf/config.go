package bwconf

import (
	"fmt"
	"time"

	"github.com/hamba/pkg/v2/errors"
)

const (
	ErrNothingToDo      = errors.Error("config defines no exports and no lists")
	ErrDuplicateEnvName = errors.Error("duplicate export environment variable")
)

// Config defines what bwenv should resolve from the vault.
type Config struct {
	Username   string        `yaml:"username" validate:"required,email"`
	Sync       bool          `yaml:"sync,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	Executable string        `yaml:"executable,omitempty"`
	Exports    []Export      `yaml:"exports,omitempty" validate:"omitempty,dive"`
	Lists      []List        `yaml:"lists,omitempty" validate:"omitempty,dive"`
}

// Export resolves one field of one vault item into an environment variable.
type Export struct {
	// Item is the vault item name or id.
	Item string `yaml:"item" validate:"required"`
	// Field is the CLI get target to resolve.
	Field string `yaml:"field" validate:"required,oneof=username password uri totp notes"`
	// Env is the environment variable name to print.
	Env string `yaml:"env" validate:"required"`
}

// List defines one CLI list query, printed as JSON.
type List struct {
	// Type is the CLI list target: items, folders, collections, ...
	Type string `yaml:"type" validate:"required"`
	// Filters are rendered as `--<name> <value>` flags.
	Filters map[string]string `yaml:"filters,omitempty"`
}

// Validate checks logical/structural requirements that can't be validated
// with go-yaml.
func (c *Config) Validate() error {
	if len(c.Exports) == 0 && len(c.Lists) == 0 {
		return ErrNothingToDo
	}

	seen := map[string]bool{}
	for _, e := range c.Exports {
		if seen[e.Env] {
			return fmt.Errorf("invalid export for item '%s': %w: %s", e.Item, ErrDuplicateEnvName, e.Env)
		}
		seen[e.Env] = true
	}

	return nil
}

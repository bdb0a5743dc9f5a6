// Package item holds the passthrough record type for Bitwarden CLI JSON
// output. The shape of a record varies by object type and CLI version, so
// records stay schemaless.
package item

import (
	"encoding/json"
	"fmt"

	"github.com/hamba/pkg/v2/errors"
)

const (
	ErrMalformed = errors.Error("malformed JSON payload")
)

// Record is a single vault record as emitted by the CLI.
type Record map[string]any

// String returns the string value under key, or "" when absent or not a
// string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Record returns the nested record under key, or nil when absent or not an
// object.
func (r Record) Record(key string) Record {
	switch v := r[key].(type) {
	case map[string]any:
		return Record(v)
	case Record:
		return v
	}
	return nil
}

// Decode parses a JSON object payload into a Record.
func Decode(payload string) (Record, error) {
	rec := Record{}
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return rec, nil
}

// DecodeList parses a JSON array payload into a slice of Records, keeping
// the CLI's ordering.
func DecodeList(payload string) ([]Record, error) {
	recs := []Record{}
	if err := json.Unmarshal([]byte(payload), &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return recs, nil
}

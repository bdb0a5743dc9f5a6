package bwconf

import (
	_ "embed"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
)

//go:embed full-config.yaml
var fullConfig string

func TestParseConfig(t *testing.T) {
	config := Config{}
	validate := validator.New()
	dec := yaml.NewDecoder(
		strings.NewReader(fullConfig),
		yaml.Validator(validate),
		yaml.Strict(),
	)
	err := dec.Decode(&config)
	assert.Nil(t, err)
	assert.Equal(t, "ops@example.com", config.Username)
	assert.Len(t, config.Exports, 3)
	assert.Len(t, config.Lists, 2)
	assert.Equal(t, "github.com", config.Lists[0].Filters["url"])
}

func TestParseConfig_RejectsUnknownField(t *testing.T) {
	config := Config{}
	dec := yaml.NewDecoder(
		strings.NewReader("username: ops@example.com\nvault: nope\n"),
		yaml.Strict(),
	)
	err := dec.Decode(&config)
	assert.NotNil(t, err)
}

func TestConfig_Validate(t *testing.T) {
	type fields struct {
		Exports []Export
		Lists   []List
	}
	var tests = []struct {
		name    string
		fields  fields
		wantErr bool
	}{
		{
			name: "exports only",
			fields: fields{
				Exports: []Export{
					{Item: "GitHub", Field: "password", Env: "GITHUB_TOKEN"},
				},
			},
			wantErr: false,
		},
		{
			name: "lists only",
			fields: fields{
				Lists: []List{
					{Type: "items", Filters: map[string]string{"url": "github.com"}},
				},
			},
			wantErr: false,
		},
		{
			name:    "nothing to do",
			fields:  fields{},
			wantErr: true,
		},
		{
			name: "duplicate env name",
			fields: fields{
				Exports: []Export{
					{Item: "GitHub", Field: "password", Env: "TOKEN"},
					{Item: "GitLab", Field: "password", Env: "TOKEN"},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Username: "ops@example.com",
				Exports:  tt.fields.Exports,
				Lists:    tt.fields.Lists,
			}
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/audiobench/nodespeak"
)

// Config is the file form of the command line flags. Fields left out of
// the file keep their defaults, and flags given on the command line win
// over the file.
type Config struct {
	Phase        string   `yaml:"phase,omitempty"`
	Output       string   `yaml:"output,omitempty"`
	Unroll       *bool    `yaml:"unroll,omitempty"`
	MaxUnroll    *int     `yaml:"max_unroll,omitempty"`
	Validate     *bool    `yaml:"validate,omitempty"`
	ModuleName   string   `yaml:"module_name,omitempty"`
	IncludePaths []string `yaml:"include_paths,omitempty"`
	Perf         bool     `yaml:"perf,omitempty"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// apply layers the file values over opts.
func (c *Config) apply(opts *nodespeak.Options) {
	if c.Unroll != nil {
		opts.Unroll = *c.Unroll
	}
	if c.MaxUnroll != nil {
		opts.MaxUnroll = *c.MaxUnroll
	}
	if c.Validate != nil {
		opts.Validate = *c.Validate
	}
	if c.ModuleName != "" {
		opts.ModuleName = c.ModuleName
	}
	opts.IncludePaths = append(opts.IncludePaths, c.IncludePaths...)
}

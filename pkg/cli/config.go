package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/githubnext/yamlctx/pkg/parser"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional project configuration file
const ConfigFileName = ".yamlctx.yaml"

// DefaultConcurrency is the number of files checked in parallel
const DefaultConcurrency = 4

// Config holds project defaults. Command-line flags override every field.
type Config struct {
	Decoder     string `yaml:"decoder"`
	Schema      string `yaml:"schema"`
	Concurrency int    `yaml:"concurrency"`
	Hint        string `yaml:"hint"`
}

// LoadConfig reads ConfigFileName from dir. A missing file yields the defaults.
// A relative schema path is resolved against dir.
func LoadConfig(dir string) (Config, error) {
	config := Config{Concurrency: DefaultConcurrency}

	path := filepath.Join(dir, ConfigFileName)
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to read %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid %s: %w", path, err)
	}

	if config.Schema != "" && !filepath.IsAbs(config.Schema) {
		config.Schema = filepath.Join(dir, config.Schema)
	}
	return config, nil
}

// Validate checks field values
func (c Config) Validate() error {
	if _, err := parser.ParseDecoder(c.Decoder); err != nil {
		return err
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/githubnext/yamlctx/pkg/cli"
	"github.com/githubnext/yamlctx/pkg/parser"
	"github.com/spf13/cobra"
)

func TestRootCommandStructure(t *testing.T) {
	if rootCmd.Use != "yamlctx" {
		t.Errorf("Expected root command use 'yamlctx', got %q", rootCmd.Use)
	}

	expected := map[string]bool{"check": false, "analyze": false, "watch": false, "version": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := expected[cmd.Name()]; ok {
			expected[cmd.Name()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("Expected %s command to be registered", name)
		}
	}

	if rootCmd.PersistentFlags().Lookup("verbose") == nil {
		t.Error("Expected persistent verbose flag")
	}
	for _, name := range []string{"decoder", "schema", "concurrency"} {
		if checkCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected check command to have --%s", name)
		}
		if watchCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected watch command to have --%s", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	if !strings.Contains(out.String(), "yamlctx version dev") {
		t.Errorf("Expected version output, got %q", out.String())
	}
}

func newFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addCheckFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("Failed to parse flags %v: %v", args, err)
	}
	return cmd
}

func TestResolveCheckOptions(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		args        []string
		expected    cli.CheckOptions
		expectErr   bool
		errContains string
	}{
		{
			name:     "defaults without config",
			expected: cli.CheckOptions{Decoder: parser.DecoderGoccy, Concurrency: cli.DefaultConcurrency},
		},
		{
			name:     "config values",
			config:   "decoder: yaml.v3\nconcurrency: 2\nhint: see docs/config.md\n",
			expected: cli.CheckOptions{Decoder: parser.DecoderYAMLv3, Concurrency: 2, Hint: "see docs/config.md"},
		},
		{
			name:     "flags override config",
			config:   "decoder: yaml.v3\nconcurrency: 2\n",
			args:     []string{"--decoder", "goccy", "-j", "6"},
			expected: cli.CheckOptions{Decoder: parser.DecoderGoccy, Concurrency: 6},
		},
		{
			name:        "invalid decoder flag",
			args:        []string{"--decoder", "libyaml"},
			expectErr:   true,
			errContains: "invalid decoder value 'libyaml'",
		},
		{
			name:        "invalid concurrency flag",
			args:        []string{"--concurrency", "0"},
			expectErr:   true,
			errContains: "concurrency must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			chdir(t, dir)
			if tt.config != "" {
				if err := os.WriteFile(filepath.Join(dir, cli.ConfigFileName), []byte(tt.config), 0644); err != nil {
					t.Fatalf("Failed to write config: %v", err)
				}
			}

			options, err := resolveCheckOptions(newFlagCommand(t, tt.args...))
			if tt.expectErr {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Expected error containing %q, got %v", tt.errContains, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if options != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, options)
			}
		})
	}
}

func TestResolveCheckOptionsSchemaFromConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, cli.ConfigFileName), []byte("schema: schemas/app.json\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	options, err := resolveCheckOptions(newFlagCommand(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if options.SchemaPath != filepath.Join(".", "schemas/app.json") {
		t.Errorf("Expected schema path relative to the config directory, got %q", options.SchemaPath)
	}

	options, err = resolveCheckOptions(newFlagCommand(t, "--schema", "other.json"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if options.SchemaPath != "other.json" {
		t.Errorf("Expected flag to override schema, got %q", options.SchemaPath)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("Failed to restore working directory: %v", err)
		}
	})
}

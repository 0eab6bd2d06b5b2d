package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnalyzeMessage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, serversYAML)

	tests := []struct {
		name        string
		options     AnalyzeOptions
		expected    []string
		errContains string
	}{
		{
			name: "libyaml message with context",
			options: AnalyzeOptions{
				Message: "servers[0].port: invalid type: string \"x\", expected u16 at line 4 column 11 at line 3 column 5",
				Hint:    "ports are numbers",
			},
			expected: []string{"config.yaml:4:11:", "expected u16", "4 |     port: x", "hint: ports are numbers"},
		},
		{
			name: "colored message",
			options: AnalyzeOptions{
				Message: "\x1b[31minvalid value\x1b[0m at line 2 column 1",
			},
			expected: []string{"config.yaml:2:1:", "invalid value"},
		},
		{
			name: "goccy format",
			options: AnalyzeOptions{
				Message: "[4:11] cannot unmarshal string into Go value of type int",
				Format:  "goccy",
			},
			expected: []string{"config.yaml:4:11:", "cannot unmarshal string"},
		},
		{
			name: "marker outside the file",
			options: AnalyzeOptions{
				Message: "unexpected end at line 40 column 1",
			},
			expected: []string{"config.yaml: error: unexpected end", "Error location unavailable", "line 40 column 1"},
		},
		{
			name: "unknown format",
			options: AnalyzeOptions{
				Message: "x",
				Format:  "serde",
			},
			errContains: "unknown marker format 'serde'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := AnalyzeMessage(path, tt.options, &out)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Expected error containing %q, got %v", tt.errContains, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			for _, expected := range tt.expected {
				if !strings.Contains(out.String(), expected) {
					t.Errorf("Expected output to contain %q, got:\n%s", expected, out.String())
				}
			}
		})
	}
}

func TestAnalyzeMessageJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, serversYAML)

	var out bytes.Buffer
	options := AnalyzeOptions{
		Message: "invalid type at line 4 column 11 at line 3 column 5",
		JSON:    true,
	}
	if err := AnalyzeMessage(path, options, &out); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded struct {
		ErrorSpan struct {
			Status string `json:"status"`
			Offset int    `json:"offset"`
			Length int    `json:"length"`
		} `json:"error_span"`
		ErrorMessage string `json:"error_message"`
		ContextSpan  struct {
			Status string `json:"status"`
			Offset int    `json:"offset"`
		} `json:"context_span"`
	}
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode output %q: %v", out.String(), err)
	}

	if decoded.ErrorSpan.Status != "resolved" || decoded.ErrorSpan.Offset != 42 || decoded.ErrorSpan.Length != 1 {
		t.Errorf("Unexpected error span %+v", decoded.ErrorSpan)
	}
	if decoded.ContextSpan.Status != "resolved" || decoded.ContextSpan.Offset != 24 {
		t.Errorf("Unexpected context span %+v", decoded.ContextSpan)
	}
	if decoded.ErrorMessage != "invalid type" {
		t.Errorf("Unexpected message %q", decoded.ErrorMessage)
	}
}

func TestAnalyzeMessageMissingFile(t *testing.T) {
	err := AnalyzeMessage(filepath.Join(t.TempDir(), "missing.yaml"), AnalyzeOptions{Message: "x"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "failed to read file") {
		t.Errorf("Expected read error, got %v", err)
	}
}

package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/githubnext/yamlctx/pkg/yamlerr"
)

const serversSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string"},
    "servers": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "host": {"type": "string"},
          "port": {"type": "integer"}
        }
      }
    }
  }
}`

func TestNewSchemaValidator(t *testing.T) {
	tests := []struct {
		name      string
		schema    string
		expectErr bool
	}{
		{name: "valid schema", schema: serversSchema},
		{name: "invalid json", schema: `{"type": `, expectErr: true},
		{name: "invalid schema", schema: `{"type": 12}`, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchemaValidator([]byte(tt.schema))
			if tt.expectErr && err == nil {
				t.Error("Expected error")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestSchemaValidatorValidate(t *testing.T) {
	validator, err := NewSchemaValidator([]byte(serversSchema))
	if err != nil {
		t.Fatalf("Failed to compile schema: %v", err)
	}

	t.Run("conforming document", func(t *testing.T) {
		doc := map[string]any{"name": "demo", "servers": []any{map[string]any{"port": uint64(80)}}}
		if violations := validator.Validate(doc); len(violations) != 0 {
			t.Errorf("Expected no violations, got %+v", violations)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		doc, records, err := DecodeDocument(serversYAML, DecoderGoccy)
		if err != nil || len(records) != 0 {
			t.Fatalf("Failed to decode: %v %+v", err, records)
		}

		violations := validator.Validate(doc)
		if len(violations) != 1 {
			t.Fatalf("Expected one violation, got %+v", violations)
		}
		if violations[0].Path != "/servers/0/port" {
			t.Errorf("Expected path /servers/0/port, got %q", violations[0].Path)
		}
		if !reflect.DeepEqual(violations[0].Location, []string{"servers", "0", "port"}) {
			t.Errorf("Unexpected location %v", violations[0].Location)
		}
		if violations[0].Message == "" || strings.Contains(violations[0].Message, "jsonschema validation failed") {
			t.Errorf("Expected cleaned message, got %q", violations[0].Message)
		}
	})

	t.Run("missing required property", func(t *testing.T) {
		violations := validator.Validate(map[string]any{"servers": []any{}})
		if len(violations) != 1 {
			t.Fatalf("Expected one violation, got %+v", violations)
		}
		if violations[0].Path != "" {
			t.Errorf("Expected root path, got %q", violations[0].Path)
		}
		if !strings.Contains(violations[0].Message, "name") {
			t.Errorf("Expected message to name the missing property, got %q", violations[0].Message)
		}
	})

	t.Run("non-string keys", func(t *testing.T) {
		violations := validator.Validate(map[any]any{1: "a"})
		if len(violations) != 1 || !strings.Contains(violations[0].Message, "cannot be validated as JSON") {
			t.Errorf("Expected normalization failure, got %+v", violations)
		}
	})
}

func TestViolationRecord(t *testing.T) {
	locator := NewNodeLocator(serversYAML)

	t.Run("value and enclosing key", func(t *testing.T) {
		violation := Violation{
			Path:     "/servers/0/port",
			Message:  "got string, want integer",
			Location: []string{"servers", "0", "port"},
		}

		expected := yamlerr.ErrorAndContext{
			ErrorSpan:    yamlerr.Span{Status: yamlerr.SpanResolved, Offset: 42, Length: 1, Line: 4, Column: 11},
			ErrorMessage: "/servers/0/port: got string, want integer",
			ContextSpan:  yamlerr.Span{Status: yamlerr.SpanResolved, Offset: 36, Length: 1, Line: 4, Column: 5},
		}
		if got := ViolationRecord(serversYAML, locator, violation); got != expected {
			t.Errorf("Expected %+v, got %+v", expected, got)
		}
	})

	t.Run("root violation", func(t *testing.T) {
		violation := Violation{Message: "missing property 'version'"}

		expected := yamlerr.ErrorAndContext{
			ErrorSpan:    yamlerr.Span{Status: yamlerr.SpanResolved, Offset: 0, Length: 1, Line: 1, Column: 1},
			ErrorMessage: "missing property 'version'",
		}
		if got := ViolationRecord(serversYAML, locator, violation); got != expected {
			t.Errorf("Expected %+v, got %+v", expected, got)
		}
	})

	t.Run("unparsable document", func(t *testing.T) {
		violation := Violation{Message: "bad"}
		got := ViolationRecord("a: [", NewNodeLocator("a: ["), violation)
		if got.ErrorSpan.Resolved() || got.ErrorMessage != "bad" {
			t.Errorf("Expected message only, got %+v", got)
		}
	})
}

func TestCleanSchemaErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "header and location prefix",
			input:    "jsonschema validation failed with 'file:///yamlctx/schema.json#'\n- at '/servers/0/port': got string, want integer",
			expected: "got string, want integer",
		},
		{
			name:     "root prefix",
			input:    "- at '': missing property 'name'",
			expected: "missing property 'name'",
		},
		{
			name:     "only header",
			input:    "jsonschema validation failed with 'file:///yamlctx/schema.json#'",
			expected: "schema validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanSchemaErrorMessage(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

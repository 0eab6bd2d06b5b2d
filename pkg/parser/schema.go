package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/githubnext/yamlctx/pkg/yamlerr"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "file:///yamlctx/schema.json"

// Violation is one schema validation failure
type Violation struct {
	Path     string   // JSON pointer like "/servers/0/port"
	Message  string   // validator message without location prefixes
	Location []string // instance location segments
}

// SchemaValidator validates decoded documents against a compiled JSON schema
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles a JSON schema document
func NewSchemaValidator(schemaJSON []byte) (*SchemaValidator, error) {
	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to parse schema JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &SchemaValidator{schema: schema}, nil
}

// Validate returns the violations of doc, or nil when it conforms
func (v *SchemaValidator) Validate(doc any) []Violation {
	normalized, err := normalizeDocument(doc)
	if err != nil {
		return []Violation{{Message: err.Error()}}
	}

	err = v.schema.Validate(normalized)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []Violation{{Message: err.Error()}}
	}

	var violations []Violation
	collectViolations(validationErr, &violations)
	return violations
}

// normalizeDocument round-trips doc through JSON so the validator sees JSON
// types (float64 numbers, string keys) regardless of the YAML decoder
func normalizeDocument(doc any) (any, error) {
	if doc == nil {
		doc = map[string]any{}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document cannot be validated as JSON: %w", err)
	}

	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return nil, fmt.Errorf("document cannot be validated as JSON: %w", err)
	}
	return normalized, nil
}

// collectViolations gathers the leaf causes, which carry the most precise
// instance locations
func collectViolations(err *jsonschema.ValidationError, violations *[]Violation) {
	if len(err.Causes) == 0 {
		*violations = append(*violations, Violation{
			Path:     instanceLocationToPointer(err.InstanceLocation),
			Message:  cleanSchemaErrorMessage(err.Error()),
			Location: err.InstanceLocation,
		})
		return
	}
	for _, cause := range err.Causes {
		collectViolations(cause, violations)
	}
}

func instanceLocationToPointer(location []string) string {
	var b strings.Builder
	for _, segment := range location {
		b.WriteString("/")
		segment = strings.ReplaceAll(segment, "~", "~0")
		b.WriteString(strings.ReplaceAll(segment, "/", "~1"))
	}
	return b.String()
}

var schemaLocationPrefix = regexp.MustCompile(`^- at '[^']*': `)

// cleanSchemaErrorMessage drops the "jsonschema validation failed" header and
// "- at '/path': " prefixes, which duplicate the location we render
func cleanSchemaErrorMessage(message string) string {
	var cleaned []string
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "jsonschema validation failed") {
			continue
		}
		line = schemaLocationPrefix.ReplaceAllString(line, "")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	if len(cleaned) == 0 {
		return "schema validation failed"
	}
	return strings.Join(cleaned, "\n")
}

// ViolationRecord locates a violation in yamlText. The error span is the
// offending value, the context span is the key that holds it.
func ViolationRecord(yamlText string, locator *NodeLocator, violation Violation) yamlerr.ErrorAndContext {
	record := yamlerr.ErrorAndContext{ErrorMessage: violation.Message}
	if violation.Path != "" {
		record.ErrorMessage = fmt.Sprintf("%s: %s", violation.Path, violation.Message)
	}

	location, err := locator.Locate(violation.Location)
	if err != nil {
		return record
	}

	record.ErrorSpan = yamlerr.SpanAt(yamlText, location.Node.Line, location.Node.Column)
	if location.HasKey && location.Key != location.Node {
		record.ContextSpan = yamlerr.SpanAt(yamlText, location.Key.Line, location.Key.Column)
	}
	return record
}

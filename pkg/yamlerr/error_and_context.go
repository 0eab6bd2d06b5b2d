// Package yamlerr recovers byte-accurate error locations from the display
// text of YAML deserialization errors.
package yamlerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMarkerNotFound reports that an error message carried no location marker.
var ErrMarkerNotFound = errors.New("no location marker in error message")

// SpanStatus tells whether a Span holds an offset, and if not, why.
type SpanStatus int

const (
	// SpanNoMarker means the message had no marker for this span.
	SpanNoMarker SpanStatus = iota
	// SpanResolved means Offset and Length are valid.
	SpanResolved
	// SpanMalformed means a marker was found but its numbers did not parse.
	SpanMalformed
	// SpanOutOfRange means the marker does not address a character of the text.
	SpanOutOfRange
)

var spanStatusNames = map[SpanStatus]string{
	SpanNoMarker:   "no_marker",
	SpanResolved:   "resolved",
	SpanMalformed:  "malformed",
	SpanOutOfRange: "out_of_range",
}

func (s SpanStatus) String() string {
	if name, ok := spanStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SpanStatus(%d)", int(s))
}

// MarshalText renders the status by name in JSON output.
func (s SpanStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Span is an optional byte range in the document text. Offset and Length are
// only meaningful when Status is SpanResolved; Line and Column hold the
// marker coordinates whenever they could be parsed.
type Span struct {
	Status SpanStatus `json:"status"`
	Offset int        `json:"offset"`
	Length int        `json:"length"`
	Line   int        `json:"line,omitempty"`
	Column int        `json:"column,omitempty"`

	// LineOnly marks a column that was not reported but assumed to be 1.
	LineOnly bool `json:"line_only,omitempty"`
}

// MarshalJSON omits offset and length unless the span is resolved.
func (s Span) MarshalJSON() ([]byte, error) {
	out := struct {
		Status   SpanStatus `json:"status"`
		Offset   *int       `json:"offset,omitempty"`
		Length   *int       `json:"length,omitempty"`
		Line     int        `json:"line,omitempty"`
		Column   int        `json:"column,omitempty"`
		LineOnly bool       `json:"line_only,omitempty"`
	}{
		Status:   s.Status,
		Line:     s.Line,
		Column:   s.Column,
		LineOnly: s.LineOnly,
	}
	if s.Resolved() {
		out.Offset = &s.Offset
		out.Length = &s.Length
	}
	return json.Marshal(out)
}

// Resolved reports whether the span points into the document.
func (s Span) Resolved() bool {
	return s.Status == SpanResolved
}

// End returns the offset just past the span.
func (s Span) End() int {
	return s.Offset + s.Length
}

// Err explains why the span is absent. It returns nil for resolved spans.
func (s Span) Err() error {
	switch s.Status {
	case SpanResolved:
		return nil
	case SpanMalformed:
		return ErrMalformedMarker
	case SpanOutOfRange:
		return outOfRange(s.Line, s.Column)
	default:
		return ErrMarkerNotFound
	}
}

// ErrorAndContext holds the location of a YAML error and of its surrounding
// context, recovered from the error's display text.
type ErrorAndContext struct {
	// ErrorSpan locates the error itself.
	ErrorSpan Span `json:"error_span"`
	// ErrorMessage is the message with every location marker removed.
	ErrorMessage string `json:"error_message"`
	// ContextSpan locates the enclosing structure, when the message names one.
	ContextSpan Span `json:"context_span"`
}

// DefaultFormat is the marker format used by New and Analyze.
var DefaultFormat MarkerFormat = LibYAMLFormat{}

// New analyzes the display string of err against the document it came from.
//
// The structured location reported by some YAML deserializers points at the
// wrong byte, while the rendered message describes the correct line and
// column, so only the message is used.
func New(text string, err error) ErrorAndContext {
	if err == nil {
		return ErrorAndContext{}
	}
	return Analyze(text, err.Error())
}

// Analyze extracts spans from message using DefaultFormat.
func Analyze(text, message string) ErrorAndContext {
	return AnalyzeWith(DefaultFormat, text, message)
}

// AnalyzeWith extracts spans from message using the given marker format.
//
// The first marker locates the error. When the message carries more than one
// marker, the last one locates the enclosing context. Unusable markers leave
// their span absent without affecting the other span or the message.
func AnalyzeWith(format MarkerFormat, text, message string) ErrorAndContext {
	if format == nil {
		format = DefaultFormat
	}

	markers := format.FindMarkers(message)
	result := ErrorAndContext{
		ErrorMessage: stripMarkers(message, markers),
	}
	if len(markers) == 0 {
		return result
	}

	result.ErrorSpan = resolveMarker(text, markers[0])
	if len(markers) > 1 {
		result.ContextSpan = resolveMarker(text, markers[len(markers)-1])
	}
	return result
}

func resolveMarker(text string, marker Marker) Span {
	if marker.Err != nil {
		return Span{Status: SpanMalformed, Line: marker.Line, Column: marker.Column, LineOnly: marker.LineOnly}
	}
	span := SpanAt(text, marker.Line, marker.Column)
	span.LineOnly = marker.LineOnly
	return span
}

// SpanAt resolves a 1-based line and column to a one-character span of text.
// The span is SpanOutOfRange when the position is not inside text.
func SpanAt(text string, line, column int) Span {
	span := Span{Line: line, Column: column}

	offset, err := ResolveOffset(text, line, column)
	if err != nil {
		span.Status = SpanOutOfRange
		return span
	}

	span.Status = SpanResolved
	span.Offset = offset
	span.Length = CharWidth(text, offset)
	return span
}

// stripMarkers removes the marker phrases from message. Markers must be
// ordered and non-overlapping.
func stripMarkers(message string, markers []Marker) string {
	if len(markers) == 0 {
		return message
	}

	var b strings.Builder
	b.Grow(len(message))
	last := 0
	for _, marker := range markers {
		b.WriteString(message[last:marker.Start])
		last = marker.End
	}
	b.WriteString(message[last:])
	return b.String()
}

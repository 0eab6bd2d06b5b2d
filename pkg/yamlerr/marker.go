package yamlerr

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformedMarker is returned for a location phrase whose line or column
// is not a positive integer.
var ErrMalformedMarker = errors.New("malformed location marker")

// Marker is a line/column location phrase found inside an error message.
type Marker struct {
	Line   int // 1-based, 0 when it could not be parsed
	Column int // 1-based, 0 when it could not be parsed
	Start  int // byte offset of the phrase in the message
	End    int // byte offset just past the phrase
	Err    error

	// LineOnly is set when the library reported no column and Column was
	// filled in.
	LineOnly bool
}

// MarkerFormat recognizes the location phrases of one YAML library. The
// wording is owned by that library, so each format keeps its matching to a
// single routine.
type MarkerFormat interface {
	// FindMarkers returns the markers of message in left-to-right order.
	FindMarkers(message string) []Marker
}

// LibYAMLFormat matches " at line L column C", the rendering used by
// libyaml-based deserializers such as serde_yaml:
//
//	outer: missing field `field_2` at line 3 column 3
type LibYAMLFormat struct{}

// Both numbers are matched loosely so that parsePositive can report a
// malformed marker instead of leaving the phrase in the message.
var libYAMLMarkerPattern = regexp.MustCompile(`\s*\bat line ([-+]?\w+)(?: column ([-+]?\w+))?`)

// FindMarkers implements MarkerFormat.
func (LibYAMLFormat) FindMarkers(message string) []Marker {
	var markers []Marker
	for _, loc := range libYAMLMarkerPattern.FindAllStringSubmatchIndex(message, -1) {
		column := ""
		if loc[4] >= 0 {
			column = message[loc[4]:loc[5]]
		}
		markers = append(markers, newMarker(loc[0], loc[1], message[loc[2]:loc[3]], column))
	}
	return markers
}

// GoYAMLv3Format matches the "line L: " prefixes of gopkg.in/yaml.v3 errors,
// optionally followed by "column C: ". The library rarely reports a column;
// column 1 is assumed when it is missing and the marker is flagged LineOnly.
//
//	yaml: line 7: mapping values are not allowed in this context
//	yaml: unmarshal errors:
//	  line 4: cannot unmarshal !!str `abc` into int
type GoYAMLv3Format struct{}

var goYAMLv3MarkerPattern = regexp.MustCompile(`(?m)^[ \t]*(?:yaml: )?(line ([-+]?\w+):(?: column ([-+]?\w+):)? ?)`)

// FindMarkers implements MarkerFormat.
func (GoYAMLv3Format) FindMarkers(message string) []Marker {
	var markers []Marker
	for _, loc := range goYAMLv3MarkerPattern.FindAllStringSubmatchIndex(message, -1) {
		if loc[6] < 0 {
			marker := newMarker(loc[2], loc[3], message[loc[4]:loc[5]], "1")
			marker.LineOnly = true
			markers = append(markers, marker)
			continue
		}
		markers = append(markers, newMarker(loc[2], loc[3], message[loc[4]:loc[5]], message[loc[6]:loc[7]]))
	}
	return markers
}

// GoccyFormat matches the "[L:C] " prefix of github.com/goccy/go-yaml errors
// rendered without source excerpts.
//
//	[2:3] unexpected key name
type GoccyFormat struct{}

var goccyMarkerPattern = regexp.MustCompile(`^\[([-+]?\w+):([-+]?\w+)\] ?`)

// FindMarkers implements MarkerFormat.
func (GoccyFormat) FindMarkers(message string) []Marker {
	loc := goccyMarkerPattern.FindStringSubmatchIndex(message)
	if loc == nil {
		return nil
	}
	return []Marker{newMarker(loc[0], loc[1], message[loc[2]:loc[3]], message[loc[4]:loc[5]])}
}

// FormatByName returns the marker format registered under name.
func FormatByName(name string) (MarkerFormat, error) {
	switch name {
	case "", "libyaml":
		return LibYAMLFormat{}, nil
	case "yaml.v3":
		return GoYAMLv3Format{}, nil
	case "goccy":
		return GoccyFormat{}, nil
	}
	return nil, fmt.Errorf("unknown marker format '%s'. Must be 'libyaml', 'yaml.v3', or 'goccy'", name)
}

func newMarker(start, end int, lineText, columnText string) Marker {
	marker := Marker{Start: start, End: end}

	line, lineOK := parsePositive(lineText)
	column, columnOK := parsePositive(columnText)
	if lineOK {
		marker.Line = line
	}
	if columnOK {
		marker.Column = column
	}
	if !lineOK || !columnOK {
		marker.Err = fmt.Errorf("%w: line %q column %q", ErrMalformedMarker, lineText, columnText)
	}
	return marker
}

func parsePositive(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

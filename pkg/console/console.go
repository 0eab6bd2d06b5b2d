package console

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/githubnext/yamlctx/pkg/yamlerr"
	"github.com/mattn/go-isatty"
)

// Diagnostic is a located YAML error ready for rendering
type Diagnostic struct {
	File    string
	Source  string       // full text the spans point into
	Type    string       // "error", "warning", "info"
	Message string
	Primary yamlerr.Span // where the error is
	Context yamlerr.Span // enclosing key, optional
	Hint    string       // Optional hint for fixing the error
}

// NewDiagnostic builds an error diagnostic from an analyzed record
func NewDiagnostic(file, source string, record yamlerr.ErrorAndContext) Diagnostic {
	return Diagnostic{
		File:    file,
		Source:  source,
		Type:    "error",
		Message: record.ErrorMessage,
		Primary: record.ErrorSpan,
		Context: record.ContextSpan,
	}
}

// Styles for different error types
var (
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5555"))

	warningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))

	infoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	filePathStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#BD93F9"))

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	contextLineStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F8F8F2"))

	highlightStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#FF5555")).
			Foreground(lipgloss.Color("#282A36"))

	contextMarkerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#8BE9FD"))

	hintStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#50FA7B"))
)

// isTTY checks if stdout is a terminal
func isTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// applyStyle conditionally applies styling based on TTY status
func applyStyle(style lipgloss.Style, text string) string {
	if isTTY() {
		return style.Render(text)
	}
	return text
}

// ToRelativePath converts an absolute path to a relative path from the current working directory
func ToRelativePath(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}

	wd, err := os.Getwd()
	if err != nil {
		return path
	}

	relPath, err := filepath.Rel(wd, path)
	if err != nil {
		return path
	}

	return relPath
}

// FormatDiagnostic renders a diagnostic with a source excerpt. The primary
// span gets a caret, the context span a dash. A line-only primary span has no
// column in the header and underlines its whole line. Without a resolved
// primary span only the header and message are printed.
func FormatDiagnostic(d Diagnostic) string {
	var output strings.Builder

	var typeStyle lipgloss.Style
	var prefix string
	switch d.Type {
	case "warning":
		typeStyle = warningStyle
		prefix = "warning"
	case "info":
		typeStyle = infoStyle
		prefix = "info"
	default:
		typeStyle = errorStyle
		prefix = "error"
	}

	primaryLine, primaryColumn, primaryErr := spanPosition(d.Source, d.Primary)

	// IDE-parseable format: file:line:column: type: message
	if d.File != "" {
		location := ToRelativePath(d.File) + ":"
		switch {
		case primaryErr != nil:
		case d.Primary.LineOnly:
			location = fmt.Sprintf("%s%d:", location, primaryLine)
		default:
			location = fmt.Sprintf("%s%d:%d:", location, primaryLine, primaryColumn)
		}
		output.WriteString(applyStyle(filePathStyle, location))
		output.WriteString(" ")
	}

	output.WriteString(applyStyle(typeStyle, prefix+":"))
	output.WriteString(" ")
	output.WriteString(d.Message)
	output.WriteString("\n")

	if primaryErr == nil {
		output.WriteString(renderExcerpt(d, primaryLine))
	}

	if d.Hint != "" {
		output.WriteString("\n")
		output.WriteString(applyStyle(hintStyle, "hint: "))
		output.WriteString(d.Hint)
		output.WriteString("\n")
	}

	return output.String()
}

func spanPosition(source string, span yamlerr.Span) (int, int, error) {
	if !span.Resolved() {
		return 0, 0, span.Err()
	}
	return yamlerr.LineColumn(source, span.Offset)
}

// marker is an underline starting at a byte column of a line
type marker struct {
	byteColumn int
	symbol     string
	style      lipgloss.Style
}

// renderExcerpt prints the lines around the primary span plus the context
// line, with "..." for skipped lines
func renderExcerpt(d Diagnostic, primaryLine int) string {
	lines := splitLines(d.Source)

	markers := make(map[int][]marker)
	shown := make(map[int]bool)
	addMarker := func(span yamlerr.Span, symbol string, style lipgloss.Style) int {
		line, column, err := spanPosition(d.Source, span)
		if err != nil || line > len(lines) {
			return 0
		}
		text := lines[line-1]
		byteColumn := byteIndexOfColumn(text, column)
		if span.LineOnly {
			trimmed := strings.TrimSpace(text)
			byteColumn = len(text) - len(strings.TrimLeft(text, " \t"))
			symbol = strings.Repeat("~", max(lipgloss.Width(trimmed), 1))
		}
		markers[line] = append(markers[line], marker{byteColumn: byteColumn, symbol: symbol, style: style})
		shown[line] = true
		return line
	}

	addMarker(d.Primary, "^", errorStyle)
	addMarker(d.Context, "-", contextMarkerStyle)
	for line := primaryLine - 1; line <= primaryLine+1; line++ {
		if line >= 1 && line <= len(lines) {
			shown[line] = true
		}
	}

	lineNumbers := make([]int, 0, len(shown))
	for line := range shown {
		lineNumbers = append(lineNumbers, line)
	}
	sort.Ints(lineNumbers)

	lineNumWidth := len(fmt.Sprintf("%d", lineNumbers[len(lineNumbers)-1]))

	var output strings.Builder
	for i, lineNum := range lineNumbers {
		if i > 0 && lineNum > lineNumbers[i-1]+1 {
			output.WriteString(applyStyle(lineNumberStyle, strings.Repeat(" ", lineNumWidth)+" ..."))
			output.WriteString("\n")
		}

		line := lines[lineNum-1]
		output.WriteString(applyStyle(lineNumberStyle, fmt.Sprintf("%*d", lineNumWidth, lineNum)))
		output.WriteString(" | ")
		output.WriteString(renderSourceLine(line, lineNum == primaryLine, markers[lineNum]))
		output.WriteString("\n")

		if lineMarkers := markers[lineNum]; len(lineMarkers) > 0 {
			output.WriteString(strings.Repeat(" ", lineNumWidth+3))
			output.WriteString(renderMarkerLine(line, lineMarkers))
			output.WriteString("\n")
		}
	}

	return output.String()
}

// renderSourceLine highlights the primary character when the line holds it
func renderSourceLine(line string, isPrimary bool, lineMarkers []marker) string {
	if isPrimary {
		for _, m := range lineMarkers {
			if m.symbol != "^" || m.byteColumn >= len(line) {
				continue
			}
			_, size := utf8.DecodeRuneInString(line[m.byteColumn:])
			return applyStyle(contextLineStyle, line[:m.byteColumn]) +
				applyStyle(highlightStyle, line[m.byteColumn:m.byteColumn+size]) +
				applyStyle(contextLineStyle, line[m.byteColumn+size:])
		}
	}
	return applyStyle(contextLineStyle, line)
}

// renderMarkerLine places marker symbols under their characters, padding by
// display width so wide characters keep the markers aligned
func renderMarkerLine(line string, lineMarkers []marker) string {
	sorted := append([]marker(nil), lineMarkers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].byteColumn < sorted[j].byteColumn })

	var output strings.Builder
	width := 0
	for _, m := range sorted {
		target := lipgloss.Width(line[:min(m.byteColumn, len(line))])
		if target < width {
			// the primary marker wins a shared character
			continue
		}
		output.WriteString(strings.Repeat(" ", target-width))
		output.WriteString(applyStyle(m.style, m.symbol))
		width = target + lipgloss.Width(m.symbol)
	}
	return output.String()
}

// byteIndexOfColumn returns the byte index of a 1-based character column
func byteIndexOfColumn(line string, column int) int {
	index := 0
	for i := 1; i < column && index < len(line); i++ {
		_, size := utf8.DecodeRuneInString(line[index:])
		index += size
	}
	return index
}

// splitLines splits text on "\r\n", "\n" and "\r", the same terminators the
// offset resolver counts
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	return append(lines, text[start:])
}

// FormatSuccessMessage formats a success message with styling
func FormatSuccessMessage(message string) string {
	successStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#50FA7B"))

	return applyStyle(successStyle, "✓ ") + message
}

// FormatInfoMessage formats an informational message
func FormatInfoMessage(message string) string {
	return applyStyle(infoStyle, "ℹ ") + message
}

// FormatWarningMessage formats a warning message
func FormatWarningMessage(message string) string {
	return applyStyle(warningStyle, "⚠ ") + message
}

// FormatVerboseMessage formats verbose debugging output
func FormatVerboseMessage(message string) string {
	verboseStyle := lipgloss.NewStyle().
		Italic(true).
		Foreground(lipgloss.Color("#6272A4"))

	return applyStyle(verboseStyle, "🔍 ") + message
}

// FormatLocationMessage formats a file/directory location message
func FormatLocationMessage(message string) string {
	locationStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFB86C"))

	return applyStyle(locationStyle, "📁 ") + message
}

// FormatErrorMessage formats a simple error message (for stderr output)
func FormatErrorMessage(message string) string {
	return applyStyle(errorStyle, "✗ ") + message
}

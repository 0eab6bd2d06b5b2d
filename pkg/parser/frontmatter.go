package parser

import (
	"strings"

	"github.com/githubnext/yamlctx/pkg/constants"
	"github.com/githubnext/yamlctx/pkg/yamlerr"
)

// Frontmatter is the YAML block at the top of a markdown document
type Frontmatter struct {
	YAML   string // text between the delimiter lines
	Offset int    // byte offset of YAML within the document
	Line   int    // 1-based document line where YAML starts
}

// ExtractFrontmatter finds a YAML block delimited by "---" lines at the start
// of content. It reports false when content has no closed frontmatter.
func ExtractFrontmatter(content string) (Frontmatter, bool) {
	first, rest, ok := cutLine(content)
	if !ok || strings.TrimSpace(first) != constants.FrontmatterDelimiter {
		return Frontmatter{}, false
	}

	start := len(content) - len(rest)
	pos := start
	for pos < len(content) {
		line, next, hasTerminator := cutLine(content[pos:])
		if strings.TrimSpace(line) == constants.FrontmatterDelimiter {
			return Frontmatter{
				YAML:   content[start:pos],
				Offset: start,
				Line:   2,
			}, true
		}
		if !hasTerminator {
			break
		}
		pos = len(content) - len(next)
	}

	return Frontmatter{}, false
}

// cutLine splits s after its first "\n"
func cutLine(s string) (line, rest string, found bool) {
	idx := strings.IndexByte(s, '\n')
	if idx < 0 {
		return s, "", false
	}
	return s[:idx+1], s[idx+1:], true
}

// Relocate maps a record analyzed against the frontmatter YAML onto the full
// document, so spans and lines refer to the markdown file.
func (f Frontmatter) Relocate(document string, record yamlerr.ErrorAndContext) yamlerr.ErrorAndContext {
	record.ErrorSpan = f.relocateSpan(document, record.ErrorSpan)
	record.ContextSpan = f.relocateSpan(document, record.ContextSpan)
	return record
}

func (f Frontmatter) relocateSpan(document string, span yamlerr.Span) yamlerr.Span {
	if !span.Resolved() {
		if span.Line > 0 {
			span.Line += f.Line - 1
		}
		return span
	}

	span.Offset += f.Offset
	if line, column, err := yamlerr.LineColumn(document, span.Offset); err == nil {
		span.Line, span.Column = line, column
	}
	return span
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/githubnext/yamlctx/pkg/console"
	"github.com/githubnext/yamlctx/pkg/parser"
	"github.com/githubnext/yamlctx/pkg/yamlerr"
)

// AnalyzeOptions configures the analyze command
type AnalyzeOptions struct {
	Message string
	Format  string // marker format name, see yamlerr.FormatByName
	JSON    bool
	Hint    string
	Verbose bool
}

// AnalyzeMessage locates an error message produced by another tool in the
// file it was reported for. Color codes in the message are ignored.
func AnalyzeMessage(path string, options AnalyzeOptions, out io.Writer) error {
	format, err := yamlerr.FormatByName(options.Format)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	source := string(content)

	message := parser.StripANSI(options.Message)
	record := yamlerr.AnalyzeWith(format, source, message)

	if options.Verbose {
		fmt.Fprintln(out, console.FormatVerboseMessage(fmt.Sprintf("Error span: %s, context span: %s", record.ErrorSpan.Status, record.ContextSpan.Status)))
	}

	if options.JSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return nil
	}

	diagnostic := console.NewDiagnostic(path, source, record)
	diagnostic.Hint = options.Hint
	fmt.Fprint(out, console.FormatDiagnostic(diagnostic))

	if !record.ErrorSpan.Resolved() {
		fmt.Fprintln(out, console.FormatWarningMessage(fmt.Sprintf("Error location unavailable: %v", record.ErrorSpan.Err())))
	}
	return nil
}

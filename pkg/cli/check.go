package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/githubnext/yamlctx/pkg/console"
	"github.com/githubnext/yamlctx/pkg/parser"
	"github.com/githubnext/yamlctx/pkg/yamlerr"
	"github.com/sourcegraph/conc/pool"
	"gopkg.in/yaml.v3"
)

// ErrDiagnosticsFound is returned by CheckFiles when any file has problems
var ErrDiagnosticsFound = errors.New("diagnostics found")

// CheckOptions configures a check run
type CheckOptions struct {
	Decoder     parser.Decoder
	SchemaPath  string
	Concurrency int
	Hint        string
	Verbose     bool
}

// FileResult is the outcome of checking one file
type FileResult struct {
	Path    string
	Source  string // text the record spans point into
	Records []yamlerr.ErrorAndContext
	Err     error // the file could not be read
}

// CheckFiles checks files and directories, printing diagnostics and a summary
// to out. Directories are searched recursively for YAML files.
func CheckFiles(paths []string, options CheckOptions, out io.Writer) error {
	files, err := collectFiles(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, console.FormatWarningMessage("No YAML files found"))
		return nil
	}

	var validator *parser.SchemaValidator
	if options.SchemaPath != "" {
		validator, err = LoadSchema(options.SchemaPath)
		if err != nil {
			return err
		}
	}

	if options.Verbose {
		fmt.Fprintln(out, console.FormatVerboseMessage(fmt.Sprintf("Checking %d file(s) with decoder %s", len(files), options.Decoder)))
	}

	spinner := console.NewSpinner(fmt.Sprintf("Checking %d file(s)...", len(files)))
	spinner.Start()
	results := checkFilesConcurrent(files, options, validator)
	spinner.Stop()

	return reportResults(results, options, out)
}

// checkFilesConcurrent checks files on a bounded pool and returns results in
// input order
func checkFilesConcurrent(files []string, options CheckOptions, validator *parser.SchemaValidator) []FileResult {
	type indexedResult struct {
		index  int
		result FileResult
	}

	p := pool.NewWithResults[indexedResult]().WithMaxGoroutines(max(options.Concurrency, 1))
	for i, file := range files {
		p.Go(func() indexedResult {
			return indexedResult{index: i, result: CheckFile(file, options.Decoder, validator)}
		})
	}

	indexed := p.Wait()
	sort.Slice(indexed, func(a, b int) bool { return indexed[a].index < indexed[b].index })

	results := make([]FileResult, len(indexed))
	for i, r := range indexed {
		results[i] = r.result
	}
	return results
}

// CheckFile decodes one file and validates it when validator is non-nil.
// Markdown files are checked through their frontmatter.
func CheckFile(path string, decoder parser.Decoder, validator *parser.SchemaValidator) FileResult {
	content, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: fmt.Errorf("failed to read file: %w", err)}
	}

	result := FileResult{Path: path, Source: string(content)}
	result.Records, result.Err = CheckContent(path, result.Source, decoder, validator)
	return result
}

// CheckContent returns the located problems of content
func CheckContent(path, content string, decoder parser.Decoder, validator *parser.SchemaValidator) ([]yamlerr.ErrorAndContext, error) {
	if !isMarkdown(path) {
		return checkYAML(content, decoder, validator)
	}

	frontmatter, found := parser.ExtractFrontmatter(content)
	if !found {
		return nil, nil
	}

	records, err := checkYAML(frontmatter.YAML, decoder, validator)
	for i := range records {
		records[i] = frontmatter.Relocate(content, records[i])
	}
	return records, err
}

func checkYAML(text string, decoder parser.Decoder, validator *parser.SchemaValidator) ([]yamlerr.ErrorAndContext, error) {
	doc, records, err := parser.DecodeDocument(text, decoder)
	if err != nil || len(records) > 0 || validator == nil {
		return records, err
	}

	violations := validator.Validate(doc)
	if len(violations) == 0 {
		return nil, nil
	}

	locator := parser.NewNodeLocator(text)
	records = make([]yamlerr.ErrorAndContext, 0, len(violations))
	for _, violation := range violations {
		records = append(records, parser.ViolationRecord(text, locator, violation))
	}
	return records, nil
}

func reportResults(results []FileResult, options CheckOptions, out io.Writer) error {
	var rows [][]string
	totalDiagnostics := 0
	failedFiles := 0

	for _, result := range results {
		status := "ok"
		switch {
		case result.Err != nil:
			status = "error"
			failedFiles++
			fmt.Fprintln(out, console.FormatErrorMessage(fmt.Sprintf("%s: %v", console.ToRelativePath(result.Path), result.Err)))
		case len(result.Records) > 0:
			status = "invalid"
			failedFiles++
			for _, record := range result.Records {
				diagnostic := console.NewDiagnostic(result.Path, result.Source, record)
				diagnostic.Hint = options.Hint
				fmt.Fprint(out, console.FormatDiagnostic(diagnostic))
			}
		case options.Verbose:
			fmt.Fprintln(out, console.FormatSuccessMessage(console.ToRelativePath(result.Path)))
		}

		totalDiagnostics += len(result.Records)
		rows = append(rows, []string{console.ToRelativePath(result.Path), status, strconv.Itoa(len(result.Records))})
	}

	if len(results) > 1 || options.Verbose {
		fmt.Fprintln(out)
		fmt.Fprint(out, console.RenderTable(console.TableConfig{
			Title:     "Check Summary",
			Headers:   []string{"File", "Status", "Diagnostics"},
			Rows:      rows,
			ShowTotal: true,
			TotalRow:  []string{"TOTAL", fmt.Sprintf("%d failed", failedFiles), strconv.Itoa(totalDiagnostics)},
		}))
	}

	if failedFiles > 0 {
		return fmt.Errorf("%w: %d diagnostic(s) in %d of %d file(s)", ErrDiagnosticsFound, totalDiagnostics, failedFiles, len(results))
	}

	fmt.Fprintln(out, console.FormatSuccessMessage(fmt.Sprintf("%d file(s) valid", len(results))))
	return nil
}

// LoadSchema reads a JSON schema file. Schemas written in YAML are accepted
// and converted to JSON first.
func LoadSchema(path string) (*parser.SchemaValidator, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	if isYAML(path) {
		var schemaDoc any
		if err := yaml.Unmarshal(content, &schemaDoc); err != nil {
			return nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
		}
		if content, err = json.Marshal(schemaDoc); err != nil {
			return nil, fmt.Errorf("failed to convert schema %s to JSON: %w", path, err)
		}
	}

	validator, err := parser.NewSchemaValidator(content)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return validator, nil
}

// collectFiles expands directories into the YAML files below them, skipping
// hidden entries. Explicitly named files are kept whatever their extension.
func collectFiles(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.WalkDir(path, func(file string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			hidden := file != path && strings.HasPrefix(entry.Name(), ".")
			if entry.IsDir() {
				if hidden {
					return filepath.SkipDir
				}
				return nil
			}
			if !hidden && isYAML(file) {
				files = append(files, file)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", path, err)
		}
	}
	return files, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isMarkdown(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".md"
}

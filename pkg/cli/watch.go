package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/githubnext/yamlctx/pkg/console"
	"github.com/githubnext/yamlctx/pkg/parser"
)

const debounceDelay = 300 * time.Millisecond

// WatchFiles checks every YAML file below dir, then re-checks files as they
// change until ctx is cancelled
func WatchFiles(ctx context.Context, dir string, options CheckOptions, out io.Writer) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	var validator *parser.SchemaValidator
	if options.SchemaPath != "" {
		if validator, err = LoadSchema(options.SchemaPath); err != nil {
			return err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, dir); err != nil {
		return err
	}

	fmt.Fprintln(out, console.FormatLocationMessage(fmt.Sprintf("Watching for file changes in %s...", dir)))
	if options.Verbose {
		fmt.Fprintln(out, "Press Ctrl+C to stop watching.")
	}

	if files, err := collectFiles([]string{dir}); err != nil {
		fmt.Fprintln(out, console.FormatWarningMessage(fmt.Sprintf("Initial check failed: %v", err)))
	} else if len(files) > 0 {
		checkChanged(files, options, validator, out)
	}

	debounce := time.NewTimer(debounceDelay)
	debounce.Stop()
	modifiedFiles := make(map[string]struct{})

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchDirs(watcher, event.Name); err != nil && options.Verbose {
						fmt.Fprintln(out, console.FormatWarningMessage(err.Error()))
					}
					continue
				}
			}

			if !isWatched(event.Name) {
				continue
			}

			if options.Verbose {
				fmt.Fprintln(out, console.FormatVerboseMessage(fmt.Sprintf("Detected change: %s (%s)", event.Name, event.Op.String())))
			}

			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				delete(modifiedFiles, event.Name)
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				modifiedFiles[event.Name] = struct{}{}
				debounce.Reset(debounceDelay)
			}

		case <-debounce.C:
			files := make([]string, 0, len(modifiedFiles))
			for file := range modifiedFiles {
				// the file may have been removed between detection and checking
				if _, err := os.Stat(file); err == nil {
					files = append(files, file)
				}
			}
			modifiedFiles = make(map[string]struct{})
			sort.Strings(files)
			if len(files) > 0 {
				checkChanged(files, options, validator, out)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if options.Verbose {
				fmt.Fprintln(out, console.FormatWarningMessage(fmt.Sprintf("Watcher error: %v", err)))
			}

		case <-ctx.Done():
			debounce.Stop()
			if options.Verbose {
				fmt.Fprintln(out, "Stopping watch mode...")
			}
			return nil
		}
	}
}

// checkChanged checks files and prints their diagnostics. Diagnostics do not
// stop the watch loop.
func checkChanged(files []string, options CheckOptions, validator *parser.SchemaValidator, out io.Writer) {
	results := checkFilesConcurrent(files, options, validator)
	if err := reportResults(results, options, out); err != nil && !errors.Is(err, ErrDiagnosticsFound) {
		fmt.Fprintln(out, console.FormatErrorMessage(err.Error()))
	}
}

// addWatchDirs watches root and every non-hidden directory below it;
// fsnotify watches are not recursive
func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}

func isWatched(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return isYAML(path) || isMarkdown(path)
}

package console

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// Spinner shows progress on stderr while long operations run. It does
// nothing when stderr is not a terminal, so redirected output stays clean.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a stopped spinner with the given message
func NewSpinner(message string) *Spinner {
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return &Spinner{}
	}

	return &Spinner{
		spinner: spinner.New(spinner.CharSets[14], 100*time.Millisecond,
			spinner.WithWriter(os.Stderr),
			spinner.WithSuffix(" "+message),
			spinner.WithColor("cyan"),
			spinner.WithHiddenCursor(true),
		),
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	if s.spinner != nil {
		s.spinner.Start()
	}
}

// Stop stops the animation and clears the spinner line
func (s *Spinner) Stop() {
	if s.spinner != nil {
		s.spinner.Stop()
	}
}

// IsEnabled reports whether the spinner draws anything
func (s *Spinner) IsEnabled() bool {
	return s.spinner != nil
}

package cmd

import (
	"fmt"

	"github.com/spiffcs/ghinbox/internal/tui"
)

// tuiFlag implements pflag.Value for the tri-state --tui flag.
type tuiFlag struct {
	opts *Options
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{opts: opts}
}

func (f *tuiFlag) String() string {
	switch {
	case f.opts.TUI == nil:
		return "auto"
	case *f.opts.TUI:
		return "true"
	}
	return "false"
}

func (f *tuiFlag) Set(s string) error {
	var v bool
	switch s {
	case "auto":
		f.opts.TUI = nil
		return nil
	case "true", "1", "yes":
		v = true
	case "false", "0", "no":
		v = false
	default:
		return fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	f.opts.TUI = &v
	return nil
}

func (f *tuiFlag) Type() string {
	return "bool"
}

func (f *tuiFlag) IsBoolFlag() bool {
	return true
}

// shouldUseTUI decides between the interactive inbox and plain pass logging.
func shouldUseTUI(opts *Options) bool {
	// Verbose logging would draw over the inbox
	if opts.Verbosity > 0 {
		return false
	}
	if opts.TUI != nil {
		return *opts.TUI
	}
	return tui.ShouldUseTUI()
}

package progress

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/term"

	"github.com/w3s-cli/w3s/internal/logging"
)

// Renderer draws aggregator frames and one-shot status lines. Implementations
// serialize their own writes and never fail the job on a write error.
type Renderer interface {
	// Draw redraws the live region for a frame.
	Draw(f Frame)
	// Print writes a one-shot line above the live region.
	Print(msg string)
	// Write lets a Renderer stand in as a log output; each call is printed
	// above the live region.
	io.Writer
	// Close settles the live region so later output starts on a fresh line.
	Close()
}

// Style selects a Renderer implementation.
type Style string

const (
	StyleLine   Style = "line"   // in-place status line
	StyleBars   Style = "bars"   // mpb aggregate bar
	StyleSimple Style = "simple" // schollz/progressbar bar
)

// ParseStyle validates a --progress value.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleLine, StyleBars, StyleSimple:
		return Style(s), nil
	default:
		return "", fmt.Errorf("unknown progress style %q (want line, bars or simple)", s)
	}
}

// Options configures NewRenderer.
type Options struct {
	Style     Style
	AltScreen bool
	// Log receives cosmetic write failures. It must not write to the renderer.
	Log *logging.Logger
}

// NewRenderer builds the renderer for out, detecting terminal capabilities
// when out is an *os.File.
func NewRenderer(out io.Writer, opts Options) Renderer {
	isTerminal := false
	var widthFn func() int
	if f, ok := out.(*os.File); ok {
		isTerminal = term.IsTerminal(int(f.Fd()))
		if isTerminal {
			enableANSIOnWindows(f)
			widthFn = func() int {
				w, _, err := term.GetSize(int(f.Fd()))
				if err != nil {
					return 0
				}
				return w
			}
		}
	}

	log := opts.Log
	if log == nil {
		log = logging.NewNopLogger()
	}

	switch opts.Style {
	case StyleBars:
		return NewBars(out, log)
	case StyleSimple:
		return NewSimple(out, log)
	default:
		return NewRegion(out, RegionOptions{
			ANSI:      isTerminal,
			Width:     widthFn,
			AltScreen: opts.AltScreen && isTerminal,
			Log:       log,
		})
	}
}

// enableANSIOnWindows enables Virtual Terminal processing on Windows for ANSI escape sequences
// This is a no-op on non-Windows platforms
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}

package progress

import (
	"io"
	"strings"
	"sync"

	"github.com/w3s-cli/w3s/internal/logging"
)

const (
	ansiClearLine      = "\x1b[2K"
	ansiEnterAltScreen = "\x1b[?1049h\x1b[H"
	ansiLeaveAltScreen = "\x1b[?1049l"
)

// RegionOptions configures a Region.
type RegionOptions struct {
	// ANSI enables in-place redraws. Without it the output is treated as a
	// log: every line ends in a newline and frames are printed only when the
	// active parts or the current file's completion change.
	ANSI bool
	// Width reports the terminal width; lines are truncated to fit. Nil or a
	// non-positive result disables truncation.
	Width func() int
	// AltScreen switches to the alternate screen on first output and back on Close.
	AltScreen bool
	// Log receives the first write failure.
	Log *logging.Logger
}

// Region redraws a single live line in place. The anchor is column zero of
// the live line, so a redraw is a carriage return, a line clear and the new
// content; no terminal line is emitted per update. Off a terminal it writes
// plain newline-terminated lines instead.
type Region struct {
	mu   sync.Mutex
	out  io.Writer
	opts RegionOptions

	started bool
	live    bool   // a live line is on screen
	last    string // content of the live line
	name    string
	hasName bool
	failed  bool
	closed  bool

	plainKey    string // last frame key printed without ANSI
	hasPlainKey bool
}

// NewRegion returns a Region writing to out.
func NewRegion(out io.Writer, opts RegionOptions) *Region {
	if opts.Log == nil {
		opts.Log = logging.NewNopLogger()
	}
	return &Region{out: out, opts: opts}
}

// Draw renders a frame as a status line, or as a named line for per-file views.
func (r *Region) Draw(f Frame) {
	if !r.opts.ANSI {
		r.drawPlain(f)
		return
	}
	if f.Named {
		r.Named(f.Name, f.Line())
		return
	}
	r.Status(f.Line())
}

// Status redraws the live line with line.
func (r *Region) Status(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if !r.opts.ANSI {
		r.write(line + "\n")
		return
	}
	r.redraw(line)
}

// Named redraws the live line for name. When name differs from the previous
// call, the previous line is kept and exactly one newline starts a new one.
func (r *Region) Named(name, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if !r.opts.ANSI {
		r.name, r.hasName = name, true
		r.write(line + "\n")
		return
	}

	if r.hasName && name != r.name && r.live {
		r.write("\n")
		r.live = false
		r.last = ""
	}
	r.name = name
	r.hasName = true
	r.redraw(line)
}

// Print writes msg on its own line above the live line.
func (r *Region) Print(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	msg = strings.TrimRight(msg, "\n")
	if r.live {
		r.moveToAnchor()
		r.clearLine()
	}
	r.write(msg + "\n")
	if r.live {
		r.write(r.last)
	}
}

// Write implements io.Writer by printing p above the live line.
func (r *Region) Write(p []byte) (int, error) {
	r.Print(string(p))
	return len(p), nil
}

// Close ends the live line and leaves the alternate screen if it was entered.
func (r *Region) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	if r.live {
		r.write("\n")
		r.live = false
	}
	if r.opts.AltScreen && r.started {
		r.write(ansiLeaveAltScreen)
	}
}

// drawPlain prints f on its own line when its key differs from the last
// printed frame. Status frames are keyed by the active part ids, named frames
// by the file name and whether that file is complete.
func (r *Region) drawPlain(f Frame) {
	key := formatIDs(f.Snapshot.Active)
	if f.Named {
		key = f.Name
		if f.PartPosition == f.PartTotal {
			key += "\x00done"
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || (r.hasPlainKey && key == r.plainKey) {
		return
	}
	r.plainKey, r.hasPlainKey = key, true
	r.write(f.Line() + "\n")
}

func (r *Region) redraw(line string) {
	line = r.truncate(line)
	r.moveToAnchor()
	r.clearLine()
	r.write(line)
	r.last = line
	r.live = true
}

func (r *Region) moveToAnchor() {
	r.write("\r")
}

func (r *Region) clearLine() {
	r.write(ansiClearLine)
}

func (r *Region) truncate(line string) string {
	if r.opts.Width == nil {
		return line
	}
	width := r.opts.Width()
	if width <= 1 {
		return line
	}
	runes := []rune(line)
	if len(runes) < width {
		return line
	}
	// Leave the last column free so the cursor never wraps.
	return string(runes[:width-1])
}

func (r *Region) write(s string) {
	if !r.started {
		r.started = true
		if r.opts.AltScreen {
			r.write(ansiEnterAltScreen)
		}
	}
	if _, err := io.WriteString(r.out, s); err != nil && !r.failed {
		r.failed = true
		r.opts.Log.Warn().Err(err).Msg("terminal write failed; further failures are ignored")
	}
}

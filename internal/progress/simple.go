package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/w3s-cli/w3s/internal/constants"
	"github.com/w3s-cli/w3s/internal/logging"
)

// Simple renders the aggregate with a single schollz/progressbar bar whose
// description follows the frame.
type Simple struct {
	mu     sync.Mutex
	out    io.Writer
	bar    *progressbar.ProgressBar
	log    *logging.Logger
	failed bool
	closed bool
}

// NewSimple returns a Simple renderer writing to out.
func NewSimple(out io.Writer, log *logging.Logger) *Simple {
	return &Simple{out: out, log: log}
}

// Draw moves the bar to the frame snapshot.
func (s *Simple) Draw(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.bar == nil {
		s.bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(s.out),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(constants.SimpleBarThrottle),
			progressbar.OptionSpinnerType(14),
		)
	}

	desc := fmt.Sprintf("active parts: [%s]", formatIDs(f.Snapshot.Active))
	if f.Named {
		desc = f.Name
	}
	s.bar.Describe(desc)
	s.bar.ChangeMax64(int64(f.Snapshot.Total))
	s.check(s.bar.Set64(int64(f.Snapshot.Position)))
}

// Print clears the bar, writes msg and lets the next Draw redraw the bar.
func (s *Simple) Print(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar != nil && !s.closed {
		s.check(s.bar.Clear())
	}
	_, err := fmt.Fprintln(s.out, strings.TrimRight(msg, "\n"))
	s.check(err)
}

// Write implements io.Writer by printing p above the bar.
func (s *Simple) Write(p []byte) (int, error) {
	s.Print(string(p))
	return len(p), nil
}

// Close finishes the bar.
func (s *Simple) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.bar != nil {
		s.check(s.bar.Finish())
		_, err := fmt.Fprintln(s.out)
		s.check(err)
	}
}

func (s *Simple) check(err error) {
	if err != nil && !s.failed {
		s.failed = true
		s.log.Warn().Err(err).Msg("terminal write failed; further failures are ignored")
	}
}

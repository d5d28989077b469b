package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/w3s-cli/w3s/internal/constants"
	"github.com/w3s-cli/w3s/internal/logging"
)

// Bars renders the aggregate as a single mpb bar. The active part list is a
// decorator and per-file views print each new file name above the bar.
type Bars struct {
	mu       sync.Mutex
	progress *mpb.Progress
	bar      *mpb.Bar
	log      *logging.Logger

	label  atomic.Value // string
	active atomic.Value // string
	name   string
	failed bool
	closed bool
}

// NewBars returns a Bars renderer writing to out.
func NewBars(out io.Writer, log *logging.Logger) *Bars {
	b := &Bars{
		progress: mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(constants.BarsRefreshRate),
			mpb.WithWidth(60),
		),
		log: log,
	}
	b.label.Store("transfer")
	b.active.Store("")
	return b
}

// Draw updates the bar totals from the frame snapshot.
func (b *Bars) Draw(f Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if f.Named && f.Name != b.name {
		b.name = f.Name
		b.label.Store(f.Name)
		b.printLocked(f.Name)
	}
	if b.bar == nil {
		b.bar = b.newBar()
	}

	b.active.Store(formatIDs(f.Snapshot.Active))
	b.bar.SetTotal(int64(f.Snapshot.Total), false)
	b.bar.SetCurrent(int64(f.Snapshot.Position))
}

func (b *Bars) newBar() *mpb.Bar {
	return b.progress.New(0,
		mpb.BarStyle().
			Lbound("[").
			Filler("█").
			Tip("█").
			Padding("░").
			Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				return b.label.Load().(string)
			}, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .2f / % .2f", decor.WCSyncSpace),
			decor.Name("  "),
			decor.Percentage(decor.WCSyncSpace),
			decor.Any(func(decor.Statistics) string {
				if ids := b.active.Load().(string); ids != "" {
					return fmt.Sprintf("  active parts: [%s]", ids)
				}
				return ""
			}),
		),
	)
}

// Print writes msg above the bar.
func (b *Bars) Print(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.printLocked(msg)
}

func (b *Bars) printLocked(msg string) {
	if b.closed {
		return
	}
	if _, err := b.progress.Write([]byte(strings.TrimRight(msg, "\n") + "\n")); err != nil && !b.failed {
		b.failed = true
		b.log.Warn().Err(err).Msg("terminal write failed; further failures are ignored")
	}
}

// Write implements io.Writer by printing p above the bar.
func (b *Bars) Write(p []byte) (int, error) {
	b.Print(string(p))
	return len(p), nil
}

// Close completes the bar and waits for the final refresh.
func (b *Bars) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	if b.bar != nil {
		b.bar.SetTotal(-1, true)
	}
	b.mu.Unlock()

	b.progress.Wait()
}

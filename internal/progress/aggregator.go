// Package progress reduces concurrent per-part progress events into a single
// summary and renders it to the terminal.
package progress

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/w3s-cli/w3s/internal/constants"
)

// PartProgress is the latest known state of one part.
type PartProgress struct {
	Position uint64
	Total    uint64
	Finished bool // Position == Total
}

// Snapshot is the reduced view of every tracked part at one point in time.
type Snapshot struct {
	Position uint64 // sum of positions
	Total    uint64 // sum of totals
	Active   []int  // unfinished part ids, ascending
}

// Frame is one render request emitted by the Aggregator.
type Frame struct {
	// Name is the part name of the event that produced the frame.
	Name string
	// Named frames belong to per-file displays (directory downloads).
	Named    bool
	Snapshot Snapshot
	// PartPosition and PartTotal are the values carried by the event itself.
	PartPosition uint64
	PartTotal    uint64
}

// Line renders the frame as a single status line.
func (f Frame) Line() string {
	overall := fmt.Sprintf("%s/%s",
		FormatBytes(f.Snapshot.Position, constants.ByteDigits),
		FormatBytes(f.Snapshot.Total, constants.ByteDigits))
	if f.Named {
		return fmt.Sprintf("%s: %s/%s (%s)", f.Name,
			FormatBytes(f.PartPosition, constants.ByteDigits),
			FormatBytes(f.PartTotal, constants.ByteDigits),
			overall)
	}
	return fmt.Sprintf("%s active parts: [%s]", overall, formatIDs(f.Snapshot.Active))
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, " ")
}

// Aggregator tracks per-part progress for one in-flight transfer. Update may
// be called from any number of goroutines; every update and the render it
// triggers run inside one critical section.
type Aggregator struct {
	mu       sync.Mutex
	parts    map[int]PartProgress
	renderer Renderer
	named    bool
}

// NewAggregator returns an aggregator that draws a line view on r.
func NewAggregator(r Renderer) *Aggregator {
	return &Aggregator{parts: make(map[int]PartProgress), renderer: r}
}

// NewNamedAggregator returns an aggregator that draws a per-name view on r,
// used when consecutive events belong to different files.
func NewNamedAggregator(r Renderer) *Aggregator {
	a := NewAggregator(r)
	a.named = true
	return a
}

// Update records an event and renders the new snapshot. Its signature matches
// transfer.ProgressFunc.
func (a *Aggregator) Update(partName string, partID int, position, total uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.parts[partID] = PartProgress{
		Position: position,
		Total:    total,
		Finished: position == total,
	}

	if a.renderer == nil {
		return
	}
	a.renderer.Draw(Frame{
		Name:         partName,
		Named:        a.named,
		Snapshot:     a.snapshotLocked(),
		PartPosition: position,
		PartTotal:    total,
	})
}

// Snapshot returns the current reduced view.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// Part returns the tracked state of one part.
func (a *Aggregator) Part(partID int) (PartProgress, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.parts[partID]
	return p, ok
}

func (a *Aggregator) snapshotLocked() Snapshot {
	s := Snapshot{Active: make([]int, 0, len(a.parts))}
	for id, p := range a.parts {
		s.Position += p.Position
		s.Total += p.Total
		if !p.Finished {
			s.Active = append(s.Active, id)
		}
	}
	slices.Sort(s.Active)
	return s
}

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress for long-running batch operations.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
}

// barProgress renders a single-line progress bar.
type barProgress struct {
	mu      sync.Mutex
	total   int64
	current int64
	started time.Time
	writer  io.Writer
}

// NewProgressReporter returns a text progress reporter writing to w, or to
// os.Stderr when w is nil.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &barProgress{writer: w}
}

func (p *barProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.current = 0
	p.started = time.Now()
	p.render()
}

func (p *barProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	p.render()
}

func (p *barProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.render()
	fmt.Fprintln(p.writer)
}

func (p *barProgress) render() {
	if p.total == 0 {
		return
	}

	percent := float64(p.current) / float64(p.total) * 100
	const width = 30
	filled := int(width * percent / 100)
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", width-filled)

	elapsed := time.Since(p.started).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / elapsed
	}

	fmt.Fprintf(p.writer, "\r[%s] %d/%d (%.0f%%) %.1f docs/s",
		bar, p.current, p.total, percent, rate)
}

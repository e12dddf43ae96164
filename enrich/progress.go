package enrich

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports enrichment progress on a single rewritten
// terminal line: profiles completed, READMEs collected so far, and
// throughput. Pool workers report completions concurrently through Done.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	reportInterval int

	mu        sync.Mutex
	started   bool
	startTime time.Time
	profiles  int
	readmes   int
	lastShown int
}

// NewProgressTracker returns a tracker writing to writer, typically
// os.Stderr. A line is printed every reportInterval completed profiles
// and once more on Finish.
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start resets the counters and begins timing.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started = true
	p.startTime = time.Now()
	p.profiles = 0
	p.readmes = 0
	p.lastShown = 0
}

// Done records one completed profile and the number of READMEs it
// yielded.
func (p *ProgressTracker) Done(readmes int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.profiles++
	if p.profiles > p.total {
		p.profiles = p.total
	}
	p.readmes += readmes

	if p.profiles-p.lastShown >= p.reportInterval {
		p.report()
		p.lastShown = p.profiles
	}
}

// Readmes returns the number of READMEs recorded so far.
func (p *ProgressTracker) Readmes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readmes
}

// Finish prints a final progress line for whatever has completed, then
// a trailing newline. Counts are not forced to total.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.profiles) / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.profiles) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d profiles (%.1f%%) - %d readmes - %.1f profiles/s",
		p.profiles, p.total, percentage, p.readmes, rate)
}

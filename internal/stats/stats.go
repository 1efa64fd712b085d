// Package stats periodically logs pipeline counters next to host load.
package stats

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Source reports named counters; values are running totals.
type Source func() map[string]int64

// Host is a snapshot of machine load.
type Host struct {
	CPUPercent float64
	MemPercent float64
}

// ReadHost samples CPU and memory usage. Errors leave fields at zero.
func ReadHost() Host {
	var h Host
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		h.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		h.MemPercent = vm.UsedPercent
	}
	return h
}

// Reporter logs per-second rates of its sources every interval.
type Reporter struct {
	name     string
	interval time.Duration
	sources  []Source
	host     func() Host
	logf     func(format string, args ...any)
}

func NewReporter(name string, interval time.Duration, sources ...Source) *Reporter {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Reporter{
		name:     name,
		interval: interval,
		sources:  sources,
		host:     ReadHost,
		logf:     log.Printf,
	}
}

// Run blocks until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	last := r.collect()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cur := r.collect()
			r.logf("%s", r.Line(last, cur))
			last = cur
		}
	}
}

func (r *Reporter) collect() map[string]int64 {
	all := make(map[string]int64)
	for _, src := range r.sources {
		for k, v := range src() {
			all[k] = v
		}
	}
	return all
}

// Line formats one report from two successive snapshots.
func (r *Reporter) Line(prev, cur map[string]int64) string {
	secs := int64(r.interval / time.Second)
	if secs < 1 {
		secs = 1
	}
	keys := make([]string, 0, len(cur))
	for k := range cur {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] stats", r.name)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%d(+%d/s)", k, cur[k], (cur[k]-prev[k])/secs)
	}
	h := r.host()
	fmt.Fprintf(&b, " cpu=%.1f%% mem=%.1f%%", h.CPUPercent, h.MemPercent)
	return b.String()
}


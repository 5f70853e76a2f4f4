// Package perf keeps a bounded window of request and query timings for the
// health endpoint and the admin dashboard.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultWindow is the default number of samples kept.
const DefaultWindow = 5000

// Kind distinguishes request and query samples.
type Kind uint8

const (
	KindRequest Kind = iota
	KindQuery
)

// Sample is one timing record.
type Sample struct {
	Kind       Kind
	Label      string // "GET /projects" or the query operation
	Status     int    // HTTP status, 0 for queries
	DurationMs float64
	At         time.Time
}

// Collector keeps the most recent samples in a ring.
// When full, the oldest sample is overwritten.
type Collector struct {
	mu      sync.Mutex
	ring    []Sample
	next    int
	started time.Time
	total   atomic.Int64
}

// NewCollector creates a collector keeping up to window samples.
// PRE: none; window <= 0 means DefaultWindow
func NewCollector(window int) *Collector {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Collector{ring: make([]Sample, window), started: time.Now()}
}

// Record stores a sample.
func (c *Collector) Record(s Sample) {
	c.mu.Lock()
	c.ring[c.next] = s
	c.next = (c.next + 1) % len(c.ring)
	c.mu.Unlock()
	c.total.Add(1)
}

// RecordRequest stores a request sample.
func (c *Collector) RecordRequest(method, path string, status int, d time.Duration) {
	c.Record(Sample{Kind: KindRequest, Label: method + " " + path, Status: status, DurationMs: ms(d), At: time.Now()})
}

// RecordQuery stores a query sample.
func (c *Collector) RecordQuery(op string, d time.Duration) {
	c.Record(Sample{Kind: KindQuery, Label: op, DurationMs: ms(d), At: time.Now()})
}

// Total returns the number of samples ever recorded.
func (c *Collector) Total() int64 {
	return c.total.Load()
}

// Stats summarises the samples of one kind.
type Stats struct {
	Count int     `json:"count"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	MaxMs float64 `json:"max_ms"`
}

// LabelStat is the average timing of one label.
type LabelStat struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	AvgMs float64 `json:"avg_ms"`
}

// Snapshot is the aggregated view of the window.
type Snapshot struct {
	Uptime          string      `json:"uptime"`
	Recorded        int64       `json:"recorded"`
	Requests        Stats       `json:"requests"`
	Queries         Stats       `json:"queries"`
	SlowestRequests []LabelStat `json:"slowest_requests"`
	Errors          int         `json:"server_errors"`
}

// Snapshot aggregates the current window. Sorting happens here, never on Record.
// PRE: topN >= 0
// POST: SlowestRequests holds at most topN labels, slowest average first
func (c *Collector) Snapshot(topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Sample, len(c.ring))
	copy(buf, c.ring)
	c.mu.Unlock()

	var reqs, queries []float64
	byLabel := make(map[string]*LabelStat)
	errs := 0
	for _, s := range buf {
		if s.At.IsZero() {
			continue
		}
		if s.Kind == KindQuery {
			queries = append(queries, s.DurationMs)
			continue
		}
		reqs = append(reqs, s.DurationMs)
		if s.Status >= 500 {
			errs++
		}
		ls, ok := byLabel[s.Label]
		if !ok {
			ls = &LabelStat{Label: s.Label}
			byLabel[s.Label] = ls
		}
		ls.Count++
		ls.AvgMs += s.DurationMs
	}

	slowest := make([]LabelStat, 0, len(byLabel))
	for _, ls := range byLabel {
		ls.AvgMs /= float64(ls.Count)
		slowest = append(slowest, *ls)
	}
	sort.Slice(slowest, func(i, j int) bool { return slowest[i].AvgMs > slowest[j].AvgMs })
	if len(slowest) > topN {
		slowest = slowest[:topN]
	}

	return Snapshot{
		Uptime:          time.Since(c.started).Round(time.Second).String(),
		Recorded:        c.Total(),
		Requests:        summarise(reqs),
		Queries:         summarise(queries),
		SlowestRequests: slowest,
		Errors:          errs,
	}
}

func summarise(durations []float64) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	sort.Float64s(durations)
	return Stats{
		Count: len(durations),
		P50Ms: percentile(durations, 50),
		P95Ms: percentile(durations, 95),
		MaxMs: durations[len(durations)-1],
	}
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

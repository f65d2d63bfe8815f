package usecase

import (
	"sort"
	"sync"
	"time"
)

// matchSettleWindow is how long after kickoff a match may still be unfinished upstream.
// Kickoffs closer than this to a fetch are not treated as fully known.
const matchSettleWindow = 3 * time.Hour

type kickoffRange struct {
	start time.Time
	end   time.Time
}

// coverage tracks kickoff ranges for which the store holds every finished match,
// because the whole range was fetched from upstream and persisted after it closed.
// It lives in process memory only; after a restart every closed week is fetched once more.
type coverage struct {
	mu    sync.Mutex
	ranges []kickoffRange
}

// markFetched records [start, end] as complete given an upstream fetch that began at
// fetchedAt. The end is clipped so matches possibly still running at fetch time stay out.
func (c *coverage) markFetched(start, end, fetchedAt time.Time) {
	settled := fetchedAt.Add(-matchSettleWindow)
	if end.After(settled) {
		end = settled
	}
	if !start.IsZero() && !end.After(start) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ranges = append(c.ranges, kickoffRange{start: start, end: end})
	sort.Slice(c.ranges, func(i, j int) bool { return c.ranges[i].start.Before(c.ranges[j].start) })

	merged := c.ranges[:1]
	for _, next := range c.ranges[1:] {
		last := &merged[len(merged)-1]
		if next.start.After(last.end) {
			merged = append(merged, next)
			continue
		}
		if next.end.After(last.end) {
			last.end = next.end
		}
	}
	c.ranges = merged
}

// covers reports whether [start, end] lies inside a single recorded range.
func (c *coverage) covers(start, end time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.ranges {
		if !start.Before(r.start) && !end.After(r.end) {
			return true
		}
	}
	return false
}

package usecase

import (
	"testing"
	"time"
)

func TestCoverage_Covers(t *testing.T) {
	t.Parallel()

	day := func(n int) time.Time { return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC) }
	fetchedAt := day(30)

	var c coverage
	c.markFetched(day(1), day(8), fetchedAt)
	c.markFetched(day(8), day(15), fetchedAt)
	c.markFetched(day(20), day(27), fetchedAt)

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{name: "single fetched week", start: day(20), end: day(27), want: true},
		{name: "spans adjacent fetched weeks", start: day(4), end: day(11), want: true},
		{name: "reaches into the gap", start: day(12), end: day(19), want: false},
		{name: "before anything fetched", start: day(1).Add(-time.Hour), end: day(5), want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := c.covers(tc.start, tc.end); got != tc.want {
				t.Fatalf("covers(%s, %s) = %t, want %t", tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestCoverage_ClipsKickoffsNearFetch(t *testing.T) {
	t.Parallel()

	fetchedAt := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	start := fetchedAt.Add(-7 * 24 * time.Hour)
	end := fetchedAt.Add(-time.Hour)

	var c coverage
	c.markFetched(start, end, fetchedAt)

	if c.covers(start, end) {
		t.Fatalf("window ending inside the settle margin must not be fully covered")
	}
	if !c.covers(start, fetchedAt.Add(-matchSettleWindow)) {
		t.Fatalf("expected coverage up to the settle margin")
	}
}

func TestCoverage_RefreshCoversEverythingBefore(t *testing.T) {
	t.Parallel()

	startedAt := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	var c coverage
	c.markFetched(time.Time{}, startedAt, startedAt)

	if !c.covers(time.Date(2019, 8, 9, 0, 0, 0, 0, time.UTC), time.Date(2019, 8, 16, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("refresh should cover old weeks")
	}
	if c.covers(startedAt.Add(-24*time.Hour), startedAt) {
		t.Fatalf("refresh must not cover kickoffs inside the settle margin")
	}
}

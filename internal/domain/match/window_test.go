package match

import (
	"testing"
	"time"
)

func TestWeekWindow_KnownOffsets(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		offset    int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "current week",
			offset:    0,
			wantStart: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "previous week",
			offset:    -1,
			wantStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "next week",
			offset:    1,
			wantStart: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeekWindow(tt.offset, now)
			if !got.WeekStart.Equal(tt.wantStart) {
				t.Fatalf("week start mismatch: got=%s want=%s", got.WeekStart, tt.wantStart)
			}
			if !got.WeekEnd.Equal(tt.wantEnd) {
				t.Fatalf("week end mismatch: got=%s want=%s", got.WeekEnd, tt.wantEnd)
			}
			if got.Offset != tt.offset {
				t.Fatalf("offset mismatch: got=%d want=%d", got.Offset, tt.offset)
			}
		})
	}
}

func TestWeekWindow_AlwaysSevenDays(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+7", 7*60*60)
	now := time.Date(2025, 10, 26, 1, 30, 0, 0, loc)
	for offset := -600; offset <= 600; offset += 7 {
		w := WeekWindow(offset, now)
		if got := w.WeekEnd.Sub(w.WeekStart); got != 7*24*time.Hour {
			t.Fatalf("offset=%d: window length %s, want 168h", offset, got)
		}
	}
}

func TestWindow_ContainsIsInclusive(t *testing.T) {
	t.Parallel()

	w := WeekWindow(0, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	if !w.Contains(w.WeekStart) {
		t.Fatalf("expected week start to be inside window")
	}
	if !w.Contains(w.WeekEnd) {
		t.Fatalf("expected week end to be inside window")
	}
	if w.Contains(w.WeekStart.Add(-time.Second)) {
		t.Fatalf("expected instant before week start to be outside window")
	}
	if w.Contains(w.WeekEnd.Add(time.Second)) {
		t.Fatalf("expected instant after week end to be outside window")
	}
}

func TestWindow_DayBounds(t *testing.T) {
	t.Parallel()

	w := WeekWindow(-1, time.Date(2024, 3, 15, 18, 45, 0, 0, time.UTC))
	if got := w.DateFrom(); got != "2024-03-01" {
		t.Fatalf("unexpected date from: %s", got)
	}
	if got := w.DateTo(); got != "2024-03-08" {
		t.Fatalf("unexpected date to: %s", got)
	}
}

package match

import "time"

const (
	daysPerWeek = 7
	dayLayout   = "2006-01-02"
)

// Window is the instant range covered by one week offset. WeekEnd-WeekStart is always 7 days.
type Window struct {
	WeekStart time.Time
	WeekEnd   time.Time
	Offset    int
}

// WeekWindow resolves an offset relative to now. Offset 0 is the seven days ending at now,
// -1 the seven days before that. Computed in UTC so every week is exactly 7*24h.
func WeekWindow(offset int, now time.Time) Window {
	end := now.UTC().AddDate(0, 0, offset*daysPerWeek)
	return Window{
		WeekStart: end.AddDate(0, 0, -daysPerWeek),
		WeekEnd:   end,
		Offset:    offset,
	}
}

// Contains is inclusive on both bounds, so adjacent windows share their boundary instant.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.WeekStart) && !t.After(w.WeekEnd)
}

// ClosedAt reports whether the whole window lies strictly before now.
func (w Window) ClosedAt(now time.Time) bool {
	return w.WeekEnd.Before(now)
}

func (w Window) DateFrom() string {
	return w.WeekStart.UTC().Format(dayLayout)
}

func (w Window) DateTo() string {
	return w.WeekEnd.UTC().Format(dayLayout)
}

package courts

import (
	"sort"
	"time"

	"github.com/Dosada05/tournament-staging/models"
)

// TimingStatus ranks a pending match by how soon it should be on a court.
// Меньшее значение — выше приоритет.
type TimingStatus int

const (
	TimingInProgress TimingStatus = iota
	TimingUpcoming
	TimingScheduled
	TimingNotScheduled
)

// UpcomingWindow separates "upcoming" from merely "scheduled" matches.
const UpcomingWindow = 30 * time.Minute

func (t TimingStatus) String() string {
	switch t {
	case TimingInProgress:
		return "in-progress"
	case TimingUpcoming:
		return "upcoming"
	case TimingScheduled:
		return "scheduled"
	default:
		return "not-scheduled"
	}
}

// TimingStatusOf classifies a match against the wall clock:
// in-progress when now >= start and (no end or now < end), upcoming when the
// start lies within the next 30 minutes, scheduled when further out.
func TimingStatusOf(m models.Match, now time.Time) TimingStatus {
	if m.ScheduledStart == nil {
		return TimingNotScheduled
	}
	start := *m.ScheduledStart
	if !now.Before(start) {
		// Слот с истёкшим scheduled_end, но всё ещё pending, остаётся
		// in-progress: играть его нужно прямо сейчас.
		return TimingInProgress
	}
	if start.Sub(now) <= UpcomingWindow {
		return TimingUpcoming
	}
	return TimingScheduled
}

// Less defines the total priority order over matches: timing status first,
// then explicit display order, then scheduled start, then id. The id fallback
// makes the order deterministic for matches with no other signal.
func Less(a, b models.Match, now time.Time) bool {
	sa, sb := TimingStatusOf(a, now), TimingStatusOf(b, now)
	if sa != sb {
		return sa < sb
	}

	switch {
	case a.DisplayOrder != nil && b.DisplayOrder != nil:
		if *a.DisplayOrder != *b.DisplayOrder {
			return *a.DisplayOrder < *b.DisplayOrder
		}
	case a.DisplayOrder != nil:
		return true
	case b.DisplayOrder != nil:
		return false
	}

	switch {
	case a.ScheduledStart != nil && b.ScheduledStart != nil:
		if !a.ScheduledStart.Equal(*b.ScheduledStart) {
			return a.ScheduledStart.Before(*b.ScheduledStart)
		}
	case a.ScheduledStart != nil:
		return true
	case b.ScheduledStart != nil:
		return false
	}

	return a.ID < b.ID
}

// SortQueue orders matches in place by the priority order.
func SortQueue(matches []models.Match, now time.Time) {
	sort.SliceStable(matches, func(i, j int) bool {
		return Less(matches[i], matches[j], now)
	})
}

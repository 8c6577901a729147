package schedule

import (
	"time"

	"github.com/nekogravitycat/service-booking-backend/internal/workhours"
)

// DefaultSlotStep is the grid on which candidate start times are generated.
const DefaultSlotStep = 30 * time.Minute

// GenerateSlots lists the start times in window at which an appointment of
// length duration fits: it must end by window.End, avoid the break, and not
// overlap any active schedule in busy. Candidates advance by step from
// window.Start regardless of duration.
func GenerateSlots(window workhours.DayWindow, duration, step time.Duration, busy []*Schedule) []Slot {
	if step <= 0 {
		step = DefaultSlotStep
	}

	slots := make([]Slot, 0)
	if duration <= 0 {
		return slots
	}

	for cur := window.Start; !cur.Add(duration).After(window.End); cur = cur.Add(step) {
		end := cur.Add(duration)

		if window.HasBreak && Overlaps(cur, end, window.BreakStart, window.BreakEnd) {
			continue
		}
		if FirstConflict(busy, cur, end, "") != nil {
			continue
		}

		slots = append(slots, Slot{
			Time:  cur.Format("15:04"),
			Start: cur,
		})
	}

	return slots
}

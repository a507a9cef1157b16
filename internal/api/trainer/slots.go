package trainer

import (
	"fmt"
	"sort"

	"github.com/gritfit/gritfit-api/internal/types"
)

// Window is a declared bookable interval within one day, minutes-of-day.
type Window struct {
	StartMinutes int
	EndMinutes   int
}

// Interval is an occupied [start,end) range taken by an existing booking.
type Interval struct {
	StartMinutes int
	EndMinutes   int
}

// ComputeSlots subdivides the declared windows into consecutive
// duration-length candidate slots and flags each against the booked
// intervals. Any overlap, even partial, marks the whole candidate
// unavailable. No windows means no slots, not an error. Pure; results are
// recomputed per query and never persisted.
func ComputeSlots(windows []Window, booked []Interval, durationMinutes int) []types.TimeSlot {
	if durationMinutes <= 0 {
		return nil
	}

	sorted := make([]Window, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMinutes < sorted[j].StartMinutes })

	var slots []types.TimeSlot
	for _, w := range sorted {
		for start := w.StartMinutes; start+durationMinutes <= w.EndMinutes; start += durationMinutes {
			end := start + durationMinutes
			slots = append(slots, types.TimeSlot{
				StartMinutes: start,
				EndMinutes:   end,
				Start:        formatMinutes(start),
				End:          formatMinutes(end),
				Available:    !overlapsAny(start, end, booked),
			})
		}
	}
	return slots
}

func overlapsAny(start, end int, booked []Interval) bool {
	for _, b := range booked {
		if start < b.EndMinutes && b.StartMinutes < end {
			return true
		}
	}
	return false
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseClock converts an HH:MM string to minutes-of-day.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return h*60 + m, nil
}

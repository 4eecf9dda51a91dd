package utils

import (
	"fmt"
	"time"
)

const (
	SlotDateLayout  = "2006-01-02"
	SlotClockLayout = "15:04"
)

// ParseSlotTime combines a calendar date and a wall-clock time into the
// booking instant. Slots are interpreted in UTC at minute precision.
func ParseSlotTime(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(SlotDateLayout+" "+SlotClockLayout, date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot %q %q: %w", date, clock, err)
	}
	return t, nil
}

// FormatSlot renders an instant back into its date and clock parts.
func FormatSlot(t time.Time) (date, clock string) {
	t = t.UTC()
	return t.Format(SlotDateLayout), t.Format(SlotClockLayout)
}

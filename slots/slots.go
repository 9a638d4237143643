// Package slots holds the slot-index arithmetic shared by the whole
// allocation pipeline. A slot is a 30-minute unit, indexed 0-23 within
// a working day.
package slots

import (
	"sort"
	"time"
)

const (
	// MinutesPerSlot is the calendar granularity.
	MinutesPerSlot = 30
	// SlotsPerDay is the number of bookable units in a day.
	SlotsPerDay = 24
)

// Reserved returns the contiguous run of slot indices a booking of the
// given length occupies, starting at slot.
func Reserved(minutes, slot int) []int {
	n := (minutes + MinutesPerSlot - 1) / MinutesPerSlot
	list := make([]int, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, slot+i)
	}
	return list
}

// Grid returns every slot index of a day except the given ones.
func Grid(except []int) []int {
	skip := make(map[int]bool, len(except))
	for _, s := range except {
		skip[s] = true
	}
	out := make([]int, 0, SlotsPerDay)
	for i := 0; i < SlotsPerDay; i++ {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}

// Sorted sorts a slot list ascending in place and returns it. Timing
// records keep all their slot arrays sorted after every mutation.
func Sorted(s []int) []int {
	sort.Ints(s)
	return s
}

// Contains reports slot membership in a plain list.
func Contains(list []int, slot int) bool {
	for _, s := range list {
		if s == slot {
			return true
		}
	}
	return false
}

// Remove strips every occurrence of slot from the list.
func Remove(list []int, slot int) []int {
	out := list[:0]
	for _, s := range list {
		if s != slot {
			out = append(out, s)
		}
	}
	return out
}

// DateID converts a calendar date to its YYYYMMDD document key.
func DateID(t time.Time) string {
	return t.Format("20060102")
}

// ParseDateID converts a YYYYMMDD key back to a date (midnight UTC).
func ParseDateID(id string) (time.Time, error) {
	return time.Parse("20060102", id)
}

// DateIDFromISO converts a "YYYY-MM-DD" date string to YYYYMMDD.
func DateIDFromISO(date string) string {
	out := make([]byte, 0, 8)
	for i := 0; i < len(date); i++ {
		if date[i] != '-' {
			out = append(out, date[i])
		}
	}
	return string(out)
}

// DayKey converts a date to the DDMMYYYY key used by booking-activity
// logs.
func DayKey(t time.Time) string {
	return t.Format("02012006")
}

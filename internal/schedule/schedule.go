// Package schedule turns the free-text working-days field on a manicurist
// profile into a normalized set of weekdays, and parses the HH:MM clock
// strings used for daily working hours.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Weekday indices are Monday=0..Sunday=6, matching how the staff records
// enumerate the week.
var dayIndex = map[string]int{
	"lunes":     0,
	"martes":    1,
	"miercoles": 2,
	"jueves":    3,
	"viernes":   4,
	"sabado":    5,
	"domingo":   6,
}

var dayNames = [7]string{"lunes", "martes", "miercoles", "jueves", "viernes", "sabado", "domingo"}

// DayName returns the canonical name for a Monday=0..Sunday=6 index.
func DayName(idx int) string {
	if idx < 0 || idx > 6 {
		return ""
	}

	return dayNames[idx]
}

// rangeConnector joins the two endpoints of a working-days range,
// e.g. "lunes a sabado".
const rangeConnector = " a "

type WeekdaySet [7]bool

func (s WeekdaySet) Contains(idx int) bool {
	return idx >= 0 && idx < 7 && s[idx]
}

func (s WeekdaySet) Empty() bool {
	return s == WeekdaySet{}
}

// accentReplacer covers the accented vowels that occur in Spanish day names.
var accentReplacer = strings.NewReplacer(
	"á", "a",
	"é", "e",
	"í", "i",
	"ó", "o",
	"ú", "u",
	"ü", "u",
)

func normalize(s string) string {
	return accentReplacer.Replace(strings.TrimSpace(strings.ToLower(s)))
}

// ParseWorkingDays converts a working-days description into a WeekdaySet.
// Two forms are accepted: an inclusive range ("lunes a sabado") and a
// comma-separated list ("lunes, miercoles, viernes"). Unrecognized list
// tokens are dropped. A range whose start index is greater than its end
// index yields an empty set; wrapping ranges are not supported.
func ParseWorkingDays(text string) WeekdaySet {
	var set WeekdaySet

	text = normalize(text)
	if text == "" {
		return set
	}

	if strings.Contains(text, rangeConnector) {
		parts := strings.SplitN(text, rangeConnector, 2)
		start, okStart := dayIndex[normalize(parts[0])]
		end, okEnd := dayIndex[normalize(parts[1])]
		if !okStart || !okEnd || start > end {
			return set
		}
		for i := start; i <= end; i++ {
			set[i] = true
		}
		return set
	}

	for _, token := range strings.Split(text, ",") {
		if idx, ok := dayIndex[normalize(token)]; ok {
			set[idx] = true
		}
	}

	return set
}

// WeekdayIndex maps a date to the Monday=0..Sunday=6 indexing used by
// WeekdaySet. time.Weekday counts from Sunday.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ParseClock parses an HH:MM time-of-day into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}

	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// FormatClock renders an offset from midnight as HH:MM.
func FormatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

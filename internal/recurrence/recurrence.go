// Package recurrence encodes and decodes the compact textual rule used
// to describe repeating tasks, and computes occurrence dates from it.
//
// The grammar is a fixed-order subset of RFC 5545 RRULE:
//
//	FREQ=<DAILY|WEEKLY|MONTHLY|YEARLY>[;INTERVAL=<int>][;BYDAY=<D,D,...>][;BYMONTHDAY=<int>]
//
// BYDAY applies to WEEKLY rules only, BYMONTHDAY to MONTHLY only.
// Absent optional clauses are omitted, never emitted empty. "Nth
// weekday of month" style rules are not supported.
package recurrence

import (
	"strconv"
	"strings"
	"time"
)

// Frequency is the base repetition unit of a rule.
type Frequency string

const (
	FreqNone    Frequency = ""
	FreqDaily   Frequency = "DAILY"
	FreqWeekly  Frequency = "WEEKLY"
	FreqMonthly Frequency = "MONTHLY"
	FreqYearly  Frequency = "YEARLY"
)

// Weekday codes accepted in BYDAY clauses, in calendar order.
var weekdayCodes = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

// Spec is the structured form of a recurrence rule. DaysOfWeek keeps
// the order days were selected in; no canonical sort is applied.
type Spec struct {
	Frequency  Frequency
	Interval   int
	DaysOfWeek []string
	DayOfMonth int
}

// IsRecurring reports whether the spec describes a repeating schedule.
func (s Spec) IsRecurring() bool {
	return s.Frequency != FreqNone
}

// Encode renders the spec as a rule string. An empty frequency means
// the task does not repeat and yields the empty string, which callers
// persist as NULL. INTERVAL=1 is implicit and omitted.
func (s Spec) Encode() string {
	if s.Frequency == FreqNone {
		return ""
	}
	clauses := []string{"FREQ=" + string(s.Frequency)}
	if s.Interval > 1 {
		clauses = append(clauses, "INTERVAL="+strconv.Itoa(s.Interval))
	}
	if s.Frequency == FreqWeekly && len(s.DaysOfWeek) > 0 {
		clauses = append(clauses, "BYDAY="+strings.Join(s.DaysOfWeek, ","))
	}
	if s.Frequency == FreqMonthly && s.DayOfMonth >= 1 && s.DayOfMonth <= 31 {
		clauses = append(clauses, "BYMONTHDAY="+strconv.Itoa(s.DayOfMonth))
	}
	return strings.Join(clauses, ";")
}

// Decode parses a rule string permissively. Malformed integer clauses
// fall back to their defaults and unknown clauses are skipped, so stored
// rules from older revisions never fail to load. Callers that want to
// detect lossy input can compare Decode(rule).Encode() against rule.
func Decode(rule string) Spec {
	spec := Spec{Interval: 1, DayOfMonth: 1}
	for _, clause := range strings.Split(rule, ";") {
		key, value, found := strings.Cut(clause, "=")
		if !found {
			continue
		}
		switch key {
		case "FREQ":
			spec.Frequency = Frequency(value)
		case "INTERVAL":
			parsed, err := strconv.Atoi(value)
			if err != nil || parsed < 1 {
				parsed = 1
			}
			spec.Interval = parsed
		case "BYDAY":
			for _, day := range strings.Split(value, ",") {
				if day != "" {
					spec.DaysOfWeek = append(spec.DaysOfWeek, day)
				}
			}
		case "BYMONTHDAY":
			parsed, err := strconv.Atoi(value)
			if err != nil || parsed < 1 || parsed > 31 {
				parsed = 1
			}
			spec.DayOfMonth = parsed
		}
	}
	return spec
}

// NextAfter computes the next occurrence strictly after t, preserving
// t's clock time. The zero time is returned for non-recurring specs.
func (s Spec) NextAfter(t time.Time) time.Time {
	interval := s.Interval
	if interval < 1 {
		interval = 1
	}
	switch s.Frequency {
	case FreqDaily:
		return t.AddDate(0, 0, interval)
	case FreqWeekly:
		return s.nextWeekly(t, interval)
	case FreqMonthly:
		return s.nextMonthly(t, interval)
	case FreqYearly:
		return t.AddDate(interval, 0, 0)
	}
	return time.Time{}
}

func (s Spec) nextWeekly(t time.Time, interval int) time.Time {
	if len(s.DaysOfWeek) == 0 {
		return t.AddDate(0, 0, 7*interval)
	}
	selected := make(map[time.Weekday]bool, len(s.DaysOfWeek))
	for _, code := range s.DaysOfWeek {
		if wd, ok := weekdayCodes[code]; ok {
			selected[wd] = true
		}
	}
	if len(selected) == 0 {
		return t.AddDate(0, 0, 7*interval)
	}
	// Weeks are anchored on the Sunday of t's week; only weeks whose
	// offset from the anchor is a multiple of the interval qualify.
	anchor := t.AddDate(0, 0, -int(t.Weekday()))
	for offset := 1; offset <= 7*interval+7; offset++ {
		candidate := t.AddDate(0, 0, offset)
		if !selected[candidate.Weekday()] {
			continue
		}
		weeks := daysBetween(anchor, candidate) / 7
		if weeks%interval == 0 {
			return candidate
		}
	}
	return t.AddDate(0, 0, 7*interval)
}

func (s Spec) nextMonthly(t time.Time, interval int) time.Time {
	day := s.DayOfMonth
	if day < 1 || day > 31 {
		day = 1
	}
	// Month arithmetic by index rather than AddDate: AddDate
	// normalizes Jan 31 + 1 month into March instead of clamping.
	monthIdx := int(t.Month()) - 1 + interval
	year := t.Year() + monthIdx/12
	month := time.Month(monthIdx%12 + 1)
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	return int(toDay.Sub(fromDay) / (24 * time.Hour))
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Package timeparse turns Korean time phrases such as "30분 뒤" or
// "오후 3시 20분" into an absolute time relative to a reference instant.
package timeparse

import (
	"regexp"
	"strconv"
	"time"
)

var (
	minutesLater = regexp.MustCompile(`(\d+)\s*분\s*뒤`)
	hoursLater   = regexp.MustCompile(`(\d+)\s*시간\s*뒤`)
	meridiemTime = regexp.MustCompile(`(오전|오후)\s*(\d+)\s*시\s*(\d*)\s*분?`)
	clockTime    = regexp.MustCompile(`(\d+)\s*시\s*(\d*)\s*분?`)
)

const (
	morning   = "오전"
	afternoon = "오후"
)

// Parse returns the point in time named by text, computed against now.
// Patterns are tried in a fixed order and the first one that matches
// decides the result: minutes later, hours later, clock time with
// meridiem, bare 24-hour clock time. ok is false when no pattern matches
// or the matched numbers do not form a valid time.
func Parse(text string, now time.Time) (t time.Time, ok bool) {
	if m := minutesLater.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		return now.Add(time.Duration(n) * time.Minute), true
	}

	if m := hoursLater.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		return now.Add(time.Duration(n) * time.Hour), true
	}

	if m := meridiemTime.FindStringSubmatch(text); m != nil {
		hour, minute, valid := clock(m[2], m[3])
		if !valid || hour > 12 {
			return time.Time{}, false
		}
		switch {
		case m[1] == afternoon && hour != 12:
			hour += 12
		case m[1] == morning && hour == 12:
			hour = 0
		}
		return nextOccurrence(now, hour, minute), true
	}

	if m := clockTime.FindStringSubmatch(text); m != nil {
		hour, minute, valid := clock(m[1], m[2])
		if !valid {
			return time.Time{}, false
		}
		return nextOccurrence(now, hour, minute), true
	}

	return time.Time{}, false
}

func clock(h, m string) (hour, minute int, ok bool) {
	hour, err := strconv.Atoi(h)
	if err != nil || hour > 23 {
		return 0, 0, false
	}
	if m != "" {
		minute, err = strconv.Atoi(m)
		if err != nil || minute > 59 {
			return 0, 0, false
		}
	}
	return hour, minute, true
}

// nextOccurrence builds today's wall-clock time in now's location and
// pushes it one day ahead unless it is strictly after now.
func nextOccurrence(now time.Time, hour, minute int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

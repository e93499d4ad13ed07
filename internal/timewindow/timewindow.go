// Package timewindow decides whether a wall-clock time falls inside an
// "HH:MM" to "HH:MM" window, treating start > end as an overnight wrap.
package timewindow

import (
	"errors"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
)

var ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")

const layout = "15:04"

// minuteOfDay parses "HH:MM" into minutes since midnight.
func minuteOfDay(s string) (int, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, ErrInvalidTimeFormat
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Contains reports whether now's time-of-day falls in [start, end],
// inclusive on both ends. A malformed time string fails closed: the
// window is reported inactive and the error returned, so a bad schedule
// entry can never crash or wedge a scaling loop.
func Contains(start, end string, now time.Time) (bool, error) {
	startMin, err := minuteOfDay(start)
	if err != nil {
		return false, err
	}
	endMin, err := minuteOfDay(end)
	if err != nil {
		return false, err
	}

	nowMin := now.Hour()*60 + now.Minute()

	if startMin <= endMin {
		return startMin <= nowMin && nowMin <= endMin, nil
	}
	// Overnight wrap, e.g. 22:00-06:00.
	return nowMin >= startMin || nowMin <= endMin, nil
}

// Overlaps reports whether two windows share at least one minute of the
// day. Overnight windows are treated as the pair of intervals they wrap
// into.
func Overlaps(aStart, aEnd, bStart, bEnd string) (bool, error) {
	a, err := spans(aStart, aEnd)
	if err != nil {
		return false, err
	}
	b, err := spans(bStart, bEnd)
	if err != nil {
		return false, err
	}

	for _, x := range a {
		for _, y := range b {
			if x[0] <= y[1] && y[0] <= x[1] {
				return true, nil
			}
		}
	}
	return false, nil
}

// spans splits a window into inclusive [start, end] minute intervals,
// two of them when the window wraps midnight.
func spans(start, end string) ([][2]int, error) {
	startMin, err := minuteOfDay(start)
	if err != nil {
		return nil, err
	}
	endMin, err := minuteOfDay(end)
	if err != nil {
		return nil, err
	}

	if startMin <= endMin {
		return [][2]int{{startMin, endMin}}, nil
	}
	return [][2]int{{startMin, 24*60 - 1}, {0, endMin}}, nil
}

// IsActive is the logging convenience used by the schedule engine:
// malformed windows are logged and treated as inactive.
func IsActive(start, end string, now time.Time) bool {
	active, err := Contains(start, end, now)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"start": start,
			"end":   end,
		}).Warnf("Skipping malformed schedule window: %v", err)
		return false
	}
	return active
}

package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	return time.Date(2024, 3, 14, t.Hour(), t.Minute(), 0, 0, time.UTC)
}

func TestContains(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		end    string
		now    string
		active bool
	}{
		{"inside normal range", "09:00", "17:00", "10:30", true},
		{"outside normal range", "09:00", "17:00", "18:30", false},
		{"before normal range", "09:00", "17:00", "08:59", false},
		{"start boundary inclusive", "09:00", "17:00", "09:00", true},
		{"end boundary inclusive", "09:00", "17:00", "17:00", true},
		{"overnight before midnight", "22:00", "06:00", "23:30", true},
		{"overnight after midnight", "22:00", "06:00", "03:30", true},
		{"overnight outside", "22:00", "06:00", "12:30", false},
		{"overnight start boundary", "22:00", "06:00", "22:00", true},
		{"overnight end boundary", "22:00", "06:00", "06:00", true},
		{"zero-length window", "12:00", "12:00", "12:00", true},
		{"zero-length window miss", "12:00", "12:00", "12:01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, err := Contains(tt.start, tt.end, at(tt.now))
			assert.NoError(t, err)
			assert.Equal(t, tt.active, active)
		})
	}
}

func TestContains_MalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"garbage start", "banana", "17:00"},
		{"garbage end", "09:00", "25:99"},
		{"empty strings", "", ""},
		{"missing minutes", "09", "17:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, err := Contains(tt.start, tt.end, at("10:00"))
			assert.ErrorIs(t, err, ErrInvalidTimeFormat)
			assert.False(t, active)
		})
	}
}

func TestIsActive_FailsClosed(t *testing.T) {
	// Malformed windows never report active and never panic.
	assert.False(t, IsActive("not-a-time", "17:00", at("10:00")))
	assert.True(t, IsActive("09:00", "17:00", at("10:00")))
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name    string
		aStart  string
		aEnd    string
		bStart  string
		bEnd    string
		overlap bool
	}{
		{"disjoint", "09:00", "12:00", "13:00", "17:00", false},
		{"nested", "09:00", "17:00", "10:00", "11:00", true},
		{"partial", "09:00", "12:00", "11:00", "14:00", true},
		{"shared boundary minute", "09:00", "12:00", "12:00", "14:00", true},
		{"overnight vs morning", "22:00", "06:00", "05:00", "08:00", true},
		{"overnight vs midday", "22:00", "06:00", "10:00", "14:00", false},
		{"two overnights", "22:00", "02:00", "01:00", "05:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd)
			assert.NoError(t, err)
			assert.Equal(t, tt.overlap, got)

			// Overlap is symmetric.
			rev, err := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd)
			assert.NoError(t, err)
			assert.Equal(t, tt.overlap, rev)
		})
	}
}

func TestOverlaps_Malformed(t *testing.T) {
	_, err := Overlaps("bad", "12:00", "13:00", "17:00")
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
}

package schedule

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name       string
		aS, aE     string
		bS, bE     string
		overlapped bool
	}{
		{"identical", "10:00", "11:00", "10:00", "11:00", true},
		{"touching end to start", "10:00", "11:00", "11:00", "12:00", false},
		{"touching start to end", "11:00", "12:00", "10:00", "11:00", false},
		{"contained", "10:00", "12:00", "10:30", "11:00", true},
		{"partial", "10:00", "11:00", "10:59", "12:00", true},
		{"disjoint", "09:00", "09:30", "10:00", "10:30", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlapped, Overlaps(at(tt.aS), at(tt.aE), at(tt.bS), at(tt.bE)))
			assert.Equal(t, tt.overlapped, Overlaps(at(tt.bS), at(tt.bE), at(tt.aS), at(tt.aE)), "symmetric")
		})
	}
}

// Overlap must agree with a minute-by-minute occupancy check.
func TestOverlaps_MatchesPointwise(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := at("00:00")
	span := func() (time.Time, time.Time, int, int) {
		s := rng.Intn(120)
		e := s + 1 + rng.Intn(60)
		return base.Add(time.Duration(s) * time.Minute), base.Add(time.Duration(e) * time.Minute), s, e
	}

	for i := 0; i < 2000; i++ {
		aS, aE, as, ae := span()
		bS, bE, bs, be := span()

		shared := false
		for m := as; m < ae; m++ {
			if m >= bs && m < be {
				shared = true
				break
			}
		}
		assert.Equal(t, shared, Overlaps(aS, aE, bS, bE), "a=[%d,%d) b=[%d,%d)", as, ae, bs, be)
	}
}

func TestFirstConflict(t *testing.T) {
	existing := []*Schedule{
		{ID: "late", Status: StatusPending, StartAt: at("10:30"), EndAt: at("11:30")},
		{ID: "early", Status: StatusConfirmed, StartAt: at("10:00"), EndAt: at("10:45")},
		{ID: "gone", Status: StatusCancelled, StartAt: at("09:00"), EndAt: at("12:00")},
		{ID: "done", Status: StatusCompleted, StartAt: at("09:00"), EndAt: at("12:00")},
	}

	t.Run("earliest active overlap wins", func(t *testing.T) {
		c := FirstConflict(existing, at("10:15"), at("11:00"), "")
		if assert.NotNil(t, c) {
			assert.Equal(t, "early", c.ID)
		}
	})

	t.Run("excluded id is ignored", func(t *testing.T) {
		c := FirstConflict(existing, at("10:15"), at("11:00"), "early")
		if assert.NotNil(t, c) {
			assert.Equal(t, "late", c.ID)
		}
	})

	t.Run("inactive statuses never conflict", func(t *testing.T) {
		assert.Nil(t, FirstConflict(existing, at("09:00"), at("10:00"), ""))
	})

	t.Run("back to back is free", func(t *testing.T) {
		assert.Nil(t, FirstConflict(existing, at("11:30"), at("12:00"), ""))
	})
}

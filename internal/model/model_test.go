package model

import (
	"testing"
	"time"

	"gorm.io/datatypes"
)

func TestService_RequiredSlots(t *testing.T) {
	cases := []struct {
		duration int64
		grid     int64
		want     int
	}{
		{15, 30, 1},
		{30, 30, 1},
		{31, 30, 2},
		{60, 30, 2},
		{90, 30, 3},
		{120, 60, 2},
		{0, 30, 1},
		{45, 0, 1},
	}
	for _, tc := range cases {
		s := &Service{DurationMin: tc.duration}
		if got := s.RequiredSlots(tc.grid); got != tc.want {
			t.Fatalf("duration=%d grid=%d: expected %d, got %d", tc.duration, tc.grid, tc.want, got)
		}
	}
}

func TestBookingStatus(t *testing.T) {
	for _, st := range []BookingStatus{BookingStatusPending, BookingStatusConfirmed} {
		if !st.Active() || st.Terminal() {
			t.Fatalf("%s must be active", st)
		}
	}
	for _, st := range []BookingStatus{BookingStatusAttended, BookingStatusCancelled} {
		if st.Active() || !st.Terminal() {
			t.Fatalf("%s must be terminal", st)
		}
	}
}

func TestSchedule_ParseRules(t *testing.T) {
	s := &Schedule{Rules: datatypes.JSON(`[{"weekdays":[1,3],"start":"09:00","end":"13:30"}]`)}
	rules, err := s.ParseRules()
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if len(rules) != 1 || rules[0].Start != "09:00" || len(rules[0].Weekdays) != 2 || rules[0].Weekdays[1] != time.Wednesday {
		t.Fatalf("unexpected rules %+v", rules)
	}

	empty := &Schedule{}
	if rules, err := empty.ParseRules(); err != nil || rules != nil {
		t.Fatalf("empty rules: %v %v", rules, err)
	}

	broken := &Schedule{Rules: datatypes.JSON(`{"weekdays":`)}
	if _, err := broken.ParseRules(); err == nil {
		t.Fatalf("expected error for broken JSON")
	}
}

func TestSchedule_Location(t *testing.T) {
	loc, err := (&Schedule{}).Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC by default, got %v %v", loc, err)
	}
	if _, err := (&Schedule{TimeZone: "Mars/Olympus"}).Location(); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

package meeting

import (
	"strings"
	"testing"
	"time"

	"github.com/bikeshedbot/bikeshed/pkg/random"
	"github.com/bikeshedbot/bikeshed/pkg/types"
)

func TestFindSlot_NeverLandsOnWeekend(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	src := random.New(1)

	// A full week of "now" values, covering every weekday transition.
	base := time.Date(2026, 8, 17, 9, 30, 45, 0, loc) // a Monday
	for d := range 7 {
		now := base.AddDate(0, 0, d)
		slot := FindSlot(now, nil, src)
		if wd := slot.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("now=%s: slot %s falls on %s", now.Format("Mon Jan 2"), slot, wd)
		}
		if !slot.After(now) {
			t.Errorf("now=%s: slot %s is not in the future", now, slot)
		}
	}
}

func TestFindSlot_FridayJumpsToMonday(t *testing.T) {
	now := time.Date(2026, 8, 21, 11, 0, 0, 0, time.UTC) // a Friday
	slot := FindSlot(now, []int{10}, random.New(1))

	if slot.Weekday() != time.Monday {
		t.Errorf("slot weekday = %s, want Monday", slot.Weekday())
	}
	if slot.Day() != 24 {
		t.Errorf("slot day = %d, want 24", slot.Day())
	}
}

func TestFindSlot_SaturdayJumpsPastSunday(t *testing.T) {
	now := time.Date(2026, 8, 22, 8, 0, 0, 0, time.UTC) // a Saturday; tomorrow is Sunday
	slot := FindSlot(now, []int{14}, random.New(1))
	if slot.Weekday() != time.Monday {
		t.Errorf("slot weekday = %s, want Monday", slot.Weekday())
	}
}

func TestFindSlot_UsesPreferredHourAndZeroesMinutes(t *testing.T) {
	now := time.Date(2026, 8, 17, 16, 42, 13, 500, time.UTC)
	preferred := []int{9, 11, 16}
	allowed := map[int]bool{9: true, 11: true, 16: true}

	src := random.New(3)
	for range 100 {
		slot := FindSlot(now, preferred, src)
		if !allowed[slot.Hour()] {
			t.Fatalf("slot hour %d not in preferred set", slot.Hour())
		}
		if slot.Minute() != 0 || slot.Second() != 0 || slot.Nanosecond() != 0 {
			t.Fatalf("slot %s has non-zero minutes/seconds", slot)
		}
	}
}

func TestFindSlot_DefaultHours(t *testing.T) {
	now := time.Date(2026, 8, 17, 12, 0, 0, 0, time.UTC)
	allowed := map[int]bool{10: true, 14: true, 15: true}

	src := random.New(5)
	for range 100 {
		slot := FindSlot(now, nil, src)
		if !allowed[slot.Hour()] {
			t.Fatalf("slot hour %d not in default set {10,14,15}", slot.Hour())
		}
	}
}

func TestFindSlot_PreservesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	now := time.Date(2026, 8, 17, 12, 0, 0, 0, loc)
	slot := FindSlot(now, []int{10}, random.New(1))
	if slot.Location() != loc {
		t.Errorf("slot location = %v, want %v", slot.Location(), loc)
	}
}

func TestBuildProposal_AttendeesAndDuration(t *testing.T) {
	c := types.Concern{
		File: "main.go",
		Topic: types.Topic{
			Name:           "error handling strategy",
			MeetingMinutes: 45,
			Urgency:        "worth a whiteboard",
		},
	}
	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	p := BuildProposal(c, start, "author@example.com", " rev1@example.com ,rev2@example.com, ", random.New(2))

	want := []string{"author@example.com", "rev1@example.com", "rev2@example.com"}
	if len(p.Attendees) != len(want) {
		t.Fatalf("attendees = %v, want %v", p.Attendees, want)
	}
	for i := range want {
		if p.Attendees[i] != want[i] {
			t.Errorf("attendee %d = %q, want %q", i, p.Attendees[i], want[i])
		}
	}
	if p.Minutes != 45 {
		t.Errorf("minutes = %d, want topic meeting length 45", p.Minutes)
	}
	if !p.Start.Equal(start) {
		t.Errorf("start = %s, want %s", p.Start, start)
	}
}

func TestBuildProposal_NoEmails(t *testing.T) {
	c := types.Concern{Topic: types.Topic{Name: "naming conventions", MeetingMinutes: 30}}
	p := BuildProposal(c, time.Now(), "", "", random.New(2))
	if len(p.Attendees) != 0 {
		t.Errorf("attendees = %v, want none", p.Attendees)
	}
}

func TestBuildProposal_TitleFullySubstituted(t *testing.T) {
	c := types.Concern{
		File:  "a.go",
		Line:  7,
		Topic: types.Topic{Name: "interface design", MeetingMinutes: 45, Urgency: "future-proofing required"},
	}
	src := random.New(4)
	for range 50 {
		p := BuildProposal(c, time.Now(), "", "", src)
		if p.Title == "" {
			t.Fatal("empty title")
		}
		for _, ph := range []string{"{TOPIC}", "{FILE}", "{LINE_NUMBER}", "{URGENCY}", "{CODE_SNIPPET}"} {
			if strings.Contains(p.Title, ph) {
				t.Fatalf("placeholder %s left in title %q", ph, p.Title)
			}
		}
	}
}

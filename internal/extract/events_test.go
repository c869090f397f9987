package extract

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"devona/internal/model"
)

func TestEvents(t *testing.T) {
	html := loadFixture(t, "../../testdata/special_events.html")

	got, err := Events(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.Event{
		{Name: "Canthan New Year", MonthDay: "February 13", Time: "12:00", Size: "Large", Notes: "Fireworks in Shing Jea"},
		{Name: "Sweet Treats Week", MonthDay: "April 18", Time: "12:00", Size: "Small", Notes: ""},
		{Name: "Wintersday", MonthDay: "December 18", Time: "20:00", Size: "Large", Notes: "Dwayna versus Grenth"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestEventsMissingHeading(t *testing.T) {
	_, err := Events(`<div class="mw-parser-output"><p>no events here</p></div>`)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNextEvents(t *testing.T) {
	events := []model.Event{
		{Name: "Canthan New Year", MonthDay: "February 13", Time: "12:00"},
		{Name: "Sweet Treats Week", MonthDay: "April 18", Time: "12:00"},
		{Name: "Wintersday", MonthDay: "December 18", Time: "20:00"},
		{Name: "Unscheduled", MonthDay: "Someday", Time: "never"},
	}
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		count int
		want  []model.UpcomingEvent
	}{
		{
			name:  "chronological order with year roll-over",
			count: 3,
			want: []model.UpcomingEvent{
				{Event: events[1], At: time.Date(2026, time.April, 18, 12, 0, 0, 0, time.UTC)},
				{Event: events[2], At: time.Date(2026, time.December, 18, 20, 0, 0, 0, time.UTC)},
				{Event: events[0], At: time.Date(2027, time.February, 13, 12, 0, 0, 0, time.UTC)},
			},
		},
		{
			name:  "truncated to count",
			count: 1,
			want: []model.UpcomingEvent{
				{Event: events[1], At: time.Date(2026, time.April, 18, 12, 0, 0, 0, time.UTC)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextEvents(events, now, tt.count)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("upcoming mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNextEventsSameDay(t *testing.T) {
	events := []model.Event{
		{Name: "Wintersday", MonthDay: "December 18", Time: "20:00"},
	}

	// An event later the same day is still upcoming; one that already
	// started rolls over to next year.
	before := time.Date(2026, time.December, 18, 19, 0, 0, 0, time.UTC)
	got := NextEvents(events, before, 1)
	if len(got) != 1 || got[0].At.Year() != 2026 {
		t.Fatalf("event later today should stay in current year, got %+v", got)
	}

	after := time.Date(2026, time.December, 18, 21, 0, 0, 0, time.UTC)
	got = NextEvents(events, after, 1)
	if len(got) != 1 || got[0].At.Year() != 2027 {
		t.Fatalf("started event should roll to next year, got %+v", got)
	}
}

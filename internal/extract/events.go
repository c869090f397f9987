package extract

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"devona/internal/model"
)

// eventDateRe matches the leading "Month day, HH:MM" part of an event
// start cell, ignoring any trailing parenthetical.
var eventDateRe = regexp.MustCompile(`^(\w+ \d+),\s*(\d+:\d+)`)

// Events extracts the recurring special events table. Rows whose start
// cell does not parse are skipped rather than failing the extraction.
func Events(html string) ([]model.Event, error) {
	content, err := contentRoot(html)
	if err != nil {
		return nil, err
	}

	heading := content.Find("span#Recurring_events").First()
	if heading.Length() == 0 {
		return nil, ErrNotFound
	}

	table := heading.Closest("h2").Next()
	for table.Length() > 0 && !table.Is("table") {
		table = table.Next()
	}
	if table.Length() == 0 {
		return nil, ErrNotFound
	}

	var events []model.Event
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		m := eventDateRe.FindStringSubmatch(strings.TrimSpace(cells.Eq(2).Text()))
		if m == nil {
			return
		}

		events = append(events, model.Event{
			Name:     cellText(cells.Eq(0)),
			MonthDay: m[1],
			Time:     m[2],
			Size:     strings.TrimSpace(cells.Eq(3).Text()),
			Notes:    strings.TrimSpace(cells.Eq(6).Text()),
		})
	})

	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return events, nil
}

// NextEvents resolves each event to its next occurrence after now and
// returns the soonest count of them in chronological order. Events whose
// date text does not parse are dropped.
func NextEvents(events []model.Event, now time.Time, count int) []model.UpcomingEvent {
	var upcoming []model.UpcomingEvent
	for _, ev := range events {
		parsed, err := time.Parse("January 2 15:04", ev.MonthDay+" "+ev.Time)
		if err != nil {
			continue
		}
		at := time.Date(now.Year(), parsed.Month(), parsed.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
		if at.Before(now) {
			at = time.Date(now.Year()+1, parsed.Month(), parsed.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
		}
		upcoming = append(upcoming, model.UpcomingEvent{Event: ev, At: at})
	}

	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].At.Before(upcoming[j].At) })
	if len(upcoming) > count {
		upcoming = upcoming[:count]
	}
	return upcoming
}

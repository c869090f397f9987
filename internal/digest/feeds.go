package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"devona/internal/model"
)

const wikiFooter = "Guild Wars Wiki"

// BuildDaily assembles the daily activities digest. Absent inputs drop
// their fields rather than emitting placeholders; when everything is
// absent the result is nil.
func BuildDaily(bonuses []model.Bonus, quest *model.ZaishenQuest, nicholas *model.NicholasGift, extras *model.DailyExtras, ts time.Time) []model.Message {
	b := New("Daily Guild Wars Activities", "", wikiFooter+" • Updates daily at 4:00 AM UTC", ts)

	if len(bonuses) > 0 {
		var lines []string
		for _, bonus := range bonuses {
			line := bonus.Name
			if bonus.Description != "" {
				line += "\n" + bonus.Description
			}
			lines = append(lines, line)
		}
		b.AddField("Weekly Bonuses", strings.Join(lines, "\n\n"), false)
	}

	if quest != nil {
		b.AddField("Zaishen Mission", quest.Mission, true)
		b.AddField("Zaishen Bounty", quest.Bounty, true)
		b.AddField("Zaishen Combat", quest.Combat, true)
		b.AddField("Zaishen Vanquish", quest.Vanquish, true)
		if quest.TotalCoins > 0 {
			b.AddField("Total Zaishen Coins", fmt.Sprintf("%d Copper Zaishen Coins", quest.TotalCoins), true)
		}
	}

	if extras != nil {
		vanguard := extras.Vanguard
		if extras.VanguardTitle != "" {
			vanguard = extras.VanguardTitle
		}
		b.AddField("Vanguard Quest", vanguard, true)
		b.AddField("Nicholas Sandford", fmt.Sprintf("%s x 5", extras.Sandford), true)
	}

	if nicholas != nil {
		b.AddField("Nicholas the Traveler",
			fmt.Sprintf("%s x 5\n%s (%s, %s)", nicholas.Item, nicholas.Location, nicholas.Region, nicholas.Campaign),
			false)
	}

	return b.Messages()
}

// BuildEvents assembles the upcoming special events digest. The soonest
// event gets its own field; the rest are listed together. Relative
// times are computed against the supplied timestamp, keeping the output
// deterministic.
func BuildEvents(upcoming []model.UpcomingEvent, ts time.Time) []model.Message {
	if len(upcoming) == 0 {
		return nil
	}

	b := New("Upcoming Guild Wars Special Events", "", wikiFooter+" • Updates daily at 4:00 AM UTC", ts)

	next := upcoming[0]
	value := fmt.Sprintf("%s (%s)\n%s (%s)", next.Name, next.Size, eventTime(next.At), relativeTime(next.At, ts))
	if next.Notes != "" {
		value += "\n" + next.Notes
	}
	b.AddField("Next Event", value, false)

	if len(upcoming) > 1 {
		var lines []string
		for _, ev := range upcoming[1:] {
			lines = append(lines, fmt.Sprintf("%s (%s) — %s (%s)", ev.Name, ev.Size, eventTime(ev.At), relativeTime(ev.At, ts)))
		}
		b.AddField("Coming Up", strings.Join(lines, "\n"), false)
	}

	return b.Messages()
}

func eventTime(t time.Time) string {
	return t.UTC().Format("Mon, 2 Jan 15:04 MST")
}

func relativeTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// BuildUpdate flattens a game-update page's section tree into one or
// more messages. Only the section whose title mentions "Update" is
// published; its subsections become fields, chunked and spilled as the
// ceilings require.
func BuildUpdate(sections []model.UpdateSection, pageURL string, ts time.Time) []model.Message {
	var update *model.UpdateSection
	for i := range sections {
		if strings.Contains(sections[i].Title, "Update") {
			update = &sections[i]
			break
		}
	}
	if update == nil {
		return nil
	}

	b := New(update.Title, pageURL, wikiFooter, ts)

	if len(update.Intro) > 0 {
		b.SetDescription(strings.Join(update.Intro, "\n\n"))
	}

	for _, sub := range update.Subsections {
		var lines []string
		lines = append(lines, sub.Items...)
		for _, feature := range sub.Features {
			lines = append(lines, feature.Title)
			lines = append(lines, feature.Items...)
		}
		if len(lines) == 0 {
			continue
		}
		b.AddBlock(sub.Title, lines)
	}

	msgs := b.Messages()

	// A page with no subsections still publishes its loose items.
	if msgs == nil && len(update.Items) > 0 {
		b.AddField("Changes", strings.Join(update.Items, "\n"), false)
		msgs = b.Messages()
	}

	return msgs
}

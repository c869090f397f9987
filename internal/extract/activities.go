package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"devona/internal/model"
)

// WeeklyBonuses extracts the current week's bonus entries. The page
// lists each bonus as a list item (name in bold, date range in italics)
// followed by a definition list with its description.
func WeeklyBonuses(html string) ([]model.Bonus, error) {
	content, err := contentRoot(html)
	if err != nil {
		return nil, err
	}

	heading := content.Find("h2").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("span#This_week").Length() > 0
	}).First()
	if heading.Length() == 0 {
		return nil, ErrNotFound
	}

	var bonuses []model.Bonus
	var current *model.Bonus

	for node := heading.Next(); node.Length() > 0; node = node.Next() {
		if node.Is("h2") {
			break
		}
		switch {
		case node.Is("ul"):
			node.Find("li").Each(func(_ int, li *goquery.Selection) {
				name := strings.TrimSpace(li.Find("b").First().Text())
				date := strings.TrimSpace(li.Find("i").First().Text())
				if name != "" {
					current = &model.Bonus{Name: name, Date: date}
				}
			})
		case node.Is("dl") && current != nil:
			dd := node.Find("dd").First()
			if dd.Length() > 0 {
				current.Description = strings.TrimSpace(dd.Text())
				bonuses = append(bonuses, *current)
				current = nil
			}
		}
	}
	if current != nil {
		bonuses = append(bonuses, *current)
	}

	if len(bonuses) == 0 {
		return nil, ErrNotFound
	}
	return bonuses, nil
}

var coinTotalRe = regexp.MustCompile(`=\s*(\d+)`)

// ZaishenQuest extracts one row of the zaishen rotation table. With a
// zero date the bold-styled current row is used; otherwise the row whose
// date cell matches is selected.
func ZaishenQuest(html string, date time.Time) (*model.ZaishenQuest, error) {
	content, err := contentRoot(html)
	if err != nil {
		return nil, err
	}
	table := content.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNotFound
	}

	var row *goquery.Selection
	if date.IsZero() {
		row = boldRow(table)
	} else {
		row = dateRow(table, date.Format(dateLayout))
	}
	if row == nil {
		return nil, ErrNotFound
	}

	cells := row.Find("td")
	if cells.Length() < 6 {
		return nil, fmt.Errorf("zaishen row has %d cells, want 6", cells.Length())
	}

	q := &model.ZaishenQuest{
		Date:     strings.TrimSpace(cells.Eq(0).Text()),
		Mission:  cellText(cells.Eq(1)),
		Bounty:   cellText(cells.Eq(2)),
		Combat:   cellText(cells.Eq(3)),
		Vanquish: cellText(cells.Eq(4)),
	}
	if m := coinTotalRe.FindStringSubmatch(cells.Eq(5).Text()); m != nil {
		q.TotalCoins, _ = strconv.Atoi(m[1])
	}
	return q, nil
}

// NicholasGift extracts the collector row for the week containing date.
// The cycle changes weekly, so with an explicit date the latest row
// starting on or before it wins; with a zero date the bold-styled
// current row is used.
func NicholasGift(html string, date time.Time) (*model.NicholasGift, error) {
	content, err := contentRoot(html)
	if err != nil {
		return nil, err
	}
	table := content.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNotFound
	}

	var row *goquery.Selection
	if date.IsZero() {
		row = boldRow(table)
	} else {
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			first := tr.Find("td").First()
			if first.Length() == 0 {
				return
			}
			week, err := time.Parse(dateLayout, strings.TrimSpace(first.Text()))
			if err != nil {
				return
			}
			if !week.After(date) {
				row = tr
			}
		})
	}
	if row == nil {
		return nil, ErrNotFound
	}

	cells := row.Find("td")
	if cells.Length() < 5 {
		return nil, fmt.Errorf("nicholas row has %d cells, want 5", cells.Length())
	}

	return &model.NicholasGift{
		Week:     strings.TrimSpace(cells.Eq(0).Text()),
		Item:     strings.TrimSpace(cells.Eq(1).Text()),
		Location: cellText(cells.Eq(2)),
		Region:   cellText(cells.Eq(3)),
		Campaign: cellText(cells.Eq(4)),
	}, nil
}

// DailyExtras extracts the vanguard quest and collector columns of the
// daily activities table. The vanguard link's title attribute carries
// the full quest name.
func DailyExtras(html string, date time.Time) (*model.DailyExtras, error) {
	content, err := contentRoot(html)
	if err != nil {
		return nil, err
	}
	table := content.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNotFound
	}

	var row *goquery.Selection
	if date.IsZero() {
		row = boldRow(table)
	} else {
		row = dateRow(table, date.Format(dateLayout))
	}
	if row == nil {
		return nil, ErrNotFound
	}

	cells := row.Find("td")
	if cells.Length() < 8 {
		return nil, fmt.Errorf("daily row has %d cells, want 8", cells.Length())
	}

	extras := &model.DailyExtras{
		Vanguard: cellText(cells.Eq(6)),
		Sandford: cellText(cells.Eq(7)),
	}
	if title, ok := cells.Eq(6).Find("a").First().Attr("title"); ok {
		extras.VanguardTitle = strings.TrimSpace(title)
	}
	return extras, nil
}

// Package extract turns raw wiki HTML into typed feed items.
//
// All extractors share one structural pattern: locate the parser-output
// content root, find a marker (a heading span, a bold-styled row, or a
// row whose first cell matches a target date), then read sibling or
// child structure until a terminating marker. A parse failure for one
// sub-item never aborts its siblings; a missing root or marker returns
// ErrNotFound for the whole extraction.
package extract

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNotFound is returned when the expected page structure is absent.
var ErrNotFound = errors.New("extract: expected structure not found")

// dateLayout is the day-month-year text format the wiki uses in date
// cells, e.g. "2 January 2006".
const dateLayout = "2 January 2006"

// contentRoot parses html and returns the MediaWiki parser output node.
func contentRoot(html string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	content := doc.Find(".mw-parser-output").First()
	if content.Length() == 0 {
		return nil, ErrNotFound
	}
	return content, nil
}

// cellText returns the text of a table cell, preferring the first link's
// text when one is present.
func cellText(cell *goquery.Selection) string {
	if a := cell.Find("a").First(); a.Length() > 0 {
		if t := strings.TrimSpace(a.Text()); t != "" {
			return t
		}
	}
	return strings.TrimSpace(cell.Text())
}

// boldRow returns the first table row visually marked as current via an
// inline bold style.
func boldRow(table *goquery.Selection) *goquery.Selection {
	row := table.Find("tr").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.AttrOr("style", ""), "font-weight: bold")
	}).First()
	if row.Length() == 0 {
		return nil
	}
	return row
}

// dateRow returns the first table row whose leading cell matches the
// given day-month-year date text.
func dateRow(table *goquery.Selection, dateText string) *goquery.Selection {
	var found *goquery.Selection
	table.Find("tr").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		first := s.Find("td").First()
		if first.Length() > 0 && strings.TrimSpace(first.Text()) == dateText {
			found = s
			return false
		}
		return true
	})
	return found
}

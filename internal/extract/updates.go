package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"devona/internal/model"
)

// UpdateSections walks a game-update page and builds its heading tree:
// h2 sections, h3 subsections, h4 features, with paragraphs and bullet
// lists attached to the innermost open level. Nested sub-lists are
// flattened into indented bullet lines so the hierarchy survives as
// text.
func UpdateSections(html string) ([]model.UpdateSection, error) {
	content, err := contentRoot(html)
	if err != nil {
		return nil, err
	}

	var sections []model.UpdateSection
	var section *model.UpdateSection
	var subsection *model.UpdateSubsection
	var feature *model.UpdateFeature

	closeSection := func() {
		if section == nil {
			return
		}
		if subsection != nil {
			if feature != nil {
				subsection.Features = append(subsection.Features, *feature)
				feature = nil
			}
			section.Subsections = append(section.Subsections, *subsection)
			subsection = nil
		}
		sections = append(sections, *section)
		section = nil
	}

	content.Children().Each(func(_ int, node *goquery.Selection) {
		switch goquery.NodeName(node) {
		case "h2":
			headline := headlineText(node)
			if headline == "" {
				return
			}
			closeSection()
			section = &model.UpdateSection{Title: headline}
		case "h3":
			if section == nil {
				return
			}
			headline := headlineText(node)
			if headline == "" {
				return
			}
			if subsection != nil {
				if feature != nil {
					subsection.Features = append(subsection.Features, *feature)
					feature = nil
				}
				section.Subsections = append(section.Subsections, *subsection)
			}
			subsection = &model.UpdateSubsection{Title: headline}
		case "h4":
			if subsection == nil {
				return
			}
			headline := headlineText(node)
			if headline == "" {
				return
			}
			if feature != nil {
				subsection.Features = append(subsection.Features, *feature)
			}
			feature = &model.UpdateFeature{Title: headline}
		case "p":
			text := strings.TrimSpace(node.Text())
			if text == "" {
				return
			}
			if subsection != nil {
				subsection.Items = append(subsection.Items, text)
			} else if section != nil {
				section.Intro = append(section.Intro, text)
			}
		case "ul":
			items := listItems(node, 0)
			switch {
			case feature != nil:
				feature.Items = append(feature.Items, items...)
			case subsection != nil:
				subsection.Items = append(subsection.Items, items...)
			case section != nil:
				section.Items = append(section.Items, items...)
			}
		}
	})
	closeSection()

	if len(sections) == 0 {
		return nil, ErrNotFound
	}
	return sections, nil
}

func headlineText(node *goquery.Selection) string {
	return strings.TrimSpace(node.Find(".mw-headline").First().Text())
}

// listItems flattens a bullet list into prefixed text lines. Top-level
// items get a solid bullet, nested ones an open bullet plus two spaces
// of indent per depth level.
func listItems(ul *goquery.Selection, depth int) []string {
	var items []string
	indent := strings.Repeat("  ", depth)
	bullet := "•"
	if depth > 0 {
		bullet = "◦"
	}

	ul.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		var parts []string
		li.Contents().Each(func(_ int, child *goquery.Selection) {
			if goquery.NodeName(child) == "ul" {
				return
			}
			parts = append(parts, child.Text())
		})
		if text := strings.TrimSpace(strings.Join(parts, "")); text != "" {
			items = append(items, indent+bullet+" "+text)
		}

		li.ChildrenFiltered("ul").Each(func(_ int, nested *goquery.Selection) {
			items = append(items, listItems(nested, depth+1)...)
		})
	})
	return items
}

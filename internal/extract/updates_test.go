package extract

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"devona/internal/model"
)

func TestUpdateSections(t *testing.T) {
	html := loadFixture(t, "../../testdata/game_update.html")

	got, err := UpdateSections(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.UpdateSection{
		{
			Title: "Update - Thursday, January 15, 2026",
			Intro: []string{"This build includes balance changes and bug fixes."},
			Subsections: []model.UpdateSubsection{
				{
					Title: "Automated Tournaments",
					Items: []string{
						"Monthly tournaments now award additional prizes.",
						"• Increased the reward for first place.",
						"  ◦ Gold trim is now account-wide.",
						"• Fixed a bug that prevented registration during the final round.",
					},
					Features: []model.UpdateFeature{
						{
							Title: "Skill Updates",
							Items: []string{
								"• Mending Touch: reduced recharge to 4 seconds.",
								"• Shield Bash: increased duration to 10 seconds.",
							},
						},
					},
				},
			},
		},
		{
			Title: "Bug Fixes",
			Items: []string{"• Fixed a crash when zoning into Embark Beach."},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateSectionsEmptyPage(t *testing.T) {
	_, err := UpdateSections(`<div class="mw-parser-output"><p>orphan paragraph</p></div>`)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListItemsNesting(t *testing.T) {
	html := `<div class="mw-parser-output">
<h2><span class="mw-headline">Changes</span></h2>
<ul>
<li>Top level<ul><li>Second level<ul><li>Third level</li></ul></li></ul></li>
</ul>
</div>`

	got, err := UpdateSections(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"• Top level",
		"  ◦ Second level",
		"    ◦ Third level",
	}
	if diff := cmp.Diff(want, got[0].Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

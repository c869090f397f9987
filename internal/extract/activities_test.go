package extract

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"devona/internal/model"
)

func TestWeeklyBonuses(t *testing.T) {
	html := loadFixture(t, "../../testdata/weekly_bonuses.html")

	got, err := WeeklyBonuses(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.Bonus{
		{
			Name:        "Extra Luck Bonus",
			Date:        "5 January – 12 January",
			Description: "Keys and lockpicks drop at four times the usual rate, and the Lucky and Unlucky titles accumulate points twice as fast.",
		},
		{
			Name:        "Northern Support Bonus",
			Date:        "5 January – 12 January",
			Description: "The Eye of the North reputation titles accumulate points at double the normal rate.",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bonuses mismatch (-want +got):\n%s", diff)
	}
}

func TestWeeklyBonusesMissingStructure(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{
			name: "no content root",
			html: "<html><body><p>nothing</p></body></html>",
		},
		{
			name: "no this-week heading",
			html: `<div class="mw-parser-output"><h2><span id="Next_week">Next week</span></h2></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WeeklyBonuses(tt.html)
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestZaishenQuest(t *testing.T) {
	html := loadFixture(t, "../../testdata/zaishen_quests.html")

	tests := []struct {
		name    string
		date    time.Time
		want    *model.ZaishenQuest
		wantErr bool
	}{
		{
			name: "bold row when date is zero",
			want: &model.ZaishenQuest{
				Date:       "5 January 2026",
				Mission:    "Thunderhead Keep",
				Bounty:     "Ssuns, Blessed of Dwayna",
				Combat:     "Random Arenas",
				Vanquish:   "Ferndale",
				TotalCoins: 425,
			},
		},
		{
			name: "explicit date selects its row",
			date: time.Date(2026, time.January, 4, 0, 0, 0, 0, time.UTC),
			want: &model.ZaishenQuest{
				Date:       "4 January 2026",
				Mission:    "Vizunah Square",
				Bounty:     "Fenrir",
				Combat:     "Codex Arena",
				Vanquish:   "Arborstone",
				TotalCoins: 300,
			},
		},
		{
			name:    "date not in table",
			date:    time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ZaishenQuest(html, tt.date)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("quest mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNicholasGift(t *testing.T) {
	html := loadFixture(t, "../../testdata/nicholas_cycle.html")

	tests := []struct {
		name    string
		date    time.Time
		want    *model.NicholasGift
		wantErr bool
	}{
		{
			name: "bold row when date is zero",
			want: &model.NicholasGift{
				Week:     "5 January 2026",
				Item:     "Gloom Seed",
				Location: "The Falls",
				Region:   "Maguuma Jungle",
				Campaign: "Prophecies",
			},
		},
		{
			name: "mid-week date resolves to the week's row",
			date: time.Date(2026, time.January, 8, 0, 0, 0, 0, time.UTC),
			want: &model.NicholasGift{
				Week:     "5 January 2026",
				Item:     "Gloom Seed",
				Location: "The Falls",
				Region:   "Maguuma Jungle",
				Campaign: "Prophecies",
			},
		},
		{
			name: "date on a row boundary",
			date: time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC),
			want: &model.NicholasGift{
				Week:     "12 January 2026",
				Item:     "Luminous Stone",
				Location: "Crystal Overlook",
				Region:   "The Desolation",
				Campaign: "Nightfall",
			},
		},
		{
			name:    "date before all rows",
			date:    time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NicholasGift(html, tt.date)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("gift mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDailyExtras(t *testing.T) {
	html := loadFixture(t, "../../testdata/daily_activities.html")

	got, err := DailyExtras(html, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &model.DailyExtras{
		Vanguard:      "Farmer Hamnet",
		VanguardTitle: "Vanguard Rescue: Farmer Hamnet",
		Sandford:      "Enchanted Lodestones",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("extras mismatch (-want +got):\n%s", diff)
	}
}

func TestDailyExtrasByDate(t *testing.T) {
	html := loadFixture(t, "../../testdata/daily_activities.html")

	got, err := DailyExtras(html, time.Date(2026, time.January, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &model.DailyExtras{
		Vanguard:      "Undead",
		VanguardTitle: "Vanguard Annihilation: Undead",
		Sandford:      "Grawl Necklaces",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("extras mismatch (-want +got):\n%s", diff)
	}
}

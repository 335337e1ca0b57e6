package gamification

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/blackshadow44/Substanz/internal/models"
)

var anchor = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func hasAchievement(p *Progress, id string) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name    string
		lastDay string
		want    int
	}{
		{"today", "2024-06-15", 0},
		{"week ago", "2024-06-08", 7},
		{"no entries", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entries []models.Entry
			if tt.lastDay != "" {
				entries = append(entries, models.Entry{Date: tt.lastDay, Substance: "Cannabis"})
			}
			if got := currentStreak(entries, anchor); got != tt.want {
				t.Errorf("currentStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBestStreakGap(t *testing.T) {
	entries := []models.Entry{
		{Date: "2024-05-01", Substance: "a"},
		{Date: "2024-05-02", Substance: "a"},
		{Date: "2024-05-12", Substance: "a"}, // 9 clean days in between
		{Date: "2024-06-14", Substance: "a"},
	}
	p := Evaluate(entries, nil, anchor)
	if p.CurrentStreakDays != 1 {
		t.Errorf("CurrentStreakDays = %d, want 1", p.CurrentStreakDays)
	}
	if p.BestStreakDays != 32 { // 2024-05-12 to 2024-06-14
		t.Errorf("BestStreakDays = %d, want 32", p.BestStreakDays)
	}
}

func TestAchievements(t *testing.T) {
	var entries []models.Entry
	for i := 0; i < 30; i++ {
		entries = append(entries, models.Entry{
			Date: fmt.Sprintf("2024-04-%02d", i%28+1), Substance: "Kaffee",
			Experience: "notiert",
		})
	}
	goals := []models.Goal{{Substance: "Kaffee", Completed: true}}

	p := Evaluate(entries, goals, anchor)

	for _, id := range []string{
		"first_10", "consistent_tracker", "week_clean", "month_clean",
		"goal_achiever", "reflective_writer", "cost_conscious",
	} {
		if !hasAchievement(p, id) {
			t.Errorf("achievement %s not earned; got %+v", id, p.Achievements)
		}
	}
}

func TestCostConsciousNeedsLowSpend(t *testing.T) {
	entries := []models.Entry{{
		Date: "2024-06-10", Substance: "Alkohol",
		Cost: sql.NullFloat64{Float64: 80, Valid: true},
	}}
	p := Evaluate(entries, nil, anchor)
	if hasAchievement(p, "cost_conscious") {
		t.Error("cost_conscious earned despite 80€ spend")
	}
}

func TestPoints(t *testing.T) {
	entries := []models.Entry{
		{Date: "2024-06-10", Substance: "Cannabis",
			Rating: sql.NullInt64{Int64: 4, Valid: true}, Experience: "entspannt"},
		{Date: "2024-06-12", Substance: "Cannabis"},
	}
	p := Evaluate(entries, nil, anchor)

	// 2 entries ×10 + 1 detailed ×20 + 1 achievement (cost_conscious) ×100
	// + streak 3 ×50 + best 3 ×25.
	want := 20 + 20 + 100 + 150 + 75
	if p.Points != want {
		t.Errorf("Points = %d, want %d", p.Points, want)
	}
}

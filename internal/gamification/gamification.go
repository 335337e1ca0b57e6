package gamification

import (
	"time"

	"github.com/blackshadow44/Substanz/internal/models"
)

// Achievement is one earned badge.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Progress is the gamification summary shown to the user: the current
// abstinence streak, earned achievements, and a point total.
type Progress struct {
	CurrentStreakDays int           `json:"current_streak_days"`
	BestStreakDays    int           `json:"best_streak_days"`
	Achievements      []Achievement `json:"achievements"`
	Points            int           `json:"points"`
}

// Evaluate computes the full gamification state from the persisted data.
func Evaluate(entries []models.Entry, goals []models.Goal, now time.Time) *Progress {
	p := &Progress{}
	p.CurrentStreakDays = currentStreak(entries, now)
	p.BestStreakDays = bestStreak(entries, p.CurrentStreakDays)
	p.Achievements = achievements(entries, goals, p, now)
	p.Points = points(entries, p)
	return p
}

// currentStreak is the number of full days since the most recent entry.
func currentStreak(entries []models.Entry, now time.Time) int {
	var latest time.Time
	for _, e := range entries {
		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			continue
		}
		if d.After(latest) {
			latest = d
		}
	}
	if latest.IsZero() {
		return 0
	}
	days := int(now.Sub(latest).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// bestStreak is the longest gap between consecutive entry dates, or the
// current streak when that is longer.
func bestStreak(entries []models.Entry, current int) int {
	seen := make(map[string]bool)
	var dates []time.Time
	for _, e := range entries {
		if seen[e.Date] {
			continue
		}
		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			continue
		}
		seen[e.Date] = true
		dates = append(dates, d)
	}

	best := current
	for i := range dates {
		for j := range dates {
			if !dates[j].After(dates[i]) {
				continue
			}
			// Smallest following date determines the gap.
			gap := int(dates[j].Sub(dates[i]).Hours()/24) - 1
			isNext := true
			for k := range dates {
				if dates[k].After(dates[i]) && dates[k].Before(dates[j]) {
					isNext = false
					break
				}
			}
			if isNext && gap > best {
				best = gap
			}
		}
	}
	return best
}

func achievements(entries []models.Entry, goals []models.Goal, p *Progress, now time.Time) []Achievement {
	var earned []Achievement
	add := func(id, title, description string) {
		earned = append(earned, Achievement{ID: id, Title: title, Description: description})
	}

	if len(entries) >= 10 {
		add("first_10", "Dokumentarist", "10 Einträge erfasst")
	}
	if len(entries) >= 30 {
		add("consistent_tracker", "Konsequenter Tracker", "30 Einträge erfasst")
	}
	if p.CurrentStreakDays >= 7 {
		add("week_clean", "Eine Woche Pause", "7 Tage ohne Eintrag")
	}
	if p.CurrentStreakDays >= 30 {
		add("month_clean", "Ein Monat Pause", "30 Tage ohne Eintrag")
	}
	for _, g := range goals {
		if g.Completed {
			add("goal_achiever", "Zielerreicher", "Ein Ziel abgeschlossen")
			break
		}
	}
	reflective := 0
	for _, e := range entries {
		if e.Experience != "" {
			reflective++
		}
	}
	if reflective >= 5 {
		add("reflective_writer", "Reflektierter Schreiber", "5 Erfahrungen ausführlich beschrieben")
	}

	monthCost := 0.0
	cutoff := now.AddDate(0, 0, -30)
	for _, e := range entries {
		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil || d.Before(cutoff) {
			continue
		}
		if e.Cost.Valid {
			monthCost += e.Cost.Float64
		}
	}
	if len(entries) > 0 && monthCost < 50 {
		add("cost_conscious", "Kostenbewusst", "Unter 50€ Ausgaben im letzten Monat")
	}

	return earned
}

// points scores entries, detail quality, achievements, and streaks.
func points(entries []models.Entry, p *Progress) int {
	total := len(entries) * 10
	for _, e := range entries {
		if e.Rating.Valid && e.Experience != "" {
			total += 20
		}
	}
	total += len(p.Achievements) * 100
	total += p.CurrentStreakDays * 50
	total += p.BestStreakDays * 25
	return total
}

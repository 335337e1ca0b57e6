package advisor

import (
	"fmt"
	"sort"
	"time"

	"github.com/blackshadow44/Substanz/internal/models"
)

// RiskPattern is one detected risk with a severity of "medium" or "high".
type RiskPattern struct {
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// Prediction extrapolates current usage into the near future.
type Prediction struct {
	WeeklyEntries float64 `json:"weekly_entries"`
	MonthlyCost   float64 `json:"monthly_cost"`
}

// Advice is the full advisor output.
type Advice struct {
	RiskPatterns    []RiskPattern `json:"risk_patterns"`
	Prediction      Prediction    `json:"prediction"`
	Recommendations []string      `json:"recommendations"`
}

const (
	weeklyEntryLimit   = 5
	monthlyCostLimit   = 200
	multiSubstanceDays = 2
	lowRatingLimit     = 3
	costWindow         = 20
)

// Analyze inspects the diary entries for risk patterns and extrapolates usage.
// Pure over its inputs; now anchors the rolling windows.
func Analyze(entries []models.Entry, now time.Time) *Advice {
	advice := &Advice{}

	recent7 := entriesSince(entries, now.AddDate(0, 0, -7))
	recent30 := entriesSince(entries, now.AddDate(0, 0, -30))

	if len(recent7) >= weeklyEntryLimit {
		advice.RiskPatterns = append(advice.RiskPatterns, RiskPattern{
			Severity:    "high",
			Description: fmt.Sprintf("%d Einträge in den letzten 7 Tagen - sehr häufiger Konsum", len(recent7)),
		})
	}

	monthlyCost := 0.0
	for _, e := range recent30 {
		if e.Cost.Valid {
			monthlyCost += e.Cost.Float64
		}
	}
	if monthlyCost > monthlyCostLimit {
		advice.RiskPatterns = append(advice.RiskPatterns, RiskPattern{
			Severity:    "medium",
			Description: fmt.Sprintf("Monatliche Ausgaben von %.2f€ überschreiten 200€", monthlyCost),
		})
	}

	if days := multiSubstanceDayCount(recent30); days > multiSubstanceDays {
		advice.RiskPatterns = append(advice.RiskPatterns, RiskPattern{
			Severity:    "high",
			Description: fmt.Sprintf("Mischkonsum an %d Tagen im letzten Monat", days),
		})
	}

	lowRatings := 0
	for _, e := range recent30 {
		if e.Rating.Valid && e.Rating.Int64 <= 2 {
			lowRatings++
		}
	}
	if lowRatings > lowRatingLimit {
		advice.RiskPatterns = append(advice.RiskPatterns, RiskPattern{
			Severity:    "medium",
			Description: fmt.Sprintf("%d schlecht bewertete Erfahrungen im letzten Monat", lowRatings),
		})
	}

	advice.Prediction = predict(entries)
	advice.Recommendations = recommend(advice, entries, len(recent7))
	return advice
}

func entriesSince(entries []models.Entry, cutoff time.Time) []models.Entry {
	var out []models.Entry
	for _, e := range entries {
		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			continue
		}
		if !d.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

func multiSubstanceDayCount(entries []models.Entry) int {
	byDate := make(map[string]map[string]bool)
	for _, e := range entries {
		if byDate[e.Date] == nil {
			byDate[e.Date] = make(map[string]bool)
		}
		byDate[e.Date][e.Substance] = true
	}
	count := 0
	for _, substances := range byDate {
		if len(substances) > 1 {
			count++
		}
	}
	return count
}

// predict extrapolates the per-day entry rate over the last seven active
// dates to a week, and the mean of the last 20 costed entries to a month.
func predict(entries []models.Entry) Prediction {
	var p Prediction
	if len(entries) == 0 {
		return p
	}

	perDate := make(map[string]int)
	for _, e := range entries {
		if _, err := time.Parse("2006-01-02", e.Date); err != nil {
			continue
		}
		perDate[e.Date]++
	}
	if len(perDate) > 0 {
		dates := make([]string, 0, len(perDate))
		for d := range perDate {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		if len(dates) > 7 {
			dates = dates[len(dates)-7:]
		}
		total := 0
		for _, d := range dates {
			total += perDate[d]
		}
		p.WeeklyEntries = float64(total) / float64(len(dates)) * 7
	}

	var costs []float64
	for _, e := range entries {
		if e.Cost.Valid {
			costs = append(costs, e.Cost.Float64)
		}
	}
	if len(costs) > costWindow {
		costs = costs[:costWindow]
	}
	if len(costs) > 0 {
		sum := 0.0
		for _, c := range costs {
			sum += c
		}
		p.MonthlyCost = sum / float64(len(costs)) * 30
	}

	return p
}

func recommend(advice *Advice, entries []models.Entry, recentCount int) []string {
	if len(entries) == 0 {
		return []string{"Lege zuerst ein paar Einträge an, dann kann ich dein Konsummuster einschätzen."}
	}

	var recs []string

	for _, r := range advice.RiskPatterns {
		if r.Severity == "high" {
			recs = append(recs, "Lege bewusste Konsumpausen ein und beobachte, wie es dir dabei geht")
			break
		}
	}
	if advice.Prediction.MonthlyCost > monthlyCostLimit {
		recs = append(recs, fmt.Sprintf(
			"Bei gleichem Verhalten liegen die Ausgaben bei ca. %.0f€/Monat - setze dir ein Budget",
			advice.Prediction.MonthlyCost))
	}
	if gap, ok := meanGapDays(entries); ok && gap < 3 {
		recs = append(recs, fmt.Sprintf(
			"Zwischen deinen Konsumtagen liegen im Schnitt nur %.1f Tage - plane längere Pausen ein", gap))
	}
	if ratio, ok := weekendRatio(entries); ok && ratio > 3 {
		recs = append(recs, "Dein Konsum konzentriert sich stark auf das Wochenende - achte auf bewusste Wochenenden")
	}
	if recentCount == 0 {
		recs = append(recs, "Aktuell keine Einträge diese Woche - weiter so!")
	}

	if len(recs) == 0 {
		recs = append(recs, "Dein Konsummuster zeigt derzeit keine Risikosignale. Führe das Tagebuch weiter.")
	}
	return recs
}

// meanGapDays is the average number of days between consecutive distinct
// consumption dates. ok is false with fewer than two dates.
func meanGapDays(entries []models.Entry) (float64, bool) {
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
	if len(dates) < 2 {
		return 0, false
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	totalGap := 0.0
	for i := 1; i < len(dates); i++ {
		totalGap += dates[i].Sub(dates[i-1]).Hours() / 24
	}
	return totalGap / float64(len(dates)-1), true
}

// weekendRatio is the mean entries per weekend day over the mean entries per
// weekday. ok is false without weekday entries.
func weekendRatio(entries []models.Entry) (float64, bool) {
	weekend, weekday := 0, 0
	for _, e := range entries {
		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			continue
		}
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend++
		} else {
			weekday++
		}
	}
	if weekday == 0 {
		return 0, false
	}
	return (float64(weekend) / 2) / (float64(weekday) / 5), true
}

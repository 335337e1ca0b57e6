package analysis

import (
	"fmt"
	"math"
	"time"
)

// The interpretation tables and threshold rules in this file are fixed domain
// knowledge carried over from the diary's established behavior. They are not
// configurable.

type pairKey struct{ a, b string }

// interpretCorrelation maps a known metric pair (either order) to a
// sign-dependent phrasing, falling back to a strength/direction phrase.
func interpretCorrelation(metricA, metricB string, r float64) string {
	pick := func(negative, positive string) string {
		if r < 0 {
			return negative
		}
		return positive
	}

	switch (pairKey{metricA, metricB}) {
	case pairKey{"total_sleep_min", "avg_heart_rate"}, pairKey{"avg_heart_rate", "total_sleep_min"}:
		return pick("Mehr Schlaf → Niedrigere Herzfrequenz", "Mehr Schlaf → Höhere Herzfrequenz")
	case pairKey{"deep_sleep_min", "avg_heart_rate"}, pairKey{"avg_heart_rate", "deep_sleep_min"}:
		return pick("Mehr Tiefschlaf → Niedrigere Herzfrequenz", "Mehr Tiefschlaf → Höhere Herzfrequenz")
	case pairKey{"avg_consumption_rating", "avg_heart_rate"}, pairKey{"avg_heart_rate", "avg_consumption_rating"}:
		return pick("Höhere Bewertung → Niedrigere Herzfrequenz", "Höhere Bewertung → Höhere Herzfrequenz")
	case pairKey{"total_daily_cost", "total_sleep_min"}, pairKey{"total_sleep_min", "total_daily_cost"}:
		return pick("Höhere Kosten → Weniger Schlaf", "Höhere Kosten → Mehr Schlaf")
	}

	strength := "schwach"
	switch {
	case math.Abs(r) > 0.7:
		strength = "stark"
	case math.Abs(r) > 0.4:
		strength = "mäßig"
	}
	direction := "positive"
	if r < 0 {
		direction = "negative"
	}
	return fmt.Sprintf("%s %s Korrelation", strength, direction)
}

// substanceInterpretations holds the known physiological claims per
// (substance, metric).
var substanceInterpretations = map[string]map[string]string{
	"Alkohol": {
		"avg_heart_rate":   "Erhöht typischerweise Herzfrequenz",
		"total_sleep_min":  "Reduziert oft Schlafqualität",
		"sleep_efficiency": "Senkt üblicherweise Schlafeffizienz",
	},
	"Cannabis": {
		"avg_heart_rate":   "Kann Herzfrequenz erhöhen",
		"total_sleep_min":  "Kann Schlafdauer beeinflussen",
		"sleep_efficiency": "Kann Schlafmuster verändern",
	},
	"MDMA": {
		"avg_heart_rate":   "Stark erhöht Herzfrequenz",
		"total_sleep_min":  "Beeinträchtigt Schlaf stark",
		"sleep_efficiency": "Reduziert Schlafeffizienz deutlich",
	},
}

func interpretSubstanceEffect(substance, metric string, diff float64) string {
	if byMetric, ok := substanceInterpretations[substance]; ok {
		if text, ok := byMetric[metric]; ok {
			return text
		}
	}

	if math.Abs(diff) > 10 {
		effect := "erhöht"
		if diff < 0 {
			effect = "verringert"
		}
		return fmt.Sprintf("%s %s %s um %.1f%%", substance, effect, metric, math.Abs(diff))
	}
	return fmt.Sprintf("%s zeigt keinen klaren Effekt auf %s", substance, metric)
}

// domainPresence reports whether each domain contributed to any row at all.
// Heuristic rules only fire when the relevant domain exists somewhere; within
// it they run over the zero-filled daily values, like the diary always has.
type domainPresence struct {
	sleep, heartRate, consumption bool
}

func presence(rows []DayMetrics) domainPresence {
	var p domainPresence
	for k := range rows {
		p.sleep = p.sleep || rows[k].HasSleep
		p.heartRate = p.heartRate || rows[k].HasHeartRate
		p.consumption = p.consumption || rows[k].HasConsumption
	}
	return p
}

func meanOverAll(rows []DayMetrics, value func(*DayMetrics) float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for k := range rows {
		sum += value(&rows[k])
	}
	return sum / float64(len(rows))
}

// DetectAnomalies flags days whose mean heart rate deviates more than two
// standard deviations (population) from the overall mean. Returns the flagged
// count and its share of all analyzed days; both are zero when no heart-rate
// data exists or the column is constant.
func DetectAnomalies(rows []DayMetrics) (int, float64) {
	if len(rows) == 0 || !presence(rows).heartRate {
		return 0, 0
	}

	mean := meanOverAll(rows, func(d *DayMetrics) float64 { return d.AvgHeartRate })
	variance := 0.0
	for k := range rows {
		dev := rows[k].AvgHeartRate - mean
		variance += dev * dev
	}
	variance /= float64(len(rows))
	std := math.Sqrt(variance)
	if std <= 0 {
		return 0, 0
	}

	count := 0
	for k := range rows {
		if math.Abs(rows[k].AvgHeartRate-mean) > 2*std {
			count++
		}
	}
	return count, float64(count) / float64(len(rows)) * 100
}

// IdentifyPatterns derives simple behavioral patterns: the weekday with the
// highest mean entry count, and whether longer-sleep days come with a lower
// heart rate.
func IdentifyPatterns(rows []DayMetrics) []string {
	var patterns []string
	p := presence(rows)

	if p.consumption && len(rows) > 0 {
		sums := make(map[time.Weekday]float64)
		counts := make(map[time.Weekday]int)
		for k := range rows {
			wd := rows[k].Date.Weekday()
			sums[wd] += float64(rows[k].ConsumptionCount)
			counts[wd]++
		}

		var maxDay time.Weekday
		maxMean := math.Inf(-1)
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			if counts[wd] == 0 {
				continue
			}
			mean := sums[wd] / float64(counts[wd])
			if mean > maxMean {
				maxMean = mean
				maxDay = wd
			}
		}
		patterns = append(patterns, fmt.Sprintf("Höchster Konsum typischerweise am %s (%.1f Einträge)", maxDay, maxMean))
	}

	if p.sleep && p.heartRate {
		meanSleep := meanOverAll(rows, func(d *DayMetrics) float64 { return d.TotalSleepMin })

		var hrAboveSum, hrBelowSum float64
		var above, below int
		for k := range rows {
			if rows[k].TotalSleepMin > meanSleep {
				hrAboveSum += rows[k].AvgHeartRate
				above++
			} else {
				hrBelowSum += rows[k].AvgHeartRate
				below++
			}
		}
		if above > 0 && below > 0 && hrAboveSum/float64(above) < hrBelowSum/float64(below) {
			patterns = append(patterns, "Tage mit mehr Schlaf haben tendenziell niedrigere Herzfrequenz")
		}
	}

	if len(patterns) == 0 {
		patterns = append(patterns, "Keine klaren Muster identifiziert")
	}
	return patterns
}

// Recommendation thresholds, in order: short sleep, long sleep, elevated
// resting heart rate, frequent consumption.
const (
	shortSleepMinutes = 360
	longSleepMinutes  = 540
	highHeartRate     = 80
	frequentPerDay    = 1
)

// GenerateRecommendations applies the fixed threshold rules over the daily
// aggregates. The result is never empty; a placeholder stands in when no rule
// fires.
func GenerateRecommendations(rows []DayMetrics) []string {
	var recommendations []string
	p := presence(rows)

	if p.sleep {
		avgSleep := meanOverAll(rows, func(d *DayMetrics) float64 { return d.TotalSleepMin })
		if avgSleep < shortSleepMinutes {
			recommendations = append(recommendations,
				fmt.Sprintf("Schlafdauer erhöhen: Aktuell Ø %.1fh, Ziel: 7-9h", avgSleep/60))
		} else if avgSleep > longSleepMinutes {
			recommendations = append(recommendations,
				fmt.Sprintf("Schlafdauer möglicherweise zu hoch: Ø %.1fh", avgSleep/60))
		}
	}

	if p.heartRate {
		avgHR := meanOverAll(rows, func(d *DayMetrics) float64 { return d.AvgHeartRate })
		if avgHR > highHeartRate {
			recommendations = append(recommendations,
				fmt.Sprintf("Ruheherzfrequenz senken: Aktuell Ø %.1f bpm, Ziel: <70 bpm", avgHR))
		}
	}

	if p.consumption {
		avgCount := meanOverAll(rows, func(d *DayMetrics) float64 { return float64(d.ConsumptionCount) })
		if avgCount > frequentPerDay {
			recommendations = append(recommendations,
				fmt.Sprintf("Konsumhäufigkeit reduzieren: Aktuell Ø %.1f Einträge/Tag", avgCount))
		}
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Keine spezifischen Empfehlungen")
	}
	return recommendations
}

// GeneratePersonalInsights runs the softer threshold rules used for the
// report's personal assessment section. Never empty.
func GeneratePersonalInsights(rows []DayMetrics) []string {
	var insights []string
	p := presence(rows)

	if p.sleep {
		avgSleep := meanOverAll(rows, func(d *DayMetrics) float64 { return d.TotalSleepMin })
		if avgSleep < shortSleepMinutes {
			insights = append(insights,
				"Deine durchschnittliche Schlafdauer scheint gering. Ausreichender Schlaf ist wichtig für Regeneration.")
		} else if avgSleep > longSleepMinutes {
			insights = append(insights,
				"Deine Schlafdauer ist überdurchschnittlich hoch. Prüfe die Schlafqualität.")
		}
	}

	if p.heartRate {
		avgHR := meanOverAll(rows, func(d *DayMetrics) float64 { return d.AvgHeartRate })
		if avgHR > highHeartRate {
			insights = append(insights,
				"Deine Ruheherzfrequenz ist erhöht. Dies könnte auf Stress oder körperliche Belastung hinweisen.")
		}
	}

	if p.consumption && len(rows) > 0 {
		consumptionDays := 0
		for k := range rows {
			if rows[k].HasConsumption {
				consumptionDays++
			}
		}
		if float64(consumptionDays)/float64(len(rows)) > 0.5 {
			insights = append(insights,
				"Konsumtage machen mehr als 50% der erfassten Zeit aus. Eine Reflexion der Konsummuster könnte hilfreich sein.")
		}
	}

	if len(insights) == 0 {
		insights = append(insights, "Basierend auf den aktuellen Daten liegen keine auffälligen Muster vor.")
	}
	return insights
}

// Risk warning thresholds: stressed days combine an elevated heart rate with
// short sleep; alcohol days with degraded sleep efficiency are called out.
const (
	stressHeartRate       = 85
	stressSleepMinutes    = 300
	stressDayLimit        = 3
	lowSleepEfficiencyPct = 75
)

// IdentifyRiskWarnings derives the warning section. May be empty: warnings
// only appear when a risk rule actually fires.
func IdentifyRiskWarnings(rows []DayMetrics) []string {
	var warnings []string
	p := presence(rows)

	if p.heartRate && p.sleep {
		stressed := 0
		for k := range rows {
			if rows[k].AvgHeartRate > stressHeartRate && rows[k].TotalSleepMin < stressSleepMinutes {
				stressed++
			}
		}
		if stressed > stressDayLimit {
			warnings = append(warnings, fmt.Sprintf(
				"An %d Tagen kombinierte sich hohe Herzfrequenz (>85 bpm) mit wenig Schlaf (<5h)", stressed))
		}
	}

	if p.sleep {
		var efficiencySum float64
		alcoholDays := 0
		for k := range rows {
			if rows[k].UsedSubstance("Alkohol") {
				efficiencySum += rows[k].SleepEfficiency()
				alcoholDays++
			}
		}
		if alcoholDays > 0 {
			avgEfficiency := efficiencySum / float64(alcoholDays)
			if avgEfficiency < lowSleepEfficiencyPct {
				warnings = append(warnings, fmt.Sprintf(
					"An Tagen mit Alkoholkonsum war die Schlafeffizienz deutlich reduziert (Ø %.1f%%)", avgEfficiency))
			}
		}
	}

	return warnings
}

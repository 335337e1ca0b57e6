package analysis

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"
)

// DayMetrics is the combined per-calendar-date aggregate across all three
// domains. Fields for a domain that contributed nothing that day are zero and
// the presence flag is false; the correlation engine keys off the flags, not
// the zeros.
type DayMetrics struct {
	Date time.Time

	TotalSleepMin float64
	DeepSleepMin  float64
	LightSleepMin float64
	REMSleepMin   float64
	WakeMin       float64

	AvgHeartRate   float64
	MaxHeartRate   float64
	MinHeartRate   float64
	HeartRateStd   float64 // population formula; 0 for a single sample
	HeartRateCount int

	Substances       []string
	ConsumptionCount int
	AvgRating        float64
	TotalCost        float64

	// Entries in the evening window (hour of day >= 18), the assumed
	// run-up to bedtime.
	EveningSubstances []string
	EveningCount      int

	HasSleep       bool
	HasHeartRate   bool
	HasConsumption bool
}

// eveningHour is the start of the pre-bedtime window.
const eveningHour = 18

// Aggregate merges the three observation series into one row per calendar
// date, sorted ascending. A date present in any series gets a row; domains
// absent on that date stay zero-valued with a false presence flag.
func Aggregate(sleep, heartRate, consumption []Observation) []DayMetrics {
	byDate := make(map[string]*DayMetrics)

	row := func(obs Observation) *DayMetrics {
		r, ok := byDate[obs.Date]
		if !ok {
			day, _ := time.Parse("2006-01-02", obs.Date)
			r = &DayMetrics{Date: day}
			byDate[obs.Date] = r
		}
		return r
	}

	for _, obs := range sleep {
		r := row(obs)
		r.HasSleep = true
		switch obs.Stage {
		case StageDeep:
			r.DeepSleepMin += obs.Value
		case StageLight:
			r.LightSleepMin += obs.Value
		case StageREM:
			r.REMSleepMin += obs.Value
		case StageWake:
			r.WakeMin += obs.Value
		default:
			r.TotalSleepMin += obs.Value
		}
	}

	heartByDate := make(map[string][]float64)
	for _, obs := range heartRate {
		row(obs).HasHeartRate = true
		heartByDate[obs.Date] = append(heartByDate[obs.Date], obs.Value)
	}
	for date, values := range heartByDate {
		r := byDate[date]
		r.AvgHeartRate, _ = stats.Mean(values)
		r.MaxHeartRate, _ = stats.Max(values)
		r.MinHeartRate, _ = stats.Min(values)
		r.HeartRateStd, _ = stats.StandardDeviationPopulation(values)
		r.HeartRateCount = len(values)
	}

	consByDate := make(map[string][]Observation)
	for _, obs := range consumption {
		row(obs).HasConsumption = true
		consByDate[obs.Date] = append(consByDate[obs.Date], obs)
	}
	for date, group := range consByDate {
		r := byDate[date]
		r.ConsumptionCount = len(group)

		ratingSum := 0.0
		for _, obs := range group {
			r.Substances = appendDistinct(r.Substances, obs.Substance)
			ratingSum += obs.Rating
			r.TotalCost += obs.Cost

			if obs.Timestamp.Hour() >= eveningHour {
				r.EveningSubstances = appendDistinct(r.EveningSubstances, obs.Substance)
				r.EveningCount++
			}
		}
		r.AvgRating = ratingSum / float64(len(group))
	}

	rows := make([]DayMetrics, 0, len(byDate))
	for _, r := range byDate {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

func appendDistinct(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

// UsedSubstance reports whether the given substance appears in the day's
// substance list.
func (d *DayMetrics) UsedSubstance(substance string) bool {
	for _, s := range d.Substances {
		if s == substance {
			return true
		}
	}
	return false
}

// SleepEfficiency is the share of time in bed actually spent asleep, in
// percent. Zero when there is no recorded bed time at all.
func (d *DayMetrics) SleepEfficiency() float64 {
	bedTime := d.TotalSleepMin + d.WakeMin
	if bedTime <= 0 {
		return 0
	}
	return d.TotalSleepMin / bedTime * 100
}

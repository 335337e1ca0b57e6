package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// CorrelationResult is one retained pairwise association between two daily
// metrics. Only pairs with |coefficient| > 0.3 over at least 3 paired days
// survive.
type CorrelationResult struct {
	MetricA        string  `json:"metric_a"`
	MetricB        string  `json:"metric_b"`
	Coefficient    float64 `json:"correlation"`
	SampleSize     int     `json:"n"`
	Interpretation string  `json:"interpretation"`
}

// SubstanceEffect compares a daily metric's mean on days a substance was used
// against days it was not.
type SubstanceEffect struct {
	Substance         string  `json:"substance"`
	Metric            string  `json:"metric"`
	WithSubstance     float64 `json:"with_substance"`
	WithoutSubstance  float64 `json:"without_substance"`
	DifferencePercent float64 `json:"difference_percent"`
	Interpretation    string  `json:"interpretation"`
}

const (
	minCorrelationSamples  = 3
	correlationMateriality = 0.3
)

// metricColumn describes one candidate daily metric. present gates the value
// on the owning domain's flag so that zero-filled rows from other domains
// never enter a paired sample.
type metricColumn struct {
	name    string
	present func(*DayMetrics) bool
	value   func(*DayMetrics) float64
}

func hasSleep(d *DayMetrics) bool       { return d.HasSleep }
func hasHeartRate(d *DayMetrics) bool   { return d.HasHeartRate }
func hasConsumption(d *DayMetrics) bool { return d.HasConsumption }

// The candidate list and its order are fixed; pair enumeration (i < j)
// follows it, so no pair is ever reported twice.
var metricColumns = []metricColumn{
	{"total_sleep_min", hasSleep, func(d *DayMetrics) float64 { return d.TotalSleepMin }},
	{"deep_sleep_min", hasSleep, func(d *DayMetrics) float64 { return d.DeepSleepMin }},
	{"light_sleep_min", hasSleep, func(d *DayMetrics) float64 { return d.LightSleepMin }},
	{"rem_sleep_min", hasSleep, func(d *DayMetrics) float64 { return d.REMSleepMin }},
	{"sleep_efficiency", hasSleep, func(d *DayMetrics) float64 { return d.SleepEfficiency() }},
	{"avg_heart_rate", hasHeartRate, func(d *DayMetrics) float64 { return d.AvgHeartRate }},
	{"hrv_proxy", hasHeartRate, func(d *DayMetrics) float64 { return d.HeartRateStd }},
	{"avg_consumption_rating", hasConsumption, func(d *DayMetrics) float64 { return d.AvgRating }},
	{"total_daily_cost", hasConsumption, func(d *DayMetrics) float64 { return d.TotalCost }},
}

// substanceEffectMetrics are the daily metrics compared across used/not-used
// partitions. Partition means use the zero-filled values (all partition rows),
// matching the diary's established accounting; the both-means-positive guard
// keeps empty domains out.
var substanceEffectMetrics = []string{"avg_heart_rate", "total_sleep_min", "sleep_efficiency"}

// Correlate computes retained pairwise correlations between eligible daily
// metrics. A metric is eligible when it has more than one distinct value
// across the rows where its domain is present; constant columns cannot
// correlate and would divide by zero.
func Correlate(rows []DayMetrics) []CorrelationResult {
	eligible := eligibleColumns(rows)

	var results []CorrelationResult
	for i := 0; i < len(eligible); i++ {
		for j := i + 1; j < len(eligible); j++ {
			a, b := eligible[i], eligible[j]

			var x, y []float64
			for k := range rows {
				r := &rows[k]
				if !a.present(r) || !b.present(r) {
					continue
				}
				x = append(x, a.value(r))
				y = append(y, b.value(r))
			}
			if len(x) < minCorrelationSamples {
				continue
			}

			r := stat.Correlation(x, y, nil)
			if math.IsNaN(r) || math.Abs(r) <= correlationMateriality {
				continue
			}

			results = append(results, CorrelationResult{
				MetricA:        a.name,
				MetricB:        b.name,
				Coefficient:    r,
				SampleSize:     len(x),
				Interpretation: interpretCorrelation(a.name, b.name, r),
			})
		}
	}
	return results
}

func eligibleColumns(rows []DayMetrics) []metricColumn {
	var eligible []metricColumn
	for _, col := range metricColumns {
		distinct := make(map[float64]struct{})
		for k := range rows {
			r := &rows[k]
			if col.present(r) {
				distinct[col.value(r)] = struct{}{}
			}
		}
		if len(distinct) > 1 {
			eligible = append(eligible, col)
		}
	}
	return eligible
}

// SubstanceEffects compares each substance's used-days against unused-days
// for the fixed metric set. A record is kept whenever both partition means
// are positive; magnitude thresholds apply only in interpretation.
func SubstanceEffects(rows []DayMetrics) []SubstanceEffect {
	var substances []string
	for k := range rows {
		for _, s := range rows[k].Substances {
			substances = appendDistinct(substances, s)
		}
	}

	columnByName := make(map[string]metricColumn, len(metricColumns))
	for _, col := range metricColumns {
		columnByName[col.name] = col
	}

	var effects []SubstanceEffect
	for _, substance := range substances {
		var with, without []*DayMetrics
		for k := range rows {
			r := &rows[k]
			if r.UsedSubstance(substance) {
				with = append(with, r)
			} else {
				without = append(without, r)
			}
		}
		if len(with) == 0 || len(without) == 0 {
			continue
		}

		for _, metric := range substanceEffectMetrics {
			col := columnByName[metric]
			withMean := meanOf(with, col.value)
			withoutMean := meanOf(without, col.value)
			if withMean <= 0 || withoutMean <= 0 {
				continue
			}

			diff := (withMean - withoutMean) / withoutMean * 100
			effects = append(effects, SubstanceEffect{
				Substance:         substance,
				Metric:            metric,
				WithSubstance:     withMean,
				WithoutSubstance:  withoutMean,
				DifferencePercent: diff,
				Interpretation:    interpretSubstanceEffect(substance, metric, diff),
			})
		}
	}
	return effects
}

func meanOf(rows []*DayMetrics, value func(*DayMetrics) float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rows {
		sum += value(r)
	}
	return sum / float64(len(rows))
}

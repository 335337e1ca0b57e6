package analysis

import (
	"errors"
	"log"
	"time"

	"github.com/blackshadow44/Substanz/internal/metrics"
	"github.com/blackshadow44/Substanz/internal/models"
)

// ErrNoData is returned when neither diary entries nor health samples yield a
// single analyzable day.
var ErrNoData = errors.New("analysis: no analyzable data")

// Analyzer runs the full pipeline: normalize, aggregate per day, correlate,
// interpret.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Run produces a complete report over the given entries and health samples.
func (a *Analyzer) Run(entries []models.Entry, samples []models.HealthSample) (*AnalysisReport, error) {
	started := time.Now()

	consumption, droppedEntries := LoadConsumption(entries)
	sleep, heartRate, droppedSamples := LoadHealth(samples)
	if droppedEntries > 0 || droppedSamples > 0 {
		log.Printf("analysis: dropped %d entries, %d health samples", droppedEntries, droppedSamples)
	}

	rows := Aggregate(sleep, heartRate, consumption)
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	rep := &AnalysisReport{
		GeneratedAt:        time.Now(),
		TotalDays:          len(rows),
		ClustersIdentified: 1,
	}

	var substances []string
	for k := range rows {
		if rows[k].HasSleep {
			rep.DaysWithSleepData++
		}
		if rows[k].HasHeartRate {
			rep.DaysWithHeartRate++
		}
		if rows[k].HasConsumption {
			rep.DaysWithConsumption++
		}
		for _, s := range rows[k].Substances {
			substances = appendDistinct(substances, s)
		}
	}
	rep.UniqueSubstances = len(substances)

	rep.Correlations = Correlate(rows)
	rep.SubstanceEffects = SubstanceEffects(rows)
	rep.AnomalyDays, rep.AnomalyPercentage = DetectAnomalies(rows)
	rep.Patterns = IdentifyPatterns(rows)
	rep.Recommendations = GenerateRecommendations(rows)
	rep.PersonalInsights = GeneratePersonalInsights(rows)
	rep.RiskWarnings = IdentifyRiskWarnings(rows)

	metrics.AnalysesRun.Inc()
	metrics.AnalysisDuration.Observe(time.Since(started).Seconds())

	return rep, nil
}

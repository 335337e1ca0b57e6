package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/blackshadow44/Substanz/internal/metrics"
	"github.com/blackshadow44/Substanz/internal/models"
)

// Domain identifies which time series an observation belongs to.
type Domain string

const (
	DomainSleep       Domain = "sleep"
	DomainHeartRate   Domain = "heart_rate"
	DomainConsumption Domain = "consumption"
)

// SleepStage is the subtype of a sleep observation.
type SleepStage string

const (
	StageDeep  SleepStage = "deep"
	StageLight SleepStage = "light"
	StageREM   SleepStage = "rem"
	StageWake  SleepStage = "wake"
	StageTotal SleepStage = "total"
)

// Observation is one normalized, dated data point. Consumption observations
// additionally carry the entry metadata so aggregation can use it downstream.
type Observation struct {
	Timestamp time.Time
	Date      string // calendar day, "2006-01-02"
	Domain    Domain
	Stage     SleepStage // sleep only
	Value     float64    // minutes (sleep), bpm (heart rate), 1 (consumption)

	Substance string
	Rating    float64
	Cost      float64
	Mood      string
	Setting   string
	Note      string
}

// Sleep classification vocabulary, evaluated on the lowercased type label.
// Domain match first (is this sleep at all?), then stage.
var sleepWords = []string{"sleep", "schlaf", "deep", "shallow", "rem", "wake"}
var heartWords = []string{"heart", "herz", "hr", "pulse", "puls"}

var stageRules = []struct {
	keywords []string
	stage    SleepStage
}{
	{[]string{"deep", "tief"}, StageDeep},
	{[]string{"shallow", "leicht"}, StageLight},
	{[]string{"rem"}, StageREM},
	{[]string{"wake", "wach"}, StageWake},
}

var timestampFormats = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02.01.2006 15:04",
}

var dateOnlyFormats = []string{
	"2006-01-02",
	"02.01.2006",
	"2006/01/02",
}

// parseTimestamp combines a date string and a time-of-day string. When the
// combined form does not parse the date alone is tried, mirroring how users
// enter data with and without times.
func parseTimestamp(dateStr, timeStr string) (time.Time, error) {
	if timeStr == "" {
		timeStr = "00:00"
	}
	combined := dateStr + " " + timeStr
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, combined); err == nil {
			return t, nil
		}
	}
	for _, format := range dateOnlyFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q %q", dateStr, timeStr)
}

// LoadConsumption normalizes diary entries into consumption observations.
// Entries with an unparsable date are dropped, never fatal. Returns the
// observations and the drop count.
func LoadConsumption(entries []models.Entry) ([]Observation, int) {
	var observations []Observation
	dropped := 0

	for _, e := range entries {
		ts, err := parseTimestamp(e.Date, e.Time)
		if err != nil {
			dropped++
			metrics.RecordsDropped.WithLabelValues("consumption_load").Inc()
			continue
		}

		obs := Observation{
			Timestamp: ts,
			Date:      ts.Format("2006-01-02"),
			Domain:    DomainConsumption,
			Value:     1,
			Substance: e.Substance,
			Mood:      e.Mood,
			Setting:   e.Setting,
			Note:      e.Experience,
		}
		if e.Rating.Valid {
			obs.Rating = float64(e.Rating.Int64)
		}
		if e.Cost.Valid {
			obs.Cost = e.Cost.Float64
		}
		observations = append(observations, obs)
	}

	return observations, dropped
}

// LoadHealth classifies health samples into sleep and heart-rate series by
// keyword on the type label. Samples matching neither vocabulary are ignored:
// only recognized domains feed the correlation engine. Unparsable timestamps
// drop the sample. Returns both series and the drop count.
func LoadHealth(samples []models.HealthSample) (sleep, heartRate []Observation, dropped int) {
	for _, h := range samples {
		label := strings.ToLower(h.Type)

		isSleep := containsAny(label, sleepWords)
		isHeart := !isSleep && containsAny(label, heartWords)
		if !isSleep && !isHeart {
			continue
		}

		ts, err := parseTimestamp(h.Date, h.Time)
		if err != nil {
			dropped++
			metrics.RecordsDropped.WithLabelValues("health_load").Inc()
			continue
		}

		obs := Observation{
			Timestamp: ts,
			Date:      ts.Format("2006-01-02"),
			Value:     h.Value,
		}

		if isSleep {
			obs.Domain = DomainSleep
			obs.Stage = classifyStage(label)
			sleep = append(sleep, obs)
		} else {
			obs.Domain = DomainHeartRate
			heartRate = append(heartRate, obs)
		}
	}

	return sleep, heartRate, dropped
}

func classifyStage(label string) SleepStage {
	for _, rule := range stageRules {
		if containsAny(label, rule.keywords) {
			return rule.stage
		}
	}
	return StageTotal
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

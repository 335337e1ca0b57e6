package analysis

import (
	"database/sql"
	"testing"
	"time"

	"github.com/blackshadow44/Substanz/internal/models"
)

func sleepObs(date string, stage SleepStage, minutes float64) Observation {
	ts, _ := time.Parse("2006-01-02", date)
	return Observation{Timestamp: ts, Date: date, Domain: DomainSleep, Stage: stage, Value: minutes}
}

func heartObs(date string, bpm float64) Observation {
	ts, _ := time.Parse("2006-01-02", date)
	return Observation{Timestamp: ts, Date: date, Domain: DomainHeartRate, Value: bpm}
}

func consObs(date, timeOfDay, substance string, rating float64) Observation {
	ts, _ := time.Parse("2006-01-02 15:04", date+" "+timeOfDay)
	return Observation{
		Timestamp: ts, Date: date, Domain: DomainConsumption,
		Value: 1, Substance: substance, Rating: rating,
	}
}

func TestAggregateOneRowPerDateSorted(t *testing.T) {
	rows := Aggregate(
		[]Observation{sleepObs("2024-01-03", StageTotal, 400), sleepObs("2024-01-01", StageTotal, 380)},
		[]Observation{heartObs("2024-01-02", 62), heartObs("2024-01-01", 60), heartObs("2024-01-01", 64)},
		[]Observation{consObs("2024-01-02", "20:00", "Cannabis", 3)},
	)

	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Date.Before(rows[i].Date) {
			t.Errorf("rows not sorted ascending: %v before %v", rows[i-1].Date, rows[i].Date)
		}
	}

	day1 := rows[0]
	if day1.Date.Format("2006-01-02") != "2024-01-01" {
		t.Fatalf("first row date = %s", day1.Date.Format("2006-01-02"))
	}
	if !day1.HasSleep || !day1.HasHeartRate || day1.HasConsumption {
		t.Errorf("day1 flags = sleep %v heart %v cons %v, want true true false",
			day1.HasSleep, day1.HasHeartRate, day1.HasConsumption)
	}
	if day1.AvgHeartRate != 62 {
		t.Errorf("day1 AvgHeartRate = %v, want 62", day1.AvgHeartRate)
	}
	if day1.HeartRateCount != 2 {
		t.Errorf("day1 HeartRateCount = %d, want 2", day1.HeartRateCount)
	}
}

func TestAggregateStageBuckets(t *testing.T) {
	rows := Aggregate([]Observation{
		sleepObs("2024-01-01", StageDeep, 90),
		sleepObs("2024-01-01", StageLight, 200),
		sleepObs("2024-01-01", StageREM, 70),
		sleepObs("2024-01-01", StageWake, 30),
		sleepObs("2024-01-01", StageTotal, 360),
	}, nil, nil)

	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	d := rows[0]
	if d.DeepSleepMin != 90 || d.LightSleepMin != 200 || d.REMSleepMin != 70 || d.WakeMin != 30 {
		t.Errorf("stage minutes = %v/%v/%v/%v", d.DeepSleepMin, d.LightSleepMin, d.REMSleepMin, d.WakeMin)
	}
	if d.TotalSleepMin != 360 {
		t.Errorf("TotalSleepMin = %v, want 360", d.TotalSleepMin)
	}
}

func TestAggregateEveningWindow(t *testing.T) {
	rows := Aggregate(nil, nil, []Observation{
		consObs("2024-01-01", "17:59", "Kaffee", 0),
		consObs("2024-01-01", "18:00", "Alkohol", 2),
		consObs("2024-01-01", "23:30", "Alkohol", 2),
	})

	d := rows[0]
	if d.ConsumptionCount != 3 {
		t.Errorf("ConsumptionCount = %d, want 3", d.ConsumptionCount)
	}
	if d.EveningCount != 2 {
		t.Errorf("EveningCount = %d, want 2", d.EveningCount)
	}
	if len(d.EveningSubstances) != 1 || d.EveningSubstances[0] != "Alkohol" {
		t.Errorf("EveningSubstances = %v", d.EveningSubstances)
	}
}

func TestSleepEfficiency(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		wake  float64
		want  float64
	}{
		{"normal", 450, 50, 90},
		{"no wake", 400, 0, 100},
		{"no data", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DayMetrics{TotalSleepMin: tt.total, WakeMin: tt.wake}
			if got := d.SleepEfficiency(); got != tt.want {
				t.Errorf("SleepEfficiency() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadHealthClassification(t *testing.T) {
	tests := []struct {
		label      string
		wantDomain Domain
		wantStage  SleepStage
	}{
		{"Deep Sleep Minutes", DomainSleep, StageDeep},
		{"Tiefschlaf", DomainSleep, StageDeep},
		{"Leichtschlaf", DomainSleep, StageLight},
		{"REM-Schlaf", DomainSleep, StageREM},
		{"Wachzeit", DomainSleep, StageWake},
		{"Schlaf", DomainSleep, StageTotal},
		{"Herzfrequenz", DomainHeartRate, ""},
		{"Resting Heart Rate", DomainHeartRate, ""},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			sleep, heart, dropped := LoadHealth([]models.HealthSample{
				{Type: tt.label, Value: 90, Date: "2024-01-01", Time: "08:00"},
			})
			if dropped != 0 {
				t.Fatalf("dropped = %d", dropped)
			}
			switch tt.wantDomain {
			case DomainSleep:
				if len(sleep) != 1 || len(heart) != 0 {
					t.Fatalf("sleep=%d heart=%d, want 1/0", len(sleep), len(heart))
				}
				if sleep[0].Stage != tt.wantStage {
					t.Errorf("stage = %s, want %s", sleep[0].Stage, tt.wantStage)
				}
				if sleep[0].Value != 90 || sleep[0].Date != "2024-01-01" {
					t.Errorf("obs = %+v", sleep[0])
				}
			case DomainHeartRate:
				if len(heart) != 1 || len(sleep) != 0 {
					t.Fatalf("sleep=%d heart=%d, want 0/1", len(sleep), len(heart))
				}
			}
		})
	}
}

func TestLoadHealthIgnoresUnknownLabels(t *testing.T) {
	sleep, heart, dropped := LoadHealth([]models.HealthSample{
		{Type: "Schritte", Value: 9000, Date: "2024-01-01"},
		{Type: "Gewicht", Value: 80, Date: "2024-01-01"},
	})
	if len(sleep) != 0 || len(heart) != 0 || dropped != 0 {
		t.Errorf("sleep=%d heart=%d dropped=%d, want all 0", len(sleep), len(heart), dropped)
	}
}

func TestLoadConsumptionDropsUnparsableDates(t *testing.T) {
	entries := []models.Entry{
		{Date: "2024-01-01", Time: "20:15", Substance: "Cannabis",
			Rating: sql.NullInt64{Int64: 4, Valid: true},
			Cost:   sql.NullFloat64{Float64: 10, Valid: true}},
		{Date: "not-a-date", Substance: "Alkohol"},
	}
	obs, dropped := LoadConsumption(entries)
	if dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
	if len(obs) != 1 {
		t.Fatalf("obs = %d, want 1", len(obs))
	}
	if obs[0].Rating != 4 || obs[0].Cost != 10 || obs[0].Timestamp.Hour() != 20 {
		t.Errorf("obs = %+v", obs[0])
	}
}

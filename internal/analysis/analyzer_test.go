package analysis

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/blackshadow44/Substanz/internal/models"
)

func TestAnalyzerNoData(t *testing.T) {
	_, err := NewAnalyzer().Run(nil, nil)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestAnalyzerConsumptionOnly(t *testing.T) {
	// Ten days of one entry each and nothing else: the report must cover the
	// days but hold no correlations, effects, or anomalies.
	var entries []models.Entry
	for i := 0; i < 10; i++ {
		entries = append(entries, models.Entry{
			Date: fmt.Sprintf("2024-01-%02d", i+1), Time: "21:00", Substance: "Cannabis",
		})
	}

	rep, err := NewAnalyzer().Run(entries, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.TotalDays != 10 || rep.DaysWithConsumption != 10 {
		t.Errorf("days = %d/%d, want 10/10", rep.TotalDays, rep.DaysWithConsumption)
	}
	if rep.DaysWithSleepData != 0 || rep.DaysWithHeartRate != 0 {
		t.Errorf("health days = %d/%d, want 0/0", rep.DaysWithSleepData, rep.DaysWithHeartRate)
	}
	if rep.UniqueSubstances != 1 {
		t.Errorf("UniqueSubstances = %d, want 1", rep.UniqueSubstances)
	}
	if len(rep.Correlations) != 0 {
		t.Errorf("correlations = %+v, want none", rep.Correlations)
	}
	if len(rep.SubstanceEffects) != 0 {
		t.Errorf("effects = %+v, want none", rep.SubstanceEffects)
	}
	if rep.AnomalyDays != 0 || rep.AnomalyPercentage != 0 {
		t.Errorf("anomalies = %d (%.1f%%), want none", rep.AnomalyDays, rep.AnomalyPercentage)
	}
	if len(rep.Recommendations) == 0 || len(rep.PersonalInsights) == 0 || len(rep.Patterns) == 0 {
		t.Error("narrative sections must never be empty")
	}
}

func TestAnalyzerFullRun(t *testing.T) {
	var entries []models.Entry
	var samples []models.HealthSample
	for i := 0; i < 7; i++ {
		date := fmt.Sprintf("2024-02-%02d", i+1)
		samples = append(samples,
			models.HealthSample{Type: "Schlaf", Value: float64(330 + i*15), Date: date},
			models.HealthSample{Type: "Herzfrequenz", Value: float64(74 - i*2), Date: date, Time: "08:00"},
		)
		if i%2 == 0 {
			entries = append(entries, models.Entry{Date: date, Time: "20:00", Substance: "Alkohol"})
		}
	}

	rep, err := NewAnalyzer().Run(entries, samples)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.TotalDays != 7 || rep.DaysWithSleepData != 7 || rep.DaysWithHeartRate != 7 {
		t.Fatalf("days = %d/%d/%d", rep.TotalDays, rep.DaysWithSleepData, rep.DaysWithHeartRate)
	}
	if rep.DaysWithConsumption != 4 {
		t.Errorf("consumption days = %d, want 4", rep.DaysWithConsumption)
	}
	if len(rep.Correlations) == 0 {
		t.Error("expected at least one correlation from strictly linear series")
	}
	if len(rep.SubstanceEffects) == 0 {
		t.Error("expected substance effects with both partitions populated")
	}
}

func TestRenderTextSections(t *testing.T) {
	rep, err := NewAnalyzer().Run([]models.Entry{
		{Date: "2024-03-01", Time: "19:00", Substance: "Kaffee"},
	}, []models.HealthSample{
		{Type: "Schlaf", Value: 400, Date: "2024-03-01"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	text := rep.RenderText()
	for _, section := range []string{
		"KI-THERAPEUT ANALYSEBERICHT",
		"DATENÜBERSICHT",
		"KORRELATIONSANALYSE",
		"SUBSTANZ-EFFEKTE",
		"MUSTERERKENNUNG",
		"EMPFEHLUNGEN",
		"PERSÖNLICHE EINSCHÄTZUNG",
		"NÄCHSTE SCHRITTE",
		"ENDE DES BERICHTS",
	} {
		if !strings.Contains(text, section) {
			t.Errorf("rendered report missing section %q", section)
		}
	}
	if strings.Contains(text, "WARNUNGEN") {
		t.Error("warning section rendered without any warnings")
	}
}

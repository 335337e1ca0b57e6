package analysis

import (
	"fmt"
	"strings"
	"time"
)

// AnalysisReport is the full outcome of one analysis run.
type AnalysisReport struct {
	GeneratedAt time.Time `json:"generated_at"`

	TotalDays           int `json:"total_days"`
	DaysWithSleepData   int `json:"days_with_sleep_data"`
	DaysWithHeartRate   int `json:"days_with_heart_rate"`
	DaysWithConsumption int `json:"days_with_consumption"`
	UniqueSubstances    int `json:"unique_substances"`

	Correlations     []CorrelationResult `json:"correlations"`
	SubstanceEffects []SubstanceEffect   `json:"substance_effects"`

	AnomalyDays        int     `json:"anomaly_days"`
	AnomalyPercentage  float64 `json:"anomaly_percentage"`
	ClustersIdentified int     `json:"clusters_identified"`

	Patterns         []string `json:"patterns"`
	Recommendations  []string `json:"recommendations"`
	PersonalInsights []string `json:"personal_insights"`
	RiskWarnings     []string `json:"risk_warnings"`
}

const (
	reportMaxCorrelations = 5
	reportMaxEffects      = 3
)

// RenderText formats the report as the plain-text Analysebericht handed to the
// user, section by section.
func (rep *AnalysisReport) RenderText() string {
	var b strings.Builder

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("=====================================")
	line("    KI-THERAPEUT ANALYSEBERICHT")
	line("=====================================")
	line("Erstellt am: %s", rep.GeneratedAt.Format("02.01.2006 15:04"))
	line("")

	line("DATENÜBERSICHT")
	line("-------------------------------------")
	line("Analysierte Tage: %d", rep.TotalDays)
	line("Tage mit Schlafdaten: %d", rep.DaysWithSleepData)
	line("Tage mit Herzfrequenzdaten: %d", rep.DaysWithHeartRate)
	line("Tage mit Konsumeinträgen: %d", rep.DaysWithConsumption)
	line("Verschiedene Substanzen: %d", rep.UniqueSubstances)
	line("")

	line("KORRELATIONSANALYSE")
	line("-------------------------------------")
	if len(rep.Correlations) == 0 {
		line("Keine signifikanten Korrelationen gefunden.")
	}
	for i, c := range rep.Correlations {
		if i >= reportMaxCorrelations {
			break
		}
		line("%s × %s: r=%.2f (n=%d)", c.MetricA, c.MetricB, c.Coefficient, c.SampleSize)
		line("  → %s", c.Interpretation)
	}
	line("")

	line("SUBSTANZ-EFFEKTE")
	line("-------------------------------------")
	if len(rep.SubstanceEffects) == 0 {
		line("Keine Substanz-Effekte ermittelt.")
	}
	for i, e := range rep.SubstanceEffects {
		if i >= reportMaxEffects {
			break
		}
		line("%s auf %s: %+.1f%% (mit: %.1f, ohne: %.1f)",
			e.Substance, e.Metric, e.DifferencePercent, e.WithSubstance, e.WithoutSubstance)
		line("  → %s", e.Interpretation)
	}
	line("")

	line("MUSTERERKENNUNG")
	line("-------------------------------------")
	line("Auffällige Tage: %d (%.1f%%)", rep.AnomalyDays, rep.AnomalyPercentage)
	line("Identifizierte Verhaltenscluster: %d", rep.ClustersIdentified)
	for _, p := range rep.Patterns {
		line("- %s", p)
	}
	line("")

	line("EMPFEHLUNGEN")
	line("-------------------------------------")
	for _, r := range rep.Recommendations {
		line("- %s", r)
	}
	line("")

	line("PERSÖNLICHE EINSCHÄTZUNG")
	line("-------------------------------------")
	for _, ins := range rep.PersonalInsights {
		line("%s", ins)
	}
	line("")

	if len(rep.RiskWarnings) > 0 {
		line("WARNUNGEN")
		line("-------------------------------------")
		for _, w := range rep.RiskWarnings {
			line("! %s", w)
		}
		line("")
	}

	line("NÄCHSTE SCHRITTE")
	line("-------------------------------------")
	line("1. Führe das Tagebuch weiter, um die Datenbasis zu verbessern")
	line("2. Importiere regelmäßig Gesundheitsdaten (Schlaf, Herzfrequenz)")
	line("3. Prüfe die Empfehlungen und setze eine davon konkret um")
	line("4. Besprich auffällige Muster bei Bedarf mit einer Fachperson")
	line("")
	line("=====================================")
	line("        ENDE DES BERICHTS")
	line("=====================================")

	return b.String()
}

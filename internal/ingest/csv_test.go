package ingest

import (
	"testing"
)

func TestParseHealthCSVCommaDelimited(t *testing.T) {
	text := "Date,Heart Rate\n2024-01-01,62\n2024-01-02,65\n"

	samples, dropped := ParseHealthCSV(text, "watch.csv")
	if dropped != 0 {
		t.Fatalf("dropped = %d", dropped)
	}
	if len(samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(samples))
	}
	s := samples[0]
	if s.Type != "Herzfrequenz" || s.Value != 62 || s.Date != "2024-01-01" || s.Source != "watch.csv" {
		t.Errorf("sample = %+v", s)
	}
}

func TestParseHealthCSVSemicolonGermanNumbers(t *testing.T) {
	text := "Datum;Zeit;Tiefschlaf\n01.01.2024;07:30;92,5\n"

	samples, dropped := ParseHealthCSV(text, "")
	if dropped != 0 || len(samples) != 1 {
		t.Fatalf("samples=%d dropped=%d", len(samples), dropped)
	}
	s := samples[0]
	if s.Type != "Tiefschlaf" {
		t.Errorf("type = %q", s.Type)
	}
	if s.Value != 92.5 {
		t.Errorf("value = %v, want 92.5", s.Value)
	}
	if s.Date != "2024-01-01" || s.Time != "07:30" {
		t.Errorf("date/time = %s %s", s.Date, s.Time)
	}
	if s.Source != "imported" {
		t.Errorf("source = %q", s.Source)
	}
}

func TestParseHealthCSVHeaderClassification(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Pulse", "Herzfrequenz"},
		{"Deep Sleep", "Tiefschlaf"},
		{"Leichtschlaf (min)", "Leichtschlaf"},
		{"REM", "REM-Schlaf"},
		{"Wachzeit", "Wachzeit"},
		{"Sleep Duration", "Schlaf"},
		{"Steps", "Schritte"},
		{"Blutdruck", "Blutdruck"}, // unknown headers pass through untouched
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			text := "Date," + tt.header + "\n2024-01-01,42\n"
			samples, _ := ParseHealthCSV(text, "")
			if len(samples) != 1 {
				t.Fatalf("samples = %d", len(samples))
			}
			if samples[0].Type != tt.want {
				t.Errorf("type = %q, want %q", samples[0].Type, tt.want)
			}
		})
	}
}

func TestParseHealthCSVCombinedDateTime(t *testing.T) {
	text := "recorded,hr\n2024-01-02 08:30,71\n"

	samples, dropped := ParseHealthCSV(text, "")
	if dropped != 0 || len(samples) != 1 {
		t.Fatalf("samples=%d dropped=%d", len(samples), dropped)
	}
	if samples[0].Date != "2024-01-02" || samples[0].Time != "08:30" {
		t.Errorf("date/time = %s %s", samples[0].Date, samples[0].Time)
	}
}

func TestParseHealthCSVDropsRowsWithoutNumbers(t *testing.T) {
	text := "Date,Heart Rate\n2024-01-01,n/a\n2024-01-02,64\n"

	samples, dropped := ParseHealthCSV(text, "")
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(samples) != 1 || samples[0].Value != 64 {
		t.Errorf("samples = %+v", samples)
	}
}

func TestParseHealthCSVUnitSuffix(t *testing.T) {
	text := "Date,Heart Rate\n2024-01-01,62 bpm\n"

	samples, _ := ParseHealthCSV(text, "")
	if len(samples) != 1 || samples[0].Value != 62 {
		t.Fatalf("samples = %+v", samples)
	}
}

func TestParseHealthCSVEmptyInput(t *testing.T) {
	samples, dropped := ParseHealthCSV("", "")
	if len(samples) != 0 || dropped != 0 {
		t.Errorf("samples=%d dropped=%d, want 0/0", len(samples), dropped)
	}
}

package ingest

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/blackshadow44/Substanz/internal/metrics"
	"github.com/blackshadow44/Substanz/internal/models"
)

// Health exports come from many apps with no common schema, so the importer
// sniffs the delimiter and locates date/time/value columns by header keyword.
// A row that cannot be interpreted is skipped, never fatal for the batch.

var dateHeaderWords = []string{"date", "datum", "tag", "day"}
var timeHeaderWords = []string{"time", "zeit", "timestamp", "uhrzeit"}

var timeFormats = []string{"15:04:05", "15:04", "15.04.05", "15.04"}

var dateFormats = []string{
	"2006-01-02", "02.01.2006", "2006/01/02", "01/02/2006",
	"02-01-2006", "2006.01.02", "02.01.06", "06-01-02",
}

// typeRules map a value column's header onto the canonical sample type.
// Evaluated top to bottom; first match wins.
var typeRules = []struct {
	keywords []string
	label    string
}{
	{[]string{"heart", "herz", "hr", "pulse", "puls"}, "Herzfrequenz"},
	{[]string{"deep", "tief"}, "Tiefschlaf"},
	{[]string{"shallow", "leicht"}, "Leichtschlaf"},
	{[]string{"rem"}, "REM-Schlaf"},
	{[]string{"wake", "wach"}, "Wachzeit"},
	{[]string{"sleep", "schlaf", "ruhe"}, "Schlaf"},
	{[]string{"step", "schritt"}, "Schritte"},
}

// ParseHealthCSV converts raw CSV text into health samples. The filename is
// recorded as the sample source. Returns the parsed samples and the number of
// rows dropped.
func ParseHealthCSV(text, filename string) ([]models.HealthSample, int) {
	header, records := readRecords(text)
	if len(header) == 0 {
		return nil, 0
	}

	source := filename
	if source == "" {
		source = "imported"
	}

	var samples []models.HealthSample
	dropped := 0

	for _, record := range records {
		sample, ok := parseRow(header, record, source)
		if !ok {
			dropped++
			metrics.RecordsDropped.WithLabelValues("csv_import").Inc()
			continue
		}
		samples = append(samples, sample)
	}

	return samples, dropped
}

// readRecords sniffs the delimiter by trying each candidate and keeping the
// first that yields more than one column (falling back to comma).
func readRecords(text string) ([]string, [][]string) {
	for _, delim := range []rune{',', ';', '\t'} {
		header, records, ok := tryDelimiter(text, delim)
		if ok && len(header) > 1 {
			return header, records
		}
	}
	header, records, _ := tryDelimiter(text, ',')
	return header, records
}

func tryDelimiter(text string, delim rune) ([]string, [][]string, bool) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	all, err := r.ReadAll()
	if err != nil || len(all) < 1 {
		return nil, nil, false
	}
	return all[0], all[1:], true
}

func parseRow(header []string, record []string, source string) (models.HealthSample, bool) {
	dateStr := ""
	timeStr := "00:00"

	for i, name := range header {
		if i >= len(record) {
			break
		}
		value := strings.TrimSpace(record[i])
		if value == "" || name == "" {
			continue
		}
		lower := strings.ToLower(name)

		switch {
		case containsAny(lower, dateHeaderWords):
			dateStr = value
		case containsAny(lower, timeHeaderWords):
			if t, ok := parseTimeOfDay(value); ok {
				timeStr = t
			}
		default:
			// A combined "2024-01-02 08:30" cell in an unnamed column.
			if d, t, ok := splitDateTime(value); ok {
				dateStr = d
				if t != "" {
					timeStr = t
				}
			}
		}
	}

	if dateStr == "" {
		dateStr = time.Now().Format("2006-01-02")
	}
	date, ok := parseDate(dateStr)
	if !ok {
		date = time.Now()
	}

	// Pick the first non-date column with a usable numeric value.
	for i, name := range header {
		if i >= len(record) {
			break
		}
		lower := strings.ToLower(name)
		if containsAny(lower, dateHeaderWords) || containsAny(lower, timeHeaderWords) {
			continue
		}
		value, ok := parseNumeric(record[i])
		if !ok {
			continue
		}

		return models.HealthSample{
			Type:   classifyHeader(lower, name),
			Value:  value,
			Date:   date.Format("2006-01-02"),
			Time:   timeStr,
			Source: source,
		}, true
	}

	return models.HealthSample{}, false
}

func classifyHeader(lower, original string) string {
	for _, rule := range typeRules {
		if containsAny(lower, rule.keywords) {
			return rule.label
		}
	}
	return original
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func parseTimeOfDay(value string) (string, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}

func parseDate(value string) (time.Time, bool) {
	for _, format := range dateFormats {
		if d, err := time.Parse(format, value); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// splitDateTime handles cells like "2024-01-02 08:30" that carry both parts.
func splitDateTime(value string) (string, string, bool) {
	if !strings.Contains(value, " ") || !strings.ContainsAny(value, "-./") {
		return "", "", false
	}
	parts := strings.SplitN(value, " ", 2)
	if len(parts) < 2 {
		return "", "", false
	}
	if _, ok := parseDate(parts[0]); !ok {
		return "", "", false
	}
	t, _ := parseTimeOfDay(strings.TrimSpace(parts[1]))
	return parts[0], t, true
}

// parseNumeric extracts a float from messy cell content: comma decimals are
// normalized and any unit suffix is stripped.
func parseNumeric(value string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(value, ",", "."))
	var b strings.Builder
	for _, c := range cleaned {
		if c >= '0' && c <= '9' || c == '.' || c == '-' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

package models

import (
	"database/sql"
	"time"
)

// Entry is one diary entry: a single consumption event with metadata.
// Date is "YYYY-MM-DD" and Time is "HH:MM"; both are kept as entered so the
// analysis loaders own the parsing (and the dropping of unparsable records).
type Entry struct {
	ID         int64
	Date       string
	Time       string
	Substance  string
	Dosage     string
	Rating     sql.NullInt64 // 1-5
	Cost       sql.NullFloat64
	Mood       string
	Setting    string
	Experience string
	CreatedAt  time.Time
}

// HealthSample is one imported or manually entered health data point. Type is
// a free-text label ("Herzfrequenz", "Tiefschlaf", "Deep Sleep Minutes", ...)
// that the analysis loaders classify by keyword.
// The capitalized "Type" JSON key is the established wire and export format
// for health samples; all other keys are lowercase.
type HealthSample struct {
	ID        int64     `json:"id"`
	Type      string    `json:"Type"`
	Value     float64   `json:"value"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Goal is a user-defined consumption goal, e.g. "Tage Pause" for a substance.
type Goal struct {
	ID          int64     `json:"id"`
	Substance   string    `json:"substance"`
	Type        string    `json:"type"`
	Value       float64   `json:"value"`
	Unit        string    `json:"unit,omitempty"`
	Description string    `json:"description,omitempty"`
	StartDate   string    `json:"start_date"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// JournalEntry is a free-text reflection note, independent of diary entries.
type JournalEntry struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	Text      string    `json:"text"`
	Mood      string    `json:"mood,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Statistics is the aggregate overview shown on the dashboard.
type Statistics struct {
	TotalEntries    int            `json:"total_entries"`
	MostUsed        string         `json:"most_used"`
	MostUsedCount   int            `json:"most_used_count"`
	AvgRating       float64        `json:"avg_rating"`
	TotalCost       float64        `json:"total_cost"`
	Last7Days       int            `json:"last_7_days"`
	Last30Days      int            `json:"last_30_days"`
	Warning         string         `json:"warning"` // "low", "medium", "high"
	SubstanceCounts map[string]int `json:"substance_counts"`
}

package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/blackshadow44/Substanz/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ValidateEntry checks a diary entry before it is persisted. A slice of
// human-readable problems is returned; empty means valid.
func ValidateEntry(e models.Entry) []string {
	var errs []string

	if strings.TrimSpace(e.Substance) == "" {
		errs = append(errs, "Substanz ist erforderlich")
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		errs = append(errs, "Ungültiges Datumsformat (YYYY-MM-DD erforderlich)")
	}
	if e.Cost.Valid && e.Cost.Float64 < 0 {
		errs = append(errs, "Kosten dürfen nicht negativ sein")
	}
	if e.Rating.Valid && (e.Rating.Int64 < 1 || e.Rating.Int64 > 5) {
		errs = append(errs, "Bewertung muss zwischen 1 und 5 liegen")
	}

	return errs
}

func (s *Store) InsertEntry(e models.Entry) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO entries (date, time, substance, dosage, rating, cost, mood, setting, experience)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Date, e.Time, e.Substance, e.Dosage, e.Rating, e.Cost, e.Mood, e.Setting, e.Experience)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) UpdateEntry(e models.Entry) error {
	_, err := s.db.Exec(`
		UPDATE entries
		SET date = ?, time = ?, substance = ?, dosage = ?, rating = ?, cost = ?, mood = ?, setting = ?, experience = ?
		WHERE id = ?
	`, e.Date, e.Time, e.Substance, e.Dosage, e.Rating, e.Cost, e.Mood, e.Setting, e.Experience, e.ID)
	return err
}

func (s *Store) DeleteEntry(id int64) error {
	_, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id)
	return err
}

func (s *Store) GetEntry(id int64) (*models.Entry, error) {
	row := s.db.QueryRow(`
		SELECT id, date, time, substance, dosage, rating, cost, mood, setting, experience, created_at
		FROM entries WHERE id = ?
	`, id)

	var e models.Entry
	err := row.Scan(&e.ID, &e.Date, &e.Time, &e.Substance, &e.Dosage, &e.Rating, &e.Cost, &e.Mood, &e.Setting, &e.Experience, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListEntries() ([]models.Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, date, time, substance, dosage, rating, cost, mood, setting, experience, created_at
		FROM entries
		ORDER BY date DESC, time DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.ID, &e.Date, &e.Time, &e.Substance, &e.Dosage, &e.Rating, &e.Cost, &e.Mood, &e.Setting, &e.Experience, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) InsertHealthSample(h models.HealthSample) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO health_samples (type, value, date, time, source)
		VALUES (?, ?, ?, ?, ?)
	`, h.Type, h.Value, h.Date, h.Time, h.Source)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) DeleteHealthSample(id int64) error {
	_, err := s.db.Exec(`DELETE FROM health_samples WHERE id = ?`, id)
	return err
}

func (s *Store) ListHealthSamples() ([]models.HealthSample, error) {
	rows, err := s.db.Query(`
		SELECT id, type, value, date, time, source, created_at
		FROM health_samples
		ORDER BY date ASC, time ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.HealthSample
	for rows.Next() {
		var h models.HealthSample
		if err := rows.Scan(&h.ID, &h.Type, &h.Value, &h.Date, &h.Time, &h.Source, &h.CreatedAt); err != nil {
			return nil, err
		}
		samples = append(samples, h)
	}
	return samples, rows.Err()
}

func (s *Store) DeleteAllHealthSamples() error {
	_, err := s.db.Exec(`DELETE FROM health_samples`)
	return err
}

// ImportHealthSamples stores parsed CSV rows. Mode "replace" drops existing
// samples first, "merge" skips rows whose date|time|type|value key already
// exists, anything else appends. Returns the number of rows written.
func (s *Store) ImportHealthSamples(samples []models.HealthSample, mode string) (int, error) {
	switch mode {
	case "replace":
		if err := s.DeleteAllHealthSamples(); err != nil {
			return 0, fmt.Errorf("replace health samples: %w", err)
		}
	case "merge":
		existing, err := s.ListHealthSamples()
		if err != nil {
			return 0, fmt.Errorf("list health samples: %w", err)
		}
		seen := make(map[string]bool, len(existing))
		for _, h := range existing {
			seen[healthSampleKey(h)] = true
		}
		var fresh []models.HealthSample
		for _, h := range samples {
			if !seen[healthSampleKey(h)] {
				fresh = append(fresh, h)
			}
		}
		samples = fresh
	}

	written := 0
	for _, h := range samples {
		if _, err := s.InsertHealthSample(h); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func healthSampleKey(h models.HealthSample) string {
	return fmt.Sprintf("%s|%s|%s|%g", h.Date, h.Time, h.Type, h.Value)
}

func (s *Store) InsertGoal(g models.Goal) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO goals (substance, type, value, unit, description, start_date, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, g.Substance, g.Type, g.Value, g.Unit, g.Description, g.StartDate, g.Completed)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) SetGoalCompleted(id int64, completed bool) error {
	_, err := s.db.Exec(`UPDATE goals SET completed = ? WHERE id = ?`, completed, id)
	return err
}

func (s *Store) DeleteGoal(id int64) error {
	_, err := s.db.Exec(`DELETE FROM goals WHERE id = ?`, id)
	return err
}

func (s *Store) ListGoals() ([]models.Goal, error) {
	rows, err := s.db.Query(`
		SELECT id, substance, type, value, unit, description, start_date, completed, created_at
		FROM goals
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var g models.Goal
		if err := rows.Scan(&g.ID, &g.Substance, &g.Type, &g.Value, &g.Unit, &g.Description, &g.StartDate, &g.Completed, &g.CreatedAt); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *Store) InsertJournalEntry(j models.JournalEntry) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO journal_entries (date, text, mood)
		VALUES (?, ?, ?)
	`, j.Date, j.Text, j.Mood)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) ListJournalEntries() ([]models.JournalEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, date, text, mood, created_at
		FROM journal_entries
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var j models.JournalEntry
		if err := rows.Scan(&j.ID, &j.Date, &j.Text, &j.Mood, &j.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, j)
	}
	return entries, rows.Err()
}

// Statistics aggregates the dashboard overview. The warning level mirrors the
// diary's original rule: >=5 entries in 7 days is high, >=3 is medium.
func (s *Store) Statistics(now time.Time) (*models.Statistics, error) {
	entries, err := s.ListEntries()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	cutoff7 := now.AddDate(0, 0, -7)
	cutoff30 := now.AddDate(0, 0, -30)

	stats := &models.Statistics{
		TotalEntries:    len(entries),
		SubstanceCounts: make(map[string]int),
	}

	ratingSum, ratingCount := 0.0, 0
	for _, e := range entries {
		stats.SubstanceCounts[e.Substance]++

		if e.Rating.Valid {
			ratingSum += float64(e.Rating.Int64)
			ratingCount++
		}
		if e.Cost.Valid {
			stats.TotalCost += e.Cost.Float64
		}

		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			continue
		}
		if !d.Before(cutoff30) {
			stats.Last30Days++
			if !d.Before(cutoff7) {
				stats.Last7Days++
			}
		}
	}

	for substance, count := range stats.SubstanceCounts {
		if count > stats.MostUsedCount {
			stats.MostUsed = substance
			stats.MostUsedCount = count
		}
	}
	if ratingCount > 0 {
		stats.AvgRating = ratingSum / float64(ratingCount)
	}

	switch {
	case stats.Last7Days >= 5:
		stats.Warning = "high"
	case stats.Last7Days >= 3:
		stats.Warning = "medium"
	default:
		stats.Warning = "low"
	}

	return stats, nil
}

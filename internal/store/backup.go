package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/blackshadow44/Substanz/internal/models"
)

// snapshotVersion tags exported JSON files so older snapshots stay loadable.
const snapshotVersion = "4.0"

// keepBackups is how many rotated backup files survive pruning.
const keepBackups = 7

// Snapshot is the flat JSON export of everything the diary persists.
type Snapshot struct {
	Entries        []snapshotEntry        `json:"entries"`
	Goals          []snapshotGoal         `json:"goals"`
	HealthData     []snapshotHealthSample `json:"health_data"`
	JournalEntries []snapshotJournal      `json:"journal_entries"`
	LastSave       time.Time              `json:"last_save"`
	Version        string                 `json:"version"`
}

type snapshotEntry struct {
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Substance  string   `json:"substance"`
	Dosage     string   `json:"dosage,omitempty"`
	Rating     *int64   `json:"rating,omitempty"`
	Cost       *float64 `json:"cost,omitempty"`
	Mood       string   `json:"mood,omitempty"`
	Setting    string   `json:"setting,omitempty"`
	Experience string   `json:"experience,omitempty"`
}

type snapshotHealthSample struct {
	Type   string  `json:"Type"`
	Value  float64 `json:"value"`
	Date   string  `json:"date"`
	Time   string  `json:"time"`
	Source string  `json:"source,omitempty"`
}

type snapshotGoal struct {
	Substance   string  `json:"substance"`
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit,omitempty"`
	Description string  `json:"description,omitempty"`
	StartDate   string  `json:"start_date"`
	Completed   bool    `json:"completed"`
}

type snapshotJournal struct {
	Date string `json:"date"`
	Text string `json:"text"`
	Mood string `json:"mood,omitempty"`
}

// Anonymize replaces substance names with stable placeholders, coarsens entry
// dates to year-month, and strips the free-text fields, for sharing an export
// with a therapist or researcher.
func (snap *Snapshot) Anonymize() {
	names := make(map[string]string)
	alias := func(substance string) string {
		if a, ok := names[substance]; ok {
			return a
		}
		a := fmt.Sprintf("Substanz-%d", len(names)+1)
		names[substance] = a
		return a
	}

	for i := range snap.Entries {
		e := &snap.Entries[i]
		e.Substance = alias(e.Substance)
		if len(e.Date) >= 7 {
			e.Date = e.Date[:7]
		}
		e.Time = ""
		e.Mood = ""
		e.Experience = ""
		e.Setting = ""
	}
	for i := range snap.Goals {
		snap.Goals[i].Substance = alias(snap.Goals[i].Substance)
		snap.Goals[i].Description = ""
	}
	for i := range snap.JournalEntries {
		snap.JournalEntries[i].Text = ""
	}
}

// BuildSnapshot reads the full store contents into an exportable snapshot.
func (s *Store) BuildSnapshot(now time.Time) (*Snapshot, error) {
	entries, err := s.ListEntries()
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	goals, err := s.ListGoals()
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	samples, err := s.ListHealthSamples()
	if err != nil {
		return nil, fmt.Errorf("list health samples: %w", err)
	}
	journal, err := s.ListJournalEntries()
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}

	snap := &Snapshot{
		Entries:        make([]snapshotEntry, 0, len(entries)),
		Goals:          make([]snapshotGoal, 0, len(goals)),
		HealthData:     make([]snapshotHealthSample, 0, len(samples)),
		JournalEntries: make([]snapshotJournal, 0, len(journal)),
		LastSave:       now,
		Version:        snapshotVersion,
	}

	for _, e := range entries {
		se := snapshotEntry{
			Date:       e.Date,
			Time:       e.Time,
			Substance:  e.Substance,
			Dosage:     e.Dosage,
			Mood:       e.Mood,
			Setting:    e.Setting,
			Experience: e.Experience,
		}
		if e.Rating.Valid {
			r := e.Rating.Int64
			se.Rating = &r
		}
		if e.Cost.Valid {
			c := e.Cost.Float64
			se.Cost = &c
		}
		snap.Entries = append(snap.Entries, se)
	}
	for _, g := range goals {
		snap.Goals = append(snap.Goals, snapshotGoal{
			Substance:   g.Substance,
			Type:        g.Type,
			Value:       g.Value,
			Unit:        g.Unit,
			Description: g.Description,
			StartDate:   g.StartDate,
			Completed:   g.Completed,
		})
	}
	for _, h := range samples {
		snap.HealthData = append(snap.HealthData, snapshotHealthSample{
			Type:   h.Type,
			Value:  h.Value,
			Date:   h.Date,
			Time:   h.Time,
			Source: h.Source,
		})
	}
	for _, j := range journal {
		snap.JournalEntries = append(snap.JournalEntries, snapshotJournal{
			Date: j.Date,
			Text: j.Text,
			Mood: j.Mood,
		})
	}

	return snap, nil
}

// SaveSnapshot writes main_data.json into dataDir.
func (s *Store) SaveSnapshot(dataDir string, now time.Time) error {
	snap, err := s.BuildSnapshot(now)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return writeJSON(filepath.Join(dataDir, "main_data.json"), snap)
}

// Backup writes a timestamped copy into backupDir and prunes old files so at
// most keepBackups remain.
func (s *Store) Backup(backupDir string, now time.Time) error {
	snap, err := s.BuildSnapshot(now)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("backup_%s.json", now.Format("20060102_150405"))
	if err := writeJSON(filepath.Join(backupDir, name), snap); err != nil {
		return err
	}

	return pruneBackups(backupDir)
}

func pruneBackups(backupDir string) error {
	matches, err := filepath.Glob(filepath.Join(backupDir, "backup_*.json"))
	if err != nil {
		return err
	}
	if len(matches) <= keepBackups {
		return nil
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-keepBackups] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("prune backup %s: %w", old, err)
		}
	}
	return nil
}

// RestoreSnapshot loads a snapshot file and replaces the store contents.
func (s *Store) RestoreSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	for _, stmt := range []string{
		`DELETE FROM entries`, `DELETE FROM goals`,
		`DELETE FROM health_samples`, `DELETE FROM journal_entries`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	for _, se := range snap.Entries {
		e := models.Entry{
			Date:       se.Date,
			Time:       se.Time,
			Substance:  se.Substance,
			Dosage:     se.Dosage,
			Mood:       se.Mood,
			Setting:    se.Setting,
			Experience: se.Experience,
		}
		if se.Rating != nil {
			e.Rating.Int64, e.Rating.Valid = *se.Rating, true
		}
		if se.Cost != nil {
			e.Cost.Float64, e.Cost.Valid = *se.Cost, true
		}
		if _, err := s.InsertEntry(e); err != nil {
			return err
		}
	}
	for _, sg := range snap.Goals {
		g := models.Goal{
			Substance:   sg.Substance,
			Type:        sg.Type,
			Value:       sg.Value,
			Unit:        sg.Unit,
			Description: sg.Description,
			StartDate:   sg.StartDate,
			Completed:   sg.Completed,
		}
		if _, err := s.InsertGoal(g); err != nil {
			return err
		}
	}
	for _, sh := range snap.HealthData {
		h := models.HealthSample{
			Type:   sh.Type,
			Value:  sh.Value,
			Date:   sh.Date,
			Time:   sh.Time,
			Source: sh.Source,
		}
		if _, err := s.InsertHealthSample(h); err != nil {
			return err
		}
	}
	for _, sj := range snap.JournalEntries {
		j := models.JournalEntry{Date: sj.Date, Text: sj.Text, Mood: sj.Mood}
		if _, err := s.InsertJournalEntry(j); err != nil {
			return err
		}
	}

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}

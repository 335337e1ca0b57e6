package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/blackshadow44/Substanz/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := New(db)
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestMigrateIdempotent(t *testing.T) {
	s := testStore(t)
	if err := s.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    models.Entry
		wantErrs int
	}{
		{"valid", models.Entry{Substance: "Cannabis", Date: "2024-01-01"}, 0},
		{"missing substance", models.Entry{Date: "2024-01-01"}, 1},
		{"bad date", models.Entry{Substance: "Cannabis", Date: "01.01.2024"}, 1},
		{"negative cost", models.Entry{Substance: "Cannabis", Date: "2024-01-01",
			Cost: sql.NullFloat64{Float64: -5, Valid: true}}, 1},
		{"rating out of range", models.Entry{Substance: "Cannabis", Date: "2024-01-01",
			Rating: sql.NullInt64{Int64: 6, Valid: true}}, 1},
		{"everything wrong", models.Entry{Date: "bad",
			Cost:   sql.NullFloat64{Float64: -1, Valid: true},
			Rating: sql.NullInt64{Int64: 0, Valid: true}}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := ValidateEntry(tt.entry); len(errs) != tt.wantErrs {
				t.Errorf("ValidateEntry() = %v, want %d problems", errs, tt.wantErrs)
			}
		})
	}
}

func TestEntryCRUD(t *testing.T) {
	s := testStore(t)

	id, err := s.InsertEntry(models.Entry{
		Date: "2024-01-02", Time: "20:30", Substance: "Alkohol", Dosage: "2 Bier",
		Rating: sql.NullInt64{Int64: 3, Valid: true},
		Cost:   sql.NullFloat64{Float64: 7.5, Valid: true},
		Mood:   "entspannt",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	e, err := s.GetEntry(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil || e.Substance != "Alkohol" || e.Rating.Int64 != 3 || e.Cost.Float64 != 7.5 {
		t.Fatalf("got %+v", e)
	}

	e.Substance = "Wein"
	e.Rating = sql.NullInt64{}
	if err := s.UpdateEntry(*e); err != nil {
		t.Fatalf("update: %v", err)
	}
	e, err = s.GetEntry(id)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if e.Substance != "Wein" || e.Rating.Valid {
		t.Fatalf("after update: %+v", e)
	}

	if err := s.DeleteEntry(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	e, err = s.GetEntry(id)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if e != nil {
		t.Fatalf("entry survived delete: %+v", e)
	}
}

func TestListEntriesOrder(t *testing.T) {
	s := testStore(t)
	for _, e := range []models.Entry{
		{Date: "2024-01-01", Time: "10:00", Substance: "a"},
		{Date: "2024-01-03", Time: "10:00", Substance: "b"},
		{Date: "2024-01-02", Time: "10:00", Substance: "c"},
	} {
		if _, err := s.InsertEntry(e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	entries, err := s.ListEntries()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Date)
	}
	want := []string{"2024-01-03", "2024-01-02", "2024-01-01"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestImportHealthSamplesModes(t *testing.T) {
	s := testStore(t)

	base := []models.HealthSample{
		{Type: "Herzfrequenz", Value: 62, Date: "2024-01-01", Time: "08:00"},
		{Type: "Schlaf", Value: 420, Date: "2024-01-01", Time: "07:00"},
	}
	if n, err := s.ImportHealthSamples(base, "append"); err != nil || n != 2 {
		t.Fatalf("append: n=%d err=%v", n, err)
	}

	// Merge skips the duplicate, keeps the new value.
	merged := []models.HealthSample{
		{Type: "Herzfrequenz", Value: 62, Date: "2024-01-01", Time: "08:00"},
		{Type: "Herzfrequenz", Value: 70, Date: "2024-01-02", Time: "08:00"},
	}
	if n, err := s.ImportHealthSamples(merged, "merge"); err != nil || n != 1 {
		t.Fatalf("merge: n=%d err=%v", n, err)
	}

	samples, err := s.ListHealthSamples()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("after merge: %d samples, want 3", len(samples))
	}

	// Replace starts over.
	if n, err := s.ImportHealthSamples(base[:1], "replace"); err != nil || n != 1 {
		t.Fatalf("replace: n=%d err=%v", n, err)
	}
	samples, _ = s.ListHealthSamples()
	if len(samples) != 1 {
		t.Fatalf("after replace: %d samples, want 1", len(samples))
	}
}

func TestGoalsAndJournal(t *testing.T) {
	s := testStore(t)

	gid, err := s.InsertGoal(models.Goal{
		Substance: "Cannabis", Type: "pause", Value: 30, Unit: "Tage",
		StartDate: "2024-01-01",
	})
	if err != nil {
		t.Fatalf("insert goal: %v", err)
	}
	if err := s.SetGoalCompleted(gid, true); err != nil {
		t.Fatalf("complete goal: %v", err)
	}
	goals, err := s.ListGoals()
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 1 || !goals[0].Completed {
		t.Fatalf("goals = %+v", goals)
	}

	if _, err := s.InsertJournalEntry(models.JournalEntry{
		Date: "2024-01-05", Text: "ruhiger Tag", Mood: "gut",
	}); err != nil {
		t.Fatalf("insert journal: %v", err)
	}
	journal, err := s.ListJournalEntries()
	if err != nil {
		t.Fatalf("list journal: %v", err)
	}
	if len(journal) != 1 || journal[0].Text != "ruhiger Tag" {
		t.Fatalf("journal = %+v", journal)
	}
}

func TestStatisticsWarningLevels(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		recent  int
		warning string
	}{
		{"low", 2, "low"},
		{"medium", 3, "medium"},
		{"high", 5, "high"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testStore(t)
			for i := 0; i < tt.recent; i++ {
				if _, err := s.InsertEntry(models.Entry{
					Date: now.AddDate(0, 0, -i).Format("2006-01-02"), Substance: "Cannabis",
				}); err != nil {
					t.Fatalf("insert: %v", err)
				}
			}
			// An old entry outside both windows.
			if _, err := s.InsertEntry(models.Entry{Date: "2023-01-01", Substance: "Alkohol"}); err != nil {
				t.Fatalf("insert old: %v", err)
			}

			stats, err := s.Statistics(now)
			if err != nil {
				t.Fatalf("statistics: %v", err)
			}
			if stats.Warning != tt.warning {
				t.Errorf("warning = %q, want %q", stats.Warning, tt.warning)
			}
			if stats.Last7Days != tt.recent {
				t.Errorf("Last7Days = %d, want %d", stats.Last7Days, tt.recent)
			}
			if stats.TotalEntries != tt.recent+1 {
				t.Errorf("TotalEntries = %d, want %d", stats.TotalEntries, tt.recent+1)
			}
			if stats.MostUsed != "Cannabis" && tt.recent >= 2 {
				t.Errorf("MostUsed = %q", stats.MostUsed)
			}
		})
	}
}

func TestStatisticsEmpty(t *testing.T) {
	s := testStore(t)
	stats, err := s.Statistics(time.Now())
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats != nil {
		t.Fatalf("stats = %+v, want nil", stats)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testStore(t)
	dir := t.TempDir()

	if _, err := s.InsertEntry(models.Entry{
		Date: "2024-01-01", Time: "20:00", Substance: "Cannabis",
		Rating: sql.NullInt64{Int64: 4, Valid: true},
	}); err != nil {
		t.Fatalf("insert entry: %v", err)
	}
	if _, err := s.InsertHealthSample(models.HealthSample{
		Type: "Herzfrequenz", Value: 64, Date: "2024-01-01", Time: "08:00",
	}); err != nil {
		t.Fatalf("insert sample: %v", err)
	}

	if err := s.SaveSnapshot(dir, time.Now()); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	path := filepath.Join(dir, "main_data.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file: %v", err)
	}

	// Wipe and restore.
	if err := s.DeleteAllHealthSamples(); err != nil {
		t.Fatalf("wipe samples: %v", err)
	}
	if err := s.RestoreSnapshot(path); err != nil {
		t.Fatalf("restore: %v", err)
	}

	entries, _ := s.ListEntries()
	samples, _ := s.ListHealthSamples()
	if len(entries) != 1 || len(samples) != 1 {
		t.Fatalf("after restore: %d entries, %d samples", len(entries), len(samples))
	}
	if !entries[0].Rating.Valid || entries[0].Rating.Int64 != 4 {
		t.Errorf("restored rating = %+v", entries[0].Rating)
	}
}

func TestSnapshotAnonymize(t *testing.T) {
	s := testStore(t)
	for _, e := range []models.Entry{
		{Date: "2024-01-15", Time: "20:00", Substance: "Cannabis", Experience: "privat", Mood: "gut"},
		{Date: "2024-02-01", Substance: "Alkohol"},
		{Date: "2024-02-02", Substance: "Cannabis"},
	} {
		if _, err := s.InsertEntry(e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	snap, err := s.BuildSnapshot(time.Now())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	snap.Anonymize()

	aliases := make(map[string]bool)
	for _, se := range snap.Entries {
		if len(se.Date) != 7 {
			t.Errorf("date not coarsened: %q", se.Date)
		}
		if se.Experience != "" || se.Mood != "" || se.Time != "" {
			t.Errorf("free text survived: %+v", se)
		}
		if se.Substance == "Cannabis" || se.Substance == "Alkohol" {
			t.Errorf("substance name survived: %q", se.Substance)
		}
		aliases[se.Substance] = true
	}
	// Two distinct substances keep two distinct stable aliases.
	if len(aliases) != 2 {
		t.Errorf("aliases = %v, want 2 distinct", aliases)
	}
}

func TestBackupPruning(t *testing.T) {
	s := testStore(t)
	dir := t.TempDir()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < keepBackups+3; i++ {
		if err := s.Backup(dir, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("backup %d: %v", i, err)
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "backup_*.json"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != keepBackups {
		t.Fatalf("kept %d backups, want %d", len(matches), keepBackups)
	}

	// The survivors must be the newest ones.
	oldest := filepath.Join(dir, "backup_"+base.Format("20060102_150405")+".json")
	for _, m := range matches {
		if m == oldest {
			t.Errorf("oldest backup %s survived pruning", oldest)
		}
	}
}

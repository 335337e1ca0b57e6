package api

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blackshadow44/Substanz/internal/ingest"
	"github.com/blackshadow44/Substanz/internal/metrics"
	"github.com/blackshadow44/Substanz/internal/models"
	"github.com/blackshadow44/Substanz/internal/store"
)

// entryPayload is the JSON shape for diary entries; optional numbers use
// pointers so absent and zero stay distinguishable.
type entryPayload struct {
	ID         int64    `json:"id,omitempty"`
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

func (p entryPayload) toModel() models.Entry {
	e := models.Entry{
		ID:         p.ID,
		Date:       p.Date,
		Time:       p.Time,
		Substance:  p.Substance,
		Dosage:     p.Dosage,
		Mood:       p.Mood,
		Setting:    p.Setting,
		Experience: p.Experience,
	}
	if e.Time == "" {
		e.Time = "00:00"
	}
	if p.Rating != nil {
		e.Rating = sql.NullInt64{Int64: *p.Rating, Valid: true}
	}
	if p.Cost != nil {
		e.Cost = sql.NullFloat64{Float64: *p.Cost, Valid: true}
	}
	return e
}

func toPayload(e models.Entry) entryPayload {
	p := entryPayload{
		ID:         e.ID,
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
		p.Rating = &r
	}
	if e.Cost.Valid {
		c := e.Cost.Float64
		p.Cost = &c
	}
	return p
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := s.store.ListEntries()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		payloads := make([]entryPayload, 0, len(entries))
		for _, e := range entries {
			payloads = append(payloads, toPayload(e))
		}
		writeJSON(w, http.StatusOK, payloads)

	case http.MethodPost:
		var p entryPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		e := p.toModel()
		if problems := store.ValidateEntry(e); len(problems) > 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": problems})
			return
		}
		id, err := s.store.InsertEntry(e)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.EntriesCreated.Inc()
		s.chartCache.Invalidate()
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func pathID(path, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(path, prefix), 10, 64)
	return id, err == nil
}

func (s *Server) handleEntryByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r.URL.Path, "/api/entries/")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		e, err := s.store.GetEntry(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if e == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toPayload(*e))

	case http.MethodPut:
		var p entryPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		p.ID = id
		e := p.toModel()
		if problems := store.ValidateEntry(e); len(problems) > 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": problems})
			return
		}
		if err := s.store.UpdateEntry(e); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.chartCache.Invalidate()
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := s.store.DeleteEntry(id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.chartCache.Invalidate()
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleHealthSamples(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		samples, err := s.store.ListHealthSamples()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, samples)

	case http.MethodPost:
		var h models.HealthSample
		if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if h.Type == "" || h.Date == "" {
			http.Error(w, "type and date are required", http.StatusBadRequest)
			return
		}
		if h.Time == "" {
			h.Time = "00:00"
		}
		if h.Source == "" {
			h.Source = "manual"
		}
		id, err := s.store.InsertHealthSample(h)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.chartCache.Invalidate()
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})

	case http.MethodDelete:
		if err := s.store.DeleteAllHealthSamples(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.chartCache.Invalidate()
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleHealthImport takes raw CSV in the body. The mode query parameter is
// "replace", "merge", or "append" (the default); filename names the source.
func (s *Server) handleHealthImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	filename := r.URL.Query().Get("filename")
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "append"
	}

	samples, droppedRows := ingest.ParseHealthCSV(string(body), filename)
	written, err := s.store.ImportHealthSamples(samples, mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.HealthRowsImported.WithLabelValues(filename).Add(float64(written))
	s.chartCache.Invalidate()

	writeJSON(w, http.StatusOK, map[string]int{
		"imported": written,
		"parsed":   len(samples),
		"dropped":  droppedRows,
	})
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		goals, err := s.store.ListGoals()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, goals)

	case http.MethodPost:
		var g models.Goal
		if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if g.Substance == "" || g.Type == "" {
			http.Error(w, "substance and type are required", http.StatusBadRequest)
			return
		}
		if g.StartDate == "" {
			g.StartDate = time.Now().Format("2006-01-02")
		}
		id, err := s.store.InsertGoal(g)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGoalByID(w http.ResponseWriter, r *http.Request) {
	// /api/goals/{id} and /api/goals/{id}/complete
	rest := strings.TrimPrefix(r.URL.Path, "/api/goals/")
	complete := strings.HasSuffix(rest, "/complete")
	rest = strings.TrimSuffix(rest, "/complete")

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	switch {
	case complete && r.Method == http.MethodPost:
		if err := s.store.SetGoalCompleted(id, true); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case !complete && r.Method == http.MethodDelete:
		if err := s.store.DeleteGoal(id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := s.store.ListJournalEntries()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)

	case http.MethodPost:
		var j models.JournalEntry
		if err := json.NewDecoder(r.Body).Decode(&j); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if j.Text == "" {
			http.Error(w, "text is required", http.StatusBadRequest)
			return
		}
		if j.Date == "" {
			j.Date = time.Now().Format("2006-01-02")
		}
		id, err := s.store.InsertJournalEntry(j)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

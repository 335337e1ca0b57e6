package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/blackshadow44/Substanz/internal/advisor"
	"github.com/blackshadow44/Substanz/internal/analysis"
	"github.com/blackshadow44/Substanz/internal/chart"
	"github.com/blackshadow44/Substanz/internal/gamification"
	"github.com/blackshadow44/Substanz/internal/models"
)

func (s *Server) runAnalysis() (*analysis.AnalysisReport, error) {
	entries, err := s.store.ListEntries()
	if err != nil {
		return nil, err
	}
	samples, err := s.store.ListHealthSamples()
	if err != nil {
		return nil, err
	}
	return s.analyzer.Run(entries, samples)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.runAnalysis()
	if errors.Is(err, analysis.ErrNoData) {
		http.Error(w, "keine Daten für eine Analyse vorhanden", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportText(w http.ResponseWriter, r *http.Request) {
	rep, err := s.runAnalysis()
	if errors.Is(err, analysis.ErrNoData) {
		http.Error(w, "keine Daten für eine Analyse vorhanden", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(rep.RenderText()))
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Statistics(time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if stats == nil {
		writeJSON(w, http.StatusOK, map[string]any{"total_entries": 0})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdvisor(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListEntries()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, advisor.Analyze(entries, time.Now()))
}

func (s *Server) handleGamification(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListEntries()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	goals, err := s.store.ListGoals()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, gamification.Evaluate(entries, goals, time.Now()))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	entries, err := s.store.ListEntries()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	goals, err := s.store.ListGoals()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	reply := s.responder.Reply(req.Message, entries, goals, time.Now())
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// handleExport returns the snapshot JSON. With anonymize=1 substances are
// replaced by stable placeholder names.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.BuildSnapshot(time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if r.URL.Query().Get("anonymize") == "1" {
		snap.Anonymize()
	}
	w.Header().Set("Content-Disposition", `attachment; filename="substanz_export.json"`)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDailyChart(w http.ResponseWriter, r *http.Request) {
	if data, ok := s.chartCache.Get(); ok {
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
		return
	}

	entries, err := s.store.ListEntries()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	samples, err := s.store.ListHealthSamples()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rows := aggregateRows(entries, samples)
	data, err := chart.RenderDaily(rows)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.chartCache.Set(data)

	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

func aggregateRows(entries []models.Entry, samples []models.HealthSample) []analysis.DayMetrics {
	consumption, _ := analysis.LoadConsumption(entries)
	sleep, heartRate, _ := analysis.LoadHealth(samples)
	return analysis.Aggregate(sleep, heartRate, consumption)
}

package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blackshadow44/Substanz/internal/analysis"
	"github.com/blackshadow44/Substanz/internal/chart"
	"github.com/blackshadow44/Substanz/internal/chat"
	"github.com/blackshadow44/Substanz/internal/store"
)

type Server struct {
	store      *store.Store
	analyzer   *analysis.Analyzer
	responder  *chat.Responder
	chartCache *chart.Cache
	port       string

	// passwordHash is the hex sha256 of the access token. Empty disables
	// authentication.
	passwordHash string
}

func NewServer(store *store.Store, port, passwordHash string) *Server {
	return &Server{
		store:        store,
		analyzer:     analysis.NewAnalyzer(),
		responder:    chat.NewResponder(time.Now().UnixNano()),
		chartCache:   chart.NewCache(5 * time.Minute),
		port:         port,
		passwordHash: passwordHash,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/entries", s.handleEntries)
	mux.HandleFunc("/api/entries/", s.handleEntryByID)
	mux.HandleFunc("/api/health-samples", s.handleHealthSamples)
	mux.HandleFunc("/api/health-samples/import", s.handleHealthImport)
	mux.HandleFunc("/api/goals", s.handleGoals)
	mux.HandleFunc("/api/goals/", s.handleGoalByID)
	mux.HandleFunc("/api/journal", s.handleJournal)
	mux.HandleFunc("/api/statistics", s.handleStatistics)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/report/text", s.handleReportText)
	mux.HandleFunc("/api/advisor", s.handleAdvisor)
	mux.HandleFunc("/api/gamification", s.handleGamification)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/chart/daily.png", s.handleDailyChart)

	protected := s.requireAuth(mux)

	outer := http.NewServeMux()
	outer.HandleFunc("/health", s.handleHealth)
	outer.Handle("/metrics", promhttp.Handler())
	outer.Handle("/", protected)
	return outer
}

// requireAuth gates every data route behind the X-Auth-Token header when a
// password hash is configured. /health and /metrics stay open.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.passwordHash == "" {
			next.ServeHTTP(w, r)
			return
		}
		sum := sha256.Sum256([]byte(r.Header.Get("X-Auth-Token")))
		got := hex.EncodeToString(sum[:])
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.passwordHash)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

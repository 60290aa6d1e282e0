package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/keywatch/keywatch/internal/server/ingest"
	"github.com/keywatch/keywatch/internal/server/notify"
	"github.com/keywatch/keywatch/internal/server/storage"
	"github.com/keywatch/keywatch/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
)

// Server exposes the JSON API consumed by agents and the admin frontend.
type Server struct {
	cfg      *config.Config
	store    storage.Store
	ingest   *ingest.Service
	notifier *notify.Notifier
	logger   *slog.Logger
}

func New(cfg *config.Config, store storage.Store, ingestSvc *ingest.Service, notifier *notify.Notifier) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		ingest:   ingestSvc,
		notifier: notifier,
		logger:   slog.Default(),
	}
}

// SetLogger sets the logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/keywords", s.handleListKeywords)
	mux.HandleFunc("POST /api/keywords", s.handleAddKeyword)
	mux.HandleFunc("DELETE /api/keywords/{id}", s.handleDeleteKeyword)

	mux.HandleFunc("GET /api/alerts", s.handleListAlerts)
	mux.HandleFunc("POST /api/alerts", s.handleSubmitAlert)
	mux.HandleFunc("DELETE /api/alerts", s.handlePurgeAlerts)

	mux.HandleFunc("GET /api/devices", s.handleListDevices)
	mux.HandleFunc("POST /api/devices/heartbeat", s.handleHeartbeat)

	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /api/telegram/config", s.handleGetTelegramConfig)
	mux.HandleFunc("POST /api/telegram/config", s.handleSetTelegramConfig)
	mux.HandleFunc("GET /api/telegram/groups", s.handleListGroups)
	mux.HandleFunc("POST /api/telegram/groups", s.handleAddGroup)
	mux.HandleFunc("DELETE /api/telegram/groups/{id}", s.handleDeleteGroup)
	mux.HandleFunc("POST /api/telegram/test", s.handleTestNotification)

	mux.HandleFunc("GET /api/app-password", s.handleGetAppPassword)
	mux.HandleFunc("POST /api/app-password", s.handleSetAppPassword)
	mux.HandleFunc("POST /api/verify-password", s.handleVerifyPassword)

	mux.HandleFunc("GET /feeds/alerts", s.handleAlertFeed)
	mux.HandleFunc("GET /health", s.handleHealth)

	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)
	return handler
}

// Start serves until the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("API server starting", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// response is the uniform API envelope.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Valid   *bool  `json:"valid,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Error: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/keywatch/keywatch/internal/server/ingest"
	"github.com/keywatch/keywatch/internal/server/notify"
	"github.com/keywatch/keywatch/internal/server/storage"
	"github.com/samber/lo"
)

func (s *Server) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	keywords, err := s.store.Keywords()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, keywords)
}

func (s *Server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Keyword   string `json:"keyword"`
		MatchType string `json:"match_type"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}

	keyword := strings.TrimSpace(payload.Keyword)
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "keyword must not be empty")
		return
	}

	matchType := payload.MatchType
	if matchType != "exact" {
		matchType = "partial"
	}

	kw := &storage.Keyword{
		ID:        uuid.NewString(),
		Keyword:   keyword,
		MatchType: matchType,
		CreatedAt: time.Now(),
	}
	if err := s.store.SaveKeyword(kw); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, kw)
}

func (s *Server) handleDeleteKeyword(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteKeyword(r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrKeywordNotFound) {
			writeError(w, http.StatusNotFound, "keyword not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	alerts, err := s.store.Alerts(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, alerts)
}

func (s *Server) handleSubmitAlert(w http.ResponseWriter, r *http.Request) {
	var payload ingest.AlertPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	id, err := s.ingest.SubmitAlert(&payload)
	if err != nil {
		if errors.Is(err, ingest.ErrMissingAlertFields) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, map[string]string{"id": id})
}

func (s *Server) handlePurgeAlerts(w http.ResponseWriter, r *http.Request) {
	if err := s.store.PurgeAlerts(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.store.Devices()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, devices)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var payload ingest.HeartbeatPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	if err := s.ingest.Heartbeat(&payload); err != nil {
		if errors.Is(err, ingest.ErrMissingHeartbeatFields) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ingest.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, stats)
}

func (s *Server) handleGetTelegramConfig(w http.ResponseWriter, r *http.Request) {
	token, err := s.store.Setting(storage.SettingTelegramToken)
	if err != nil && !errors.Is(err, storage.ErrSettingNotFound) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, map[string]any{
		"token":      token,
		"configured": token != "",
	})
}

func (s *Server) handleSetTelegramConfig(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token string `json:"token"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}
	if payload.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := s.store.PutSetting(storage.SettingTelegramToken, payload.Token); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.notifier.Reload(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "telegram bot token saved"})
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.Channels()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, channels)
}

func (s *Server) handleAddGroup(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ChatID    string `json:"chat_id"`
		GroupName string `json:"group_name"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}
	if payload.ChatID == "" {
		writeError(w, http.StatusBadRequest, "chat_id is required")
		return
	}

	groupName := payload.GroupName
	if groupName == "" {
		groupName = fmt.Sprintf("Group %s", payload.ChatID)
	}

	channel := &storage.Channel{
		ID:        uuid.NewString(),
		ChatID:    payload.ChatID,
		GroupName: groupName,
		CreatedAt: time.Now(),
	}
	if err := s.store.SaveChannel(channel); err != nil {
		if errors.Is(err, storage.ErrChannelExists) {
			writeError(w, http.StatusBadRequest, "group already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "group added", Data: channel})
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteChannel(r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrChannelNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "group removed"})
}

func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	results, err := s.notifier.TestSend(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, notify.ErrNotConfigured):
			writeError(w, http.StatusBadRequest, "telegram bot not configured")
		case errors.Is(err, notify.ErrNoChannels):
			writeError(w, http.StatusBadRequest, "no groups registered")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	sent := lo.CountBy(results, func(res notify.Result) bool { return res.Err == nil })
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: fmt.Sprintf("test message sent to %d/%d groups", sent, len(results)),
		Data:    results,
	})
}

func (s *Server) handleGetAppPassword(w http.ResponseWriter, r *http.Request) {
	password, err := s.store.Setting(storage.SettingAppPassword)
	if err != nil && !errors.Is(err, storage.ErrSettingNotFound) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, map[string]string{"password": password})
}

func (s *Server) handleSetAppPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}
	if len(payload.Password) < 4 {
		writeError(w, http.StatusBadRequest, "password must be at least 4 characters")
		return
	}

	if err := s.store.PutSetting(storage.SettingAppPassword, payload.Password); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "app password saved"})
}

func (s *Server) handleVerifyPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}
	if payload.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	valid, err := s.ingest.VerifyPassword(payload.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	message := "password correct"
	if !valid {
		message = "password incorrect"
	}
	writeJSON(w, http.StatusOK, response{Success: true, Valid: &valid, Message: message})
}

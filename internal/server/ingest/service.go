package ingest

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/keywatch/keywatch/internal/server/notify"
	"github.com/keywatch/keywatch/internal/server/storage"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

var (
	ErrMissingAlertFields     = errors.New("device_id, device_name and keyword are required")
	ErrMissingHeartbeatFields = errors.New("device_id and device_name are required")
)

// AlertPayload is the wire body of POST /api/alerts.
type AlertPayload struct {
	DeviceID      string `json:"device_id"`
	DeviceName    string `json:"device_name"`
	DeviceRemark  string `json:"device_remark"`
	Keyword       string `json:"keyword"`
	TriggeredText string `json:"triggered_text"`
	DeviceTime    string `json:"device_time"`
}

// HeartbeatPayload is the wire body of POST /api/devices/heartbeat.
type HeartbeatPayload struct {
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name"`
	DeviceModel  string `json:"device_model"`
	DeviceRemark string `json:"device_remark"`
}

// Stats summarizes stored records.
type Stats struct {
	Keywords    int `json:"keywords"`
	Alerts      int `json:"alerts"`
	Devices     int `json:"devices"`
	TodayAlerts int `json:"todayAlerts"`
}

// Fanout triggers channel notifications for a persisted alert.
type Fanout interface {
	Notify(ctx context.Context, alert *storage.Alert) []notify.Result
}

// Service validates and persists alert and heartbeat submissions.
type Service struct {
	store  storage.Store
	fanout Fanout
}

func New(store storage.Store, fanout Fanout) *Service {
	return &Service{store: store, fanout: fanout}
}

// SubmitAlert persists the alert, refreshes the device row and launches
// notification fan-out without waiting for it. The returned id is the alert's
// storage id; fan-out outcomes are observable only through logs.
func (s *Service) SubmitAlert(payload *AlertPayload) (string, error) {
	if payload.DeviceID == "" || payload.DeviceName == "" || payload.Keyword == "" {
		return "", ErrMissingAlertFields
	}

	now := time.Now()
	deviceTime := payload.DeviceTime
	if deviceTime == "" {
		deviceTime = now.Format(time.RFC3339)
	}

	alert := &storage.Alert{
		ID:            uuid.NewString(),
		DeviceID:      payload.DeviceID,
		DeviceName:    payload.DeviceName,
		DeviceRemark:  payload.DeviceRemark,
		Keyword:       payload.Keyword,
		TriggeredText: payload.TriggeredText,
		DeviceTime:    deviceTime,
		CreatedAt:     now,
	}

	if err := s.store.SaveAlert(alert); err != nil {
		return "", oops.With("device_id", payload.DeviceID).Wrap(err)
	}

	if err := s.store.UpsertDevice(&storage.Device{
		ID:           payload.DeviceID,
		DeviceName:   payload.DeviceName,
		DeviceRemark: payload.DeviceRemark,
		LastOnline:   now,
	}); err != nil {
		slog.Error("failed to refresh device row", "device_id", payload.DeviceID, "error", err)
	}

	// The HTTP response must not wait on channel delivery.
	go s.fanout.Notify(context.Background(), alert)

	return alert.ID, nil
}

// Heartbeat upserts the device row. No alert side effects.
func (s *Service) Heartbeat(payload *HeartbeatPayload) error {
	if payload.DeviceID == "" || payload.DeviceName == "" {
		return ErrMissingHeartbeatFields
	}

	model := payload.DeviceModel
	if model == "" {
		model = "Unknown"
	}

	err := s.store.UpsertDevice(&storage.Device{
		ID:           payload.DeviceID,
		DeviceName:   payload.DeviceName,
		DeviceModel:  model,
		DeviceRemark: payload.DeviceRemark,
		LastOnline:   time.Now(),
	})
	if err != nil {
		return oops.With("device_id", payload.DeviceID).Wrap(err)
	}
	return nil
}

// Stats counts stored keywords, alerts and devices.
func (s *Service) Stats() (*Stats, error) {
	keywords, err := s.store.Keywords()
	if err != nil {
		return nil, oops.With("context", "counting keywords").Wrap(err)
	}
	alerts, err := s.store.Alerts(0)
	if err != nil {
		return nil, oops.With("context", "counting alerts").Wrap(err)
	}
	devices, err := s.store.Devices()
	if err != nil {
		return nil, oops.With("context", "counting devices").Wrap(err)
	}

	today := time.Now().Format("2006-01-02")
	todayAlerts := lo.CountBy(alerts, func(a *storage.Alert) bool {
		return a.CreatedAt.Format("2006-01-02") == today
	})

	return &Stats{
		Keywords:    len(keywords),
		Alerts:      len(alerts),
		Devices:     len(devices),
		TodayAlerts: todayAlerts,
	}, nil
}

// VerifyPassword checks the candidate against the stored app password. An
// absent stored password means the gate is open and anything passes.
func (s *Service) VerifyPassword(candidate string) (bool, error) {
	stored, err := s.store.Setting(storage.SettingAppPassword)
	if err != nil {
		if errors.Is(err, storage.ErrSettingNotFound) {
			return true, nil
		}
		return false, oops.With("context", "loading app password").Wrap(err)
	}
	if stored == "" {
		return true, nil
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1, nil
}

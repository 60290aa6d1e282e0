package storage

import (
	"time"
)

// Keyword is a rule the agents match observed text against. Rules are
// immutable once created; agents replace their whole set on refresh.
type Keyword struct {
	ID        string    `json:"id"`
	Keyword   string    `json:"keyword"`
	MatchType string    `json:"match_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Alert is one keyword trigger reported by a device. Rows are never mutated
// after insert; duplicate submissions produce duplicate rows.
type Alert struct {
	ID            string    `json:"id"`
	DeviceID      string    `json:"device_id"`
	DeviceName    string    `json:"device_name"`
	DeviceRemark  string    `json:"device_remark"`
	Keyword       string    `json:"keyword"`
	TriggeredText string    `json:"triggered_text"`
	DeviceTime    string    `json:"device_time"`
	CreatedAt     time.Time `json:"created_at"`
}

// Device is the last known identity of a reporting device, keyed by its
// stable device id.
type Device struct {
	ID           string    `json:"id"`
	DeviceName   string    `json:"device_name"`
	DeviceModel  string    `json:"device_model"`
	DeviceRemark string    `json:"device_remark"`
	LastOnline   time.Time `json:"last_online"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Channel is a registered Telegram group notifications are fanned out to.
type Channel struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	GroupName string    `json:"group_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Setting keys in use.
const (
	SettingTelegramToken = "telegram_token"
	SettingAppPassword   = "app_password"
)

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

// FileStorage keeps every record as a JSON file under its own subdirectory.
// A single RWMutex serializes writes, matching the single-writer semantics
// callers are allowed to assume.
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	dirs := []string{"keywords", "alerts", "devices", "channels", "settings"}
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	return &FileStorage{basePath: basePath}, nil
}

func (s *FileStorage) SaveKeyword(kw *Keyword) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeRecord(filepath.Join(s.basePath, "keywords", kw.ID+".json"), kw)
}

func (s *FileStorage) Keywords() ([]*Keyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keywords, err := readAll[Keyword](filepath.Join(s.basePath, "keywords"))
	if err != nil {
		return nil, err
	}
	sort.Slice(keywords, func(i, j int) bool {
		return keywords[i].CreatedAt.After(keywords[j].CreatedAt)
	})
	return keywords, nil
}

func (s *FileStorage) DeleteKeyword(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.basePath, "keywords", id+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrKeywordNotFound
		}
		return fmt.Errorf("failed to delete keyword: %w", err)
	}
	return nil
}

func (s *FileStorage) SaveAlert(alert *Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeRecord(filepath.Join(s.basePath, "alerts", alert.ID+".json"), alert)
}

func (s *FileStorage) Alerts(limit int) ([]*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts, err := readAll[Alert](filepath.Join(s.basePath, "alerts"))
	if err != nil {
		return nil, err
	}
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}

func (s *FileStorage) PurgeAlerts() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.basePath, "alerts")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read alerts directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to purge alerts: %w", err)
		}
	}
	return nil
}

// UpsertDevice inserts the device or refreshes name/model/remark/last_online
// on an existing row. RegisteredAt is set once and preserved.
func (s *FileStorage) UpsertDevice(device *Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.basePath, "devices", device.ID+".json")

	existing, err := readRecord[Device](path)
	switch {
	case err == nil:
		device.RegisteredAt = existing.RegisteredAt
	case os.IsNotExist(err):
		if device.RegisteredAt.IsZero() {
			device.RegisteredAt = time.Now()
		}
	default:
		return fmt.Errorf("failed to read device: %w", err)
	}

	return writeRecord(path, device)
}

func (s *FileStorage) Devices() ([]*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices, err := readAll[Device](filepath.Join(s.basePath, "devices"))
	if err != nil {
		return nil, err
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].LastOnline.After(devices[j].LastOnline)
	})
	return devices, nil
}

// SaveChannel rejects a chat id that is already registered.
func (s *FileStorage) SaveChannel(channel *Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels, err := readAll[Channel](filepath.Join(s.basePath, "channels"))
	if err != nil {
		return err
	}
	if lo.ContainsBy(channels, func(c *Channel) bool { return c.ChatID == channel.ChatID && c.ID != channel.ID }) {
		return ErrChannelExists
	}

	return writeRecord(filepath.Join(s.basePath, "channels", channel.ID+".json"), channel)
}

func (s *FileStorage) Channels() ([]*Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channels, err := readAll[Channel](filepath.Join(s.basePath, "channels"))
	if err != nil {
		return nil, err
	}
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].CreatedAt.After(channels[j].CreatedAt)
	})
	return channels, nil
}

func (s *FileStorage) DeleteChannel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.basePath, "channels", id+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrChannelNotFound
		}
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}

func (s *FileStorage) Setting(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.basePath, "settings", key+".json")
	record, err := readRecord[settingRecord](path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("failed to read setting: %w", err)
	}
	return record.Value, nil
}

func (s *FileStorage) PutSetting(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.basePath, "settings", key+".json")
	return writeRecord(path, &settingRecord{Key: key, Value: value})
}

type settingRecord struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func writeRecord(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func readRecord[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &record, nil
}

func readAll[T any](dir string) ([]*T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	records := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (*T, bool) {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			return nil, false
		}
		record, err := readRecord[T](filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, false
		}
		return record, true
	})

	return records, nil
}

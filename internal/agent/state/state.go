package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
)

// Identity describes the device to the server. DeviceID is generated once
// and persisted for the device's lifetime; the other fields may change
// between heartbeats.
type Identity struct {
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name"`
	DeviceModel  string `json:"device_model"`
	DeviceRemark string `json:"device_remark"`
}

// Load reads the persisted identity from statePath, generating and persisting
// a fresh device id on first run. Name and model are rederived every start so
// hostname changes show up on the next heartbeat.
func Load(statePath, remark string) (*Identity, error) {
	if err := os.MkdirAll(statePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	path := filepath.Join(statePath, "identity.json")

	var persisted Identity
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &persisted); err != nil {
			return nil, fmt.Errorf("failed to unmarshal identity: %w", err)
		}
	case os.IsNotExist(err):
		// first run
	default:
		return nil, fmt.Errorf("failed to read identity: %w", err)
	}

	if persisted.DeviceID == "" {
		persisted.DeviceID = uuid.NewString()
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	identity := &Identity{
		DeviceID:     persisted.DeviceID,
		DeviceName:   fmt.Sprintf("%s (%s)", hostname, shortID(persisted.DeviceID)),
		DeviceModel:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		DeviceRemark: remark,
	}

	out, err := json.MarshalIndent(identity, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal identity: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return nil, fmt.Errorf("failed to persist identity: %w", err)
	}

	return identity, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

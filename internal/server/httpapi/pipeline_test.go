package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	agentapi "github.com/keywatch/keywatch/internal/agent/api"
	"github.com/keywatch/keywatch/internal/agent/capture"
	"github.com/keywatch/keywatch/internal/agent/keywords"
	"github.com/keywatch/keywatch/internal/agent/monitor"
	"github.com/keywatch/keywatch/internal/agent/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full path: keyword configured on the server, agent refreshes its cache,
// observed text matches, an alert is posted, and both registered channels
// receive exactly one notification within the cooldown window.
func TestPipeline_CaptureToChannelDelivery(t *testing.T) {
	api := newTestAPI(t)

	status, _ := api.do(t, http.MethodPost, "/api/keywords", map[string]string{"keyword": "urgent"})
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(t, http.MethodPost, "/api/telegram/groups", map[string]string{"chat_id": "-100"})
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(t, http.MethodPost, "/api/telegram/groups", map[string]string{"chat_id": "-200"})
	require.Equal(t, http.StatusOK, status)

	client := agentapi.NewClient(api.server.URL, time.Second)
	cache := keywords.NewCache(client, time.Hour)
	require.NoError(t, cache.Refresh(context.Background()))

	identity := &state.Identity{DeviceID: "device-1234", DeviceName: "phone", DeviceRemark: "desk"}
	mon := monitor.New(identity, cache, nil, client, time.Hour)

	mon.HandleEvent(context.Background(), capture.Event{Texts: []string{"this is Urgent now"}})

	require.Eventually(t, func() bool {
		return len(api.transport.sent("-100")) == 1 && len(api.transport.sent("-200")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	message := api.transport.sent("-100")[0]
	assert.Contains(t, message, "urgent")
	assert.Contains(t, message, "this is Urgent now")
	assert.Contains(t, message, "phone (desk)")

	// A duplicate inside the cooldown window stores a second row but does
	// not notify again.
	mon.HandleEvent(context.Background(), capture.Event{Texts: []string{"this is Urgent now"}})

	require.Eventually(t, func() bool {
		alerts, err := api.store.Alerts(0)
		return err == nil && len(alerts) == 2
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Len(t, api.transport.sent("-100"), 1)
	assert.Len(t, api.transport.sent("-200"), 1)
}

// An exact rule fires on equality only.
func TestPipeline_ExactRule(t *testing.T) {
	api := newTestAPI(t)

	status, _ := api.do(t, http.MethodPost, "/api/keywords", map[string]string{"keyword": "urgent", "match_type": "exact"})
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(t, http.MethodPost, "/api/telegram/groups", map[string]string{"chat_id": "-100"})
	require.Equal(t, http.StatusOK, status)

	client := agentapi.NewClient(api.server.URL, time.Second)
	cache := keywords.NewCache(client, time.Hour)
	require.NoError(t, cache.Refresh(context.Background()))

	identity := &state.Identity{DeviceID: "device-1234", DeviceName: "phone"}
	mon := monitor.New(identity, cache, nil, client, time.Hour)

	mon.HandleEvent(context.Background(), capture.Event{Texts: []string{"this is urgent now"}})
	time.Sleep(100 * time.Millisecond)
	alerts, err := api.store.Alerts(0)
	require.NoError(t, err)
	assert.Empty(t, alerts, "substring must not fire an exact rule")

	mon.HandleEvent(context.Background(), capture.Event{Texts: []string{"urgent"}})
	require.Eventually(t, func() bool {
		return len(api.transport.sent("-100")) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

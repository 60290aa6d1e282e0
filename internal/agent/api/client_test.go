package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/keywatch/keywatch/internal/agent/match"
	"github.com/keywatch/keywatch/internal/agent/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIdentity() *state.Identity {
	return &state.Identity{
		DeviceID:     "device-1234",
		DeviceName:   "test host",
		DeviceModel:  "linux/amd64",
		DeviceRemark: "lab phone",
	}
}

func TestClient_FetchKeywords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/keywords", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[
			{"id":"1","keyword":"urgent","match_type":"partial","created_at":"2026-01-02T03:04:05Z"},
			{"id":"2","keyword":"panic","match_type":"exact","created_at":"2026-01-02T03:04:05Z"},
			{"id":"3","keyword":"odd","match_type":"","created_at":""}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	rules, err := client.FetchKeywords(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, "urgent", rules[0].Text)
	assert.Equal(t, match.ModePartial, rules[0].Mode)
	assert.Equal(t, match.ModeExact, rules[1].Mode)
	// Unspecified match type defaults to partial.
	assert.Equal(t, match.ModePartial, rules[2].Mode)
	assert.Equal(t, 2026, rules[0].CreatedAt.Year())
}

func TestClient_FetchKeywords_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.FetchKeywords(context.Background())
	assert.Error(t, err)
}

func TestClient_ReportAlert(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/alerts", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"success":true,"data":{"id":"alert-1"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	err := client.ReportAlert(context.Background(), testIdentity(), "urgent", "this is Urgent now", "2026-01-02T03:04:05Z")
	require.NoError(t, err)

	assert.Equal(t, "device-1234", received["device_id"])
	assert.Equal(t, "test host", received["device_name"])
	assert.Equal(t, "lab phone", received["device_remark"])
	assert.Equal(t, "urgent", received["keyword"])
	assert.Equal(t, "this is Urgent now", received["triggered_text"])
	assert.Equal(t, "2026-01-02T03:04:05Z", received["device_time"])
}

func TestClient_Heartbeat(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/devices/heartbeat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	require.NoError(t, client.Heartbeat(context.Background(), testIdentity()))

	assert.Equal(t, "device-1234", received["device_id"])
	assert.Equal(t, "linux/amd64", received["device_model"])
}

func TestClient_ReportAlert_UnreachableServer(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 100*time.Millisecond)
	err := client.ReportAlert(context.Background(), testIdentity(), "urgent", "text", "")
	assert.Error(t, err)
}

func TestClient_VerifyPassword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/verify-password", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] == "secret" {
			w.Write([]byte(`{"success":true,"valid":true,"message":"password correct"}`))
			return
		}
		w.Write([]byte(`{"success":true,"valid":false,"message":"password incorrect"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	ok, err := client.VerifyPassword(context.Background(), "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.VerifyPassword(context.Background(), "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

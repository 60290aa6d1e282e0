package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/keywatch/keywatch/internal/server/storage"
	"github.com/keywatch/keywatch/internal/shared/config"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// How much of the triggered text takes part in the dedup key.
const dedupTextPrefix = 20

// Dedup entries are kept at most this long.
const dedupRetention = 60 * time.Second

var (
	ErrNotConfigured = errors.New("telegram bot not configured")
	ErrNoChannels    = errors.New("no notification channels registered")
)

// Result is the outcome of one channel send.
type Result struct {
	ChatID string `json:"chat_id"`
	Err    error  `json:"-"`
}

// Notifier fans one alert out to every registered channel, suppressing
// repeats of the same trigger inside the configured cooldown window.
type Notifier struct {
	cfg   *config.Config
	store storage.Store
	guard *guard

	mu        sync.RWMutex
	transport Transport
}

func New(cfg *config.Config, store storage.Store) *Notifier {
	return &Notifier{
		cfg:   cfg,
		store: store,
		guard: newGuard(cfg.CooldownWindow(), dedupRetention),
	}
}

// SetTransport swaps the delivery transport.
func (n *Notifier) SetTransport(t Transport) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transport = t
}

func (n *Notifier) currentTransport() Transport {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.transport
}

// Reload rebuilds the Telegram transport from the stored bot token. Called at
// startup and whenever the token is updated. An absent token is not an error;
// it just leaves the notifier idle.
func (n *Notifier) Reload() error {
	token, err := n.store.Setting(storage.SettingTelegramToken)
	if err != nil {
		if errors.Is(err, storage.ErrSettingNotFound) {
			n.SetTransport(nil)
			slog.Info("telegram bot not configured")
			return nil
		}
		return oops.With("context", "loading telegram token").Wrap(err)
	}

	transport, err := newTelegramTransport(token, n.cfg.TelegramAPIURL)
	if err != nil {
		return err
	}
	n.SetTransport(transport)
	slog.Info("telegram bot initialized")
	return nil
}

// Notify delivers alert to every registered channel concurrently. Each
// channel's outcome is independent; failures are logged, never propagated.
// All sends are joined before Notify returns, but callers are expected to
// invoke it on a goroutine rather than wait.
func (n *Notifier) Notify(ctx context.Context, alert *storage.Alert) []Result {
	key := dedupKey(alert)
	if !n.guard.Acquire(key) {
		slog.Info("notification suppressed within cooldown",
			"device_id", alert.DeviceID, "keyword", alert.Keyword)
		return nil
	}

	transport := n.currentTransport()
	if transport == nil {
		n.guard.Release(key)
		return nil
	}

	channels, err := n.store.Channels()
	if err != nil {
		n.guard.Release(key)
		slog.Error("failed to load notification channels", "error", err)
		return nil
	}
	if len(channels) == 0 {
		n.guard.Release(key)
		return nil
	}

	results := n.broadcast(ctx, transport, channels, formatAlert(alert))

	sent := lo.CountBy(results, func(r Result) bool { return r.Err == nil })
	slog.Info("alert notifications dispatched",
		"keyword", alert.Keyword, "sent", sent, "channels", len(channels))
	return results
}

// TestSend broadcasts a test message to every registered channel.
func (n *Notifier) TestSend(ctx context.Context) ([]Result, error) {
	transport := n.currentTransport()
	if transport == nil {
		return nil, ErrNotConfigured
	}

	channels, err := n.store.Channels()
	if err != nil {
		return nil, oops.With("context", "loading channels").Wrap(err)
	}
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}

	message := "✅ Test message\n\nThis is a test message from the keyword monitoring system."
	return n.broadcast(ctx, transport, channels, message), nil
}

func (n *Notifier) broadcast(ctx context.Context, transport Transport, channels []*storage.Channel, text string) []Result {
	results := make([]Result, len(channels))
	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch *storage.Channel) {
			defer wg.Done()
			err := transport.Send(ctx, ch.ChatID, text)
			if err != nil {
				slog.Error("failed to send to channel", "chat_id", ch.ChatID, "error", err)
			}
			results[i] = Result{ChatID: ch.ChatID, Err: err}
		}(i, ch)
	}
	wg.Wait()
	return results
}

func dedupKey(alert *storage.Alert) string {
	text := alert.TriggeredText
	if runes := []rune(text); len(runes) > dedupTextPrefix {
		text = string(runes[:dedupTextPrefix])
	}
	return alert.DeviceID + "|" + alert.Keyword + "|" + text
}

func formatAlert(alert *storage.Alert) string {
	deviceInfo := alert.DeviceName
	if alert.DeviceRemark != "" {
		deviceInfo = fmt.Sprintf("%s (%s)", alert.DeviceName, alert.DeviceRemark)
	}

	triggered := alert.TriggeredText
	if triggered == "" {
		triggered = "(none)"
	}

	deviceTime := alert.DeviceTime
	if deviceTime == "" {
		deviceTime = alert.CreatedAt.Format(time.RFC3339)
	}

	var b strings.Builder
	b.WriteString("🚨 *Keyword alert*\n\n")
	fmt.Fprintf(&b, "📱 *Device*: %s\n", deviceInfo)
	fmt.Fprintf(&b, "🔴 *Keyword*: %s\n", alert.Keyword)
	fmt.Fprintf(&b, "💬 *Text*: %s\n", triggered)
	fmt.Fprintf(&b, "⏰ *Device time*: %s\n", deviceTime)
	fmt.Fprintf(&b, "🆔 *Device ID*: %s...", shortID(alert.DeviceID))
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/keywatch/keywatch/internal/agent/capture"
	"github.com/keywatch/keywatch/internal/agent/keywords"
	"github.com/keywatch/keywatch/internal/agent/match"
	"github.com/keywatch/keywatch/internal/agent/state"
)

// Reporter sends alerts and heartbeats to the server.
type Reporter interface {
	ReportAlert(ctx context.Context, identity *state.Identity, keyword, triggeredText, deviceTime string) error
	Heartbeat(ctx context.Context, identity *state.Identity) error
}

// Monitor runs the three agent loops: capture-and-match per incoming event,
// keyword cache refresh, and the heartbeat. None of them block one another;
// the match path only reads the cache snapshot and reports fire on their own
// goroutines.
type Monitor struct {
	identity       *state.Identity
	cache          *keywords.Cache
	source         capture.Source
	reporter       Reporter
	heartbeatEvery time.Duration

	wg sync.WaitGroup
}

func New(identity *state.Identity, cache *keywords.Cache, source capture.Source, reporter Reporter, heartbeatEvery time.Duration) *Monitor {
	return &Monitor{
		identity:       identity,
		cache:          cache,
		source:         source,
		reporter:       reporter,
		heartbeatEvery: heartbeatEvery,
	}
}

// Run blocks until ctx is cancelled and the event source drains, then joins
// every loop and in-flight report.
func (m *Monitor) Run(ctx context.Context) {
	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		m.cache.Run(ctx)
	}()
	go func() {
		defer m.wg.Done()
		m.heartbeatLoop(ctx)
	}()

	m.eventLoop(ctx)
	m.wg.Wait()
}

func (m *Monitor) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-m.source.Events():
			if !ok {
				return
			}
			m.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent extracts candidate strings from one event and reports every
// rule each candidate matches. Matching runs against the snapshot in effect
// right now and never touches the network itself.
func (m *Monitor) HandleEvent(ctx context.Context, ev capture.Event) {
	rules := m.cache.Snapshot()
	if len(rules) == 0 {
		return
	}

	for _, candidate := range capture.Extract(ev) {
		for _, rule := range match.Check(candidate, rules) {
			m.report(ctx, rule, candidate)
		}
	}
}

// report sends one alert off the event path. Any failure is logged and
// swallowed: losing an alert is preferred over blocking capture or queueing
// an unbounded backlog.
func (m *Monitor) report(ctx context.Context, rule match.Rule, triggeredText string) {
	deviceTime := time.Now().Format(time.RFC3339)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.reporter.ReportAlert(ctx, m.identity, rule.Text, triggeredText, deviceTime); err != nil {
			slog.Warn("alert report failed", "keyword", rule.Text, "error", err)
			return
		}
		slog.Info("keyword trigger reported", "keyword", rule.Text, "mode", rule.Mode)
	}()
}

func (m *Monitor) heartbeatLoop(ctx context.Context) {
	m.beat(ctx)

	ticker := time.NewTicker(m.heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.beat(ctx)
		}
	}
}

func (m *Monitor) beat(ctx context.Context) {
	if err := m.reporter.Heartbeat(ctx, m.identity); err != nil {
		slog.Warn("heartbeat failed", "error", err)
		return
	}
	slog.Debug("heartbeat sent", "device_id", m.identity.DeviceID)
}

package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/feeds"
	"github.com/keywatch/keywatch/internal/server/storage"
)

const feedAlertLimit = 50

// handleAlertFeed serves the most recent alerts as an RSS feed, so operators
// can follow triggers from a feed reader in addition to Telegram.
func (s *Server) handleAlertFeed(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.Alerts(feedAlertLimit)
	if err != nil {
		s.logger.Error("failed to load alerts for feed", "error", err)
		http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
		return
	}

	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)

	feed := &feeds.Feed{
		Title:       "Keyword Alerts",
		Link:        &feeds.Link{Href: baseURL + "/feeds/alerts"},
		Description: "Recent keyword trigger alerts",
	}
	if len(alerts) > 0 {
		feed.Updated = alerts[0].CreatedAt
	}

	for _, alert := range alerts {
		feed.Items = append(feed.Items, alertToFeedItem(alert))
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.logger.Error("failed to render alert feed", "error", err)
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}

func alertToFeedItem(alert *storage.Alert) *feeds.Item {
	device := alert.DeviceName
	if alert.DeviceRemark != "" {
		device = fmt.Sprintf("%s (%s)", alert.DeviceName, alert.DeviceRemark)
	}

	description := alert.TriggeredText
	if description == "" {
		description = "No triggered text"
	}

	return &feeds.Item{
		Title:       fmt.Sprintf("%s triggered on %s", alert.Keyword, device),
		Description: description,
		Created:     alert.CreatedAt,
		Id:          alert.ID,
	}
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

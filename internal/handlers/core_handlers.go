package handlers

import (
	"net/http"
	"time"

	"mentorlink/internal/api"
	"mentorlink/internal/models"
)

const notificationLimit = 50

// HandleHealth reports store reachability and how many accounts are online here.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		resp := api.HealthResponse{Status: "healthy", Store: s.StoreType}
		if s.Metrics != nil {
			resp.Uptime = s.Metrics.Uptime().Round(time.Second).String()
		}

		if s.Store != nil {
			if err := s.Store.Ping(ctx); err != nil {
				s.Logger.Warn("health check: store unreachable", "error", err)
				resp.Status = "degraded"
				writeJSON(w, http.StatusServiceUnavailable, resp)
				return
			}
		}

		online, err := s.Presence.Online(ctx)
		if err != nil {
			s.Logger.Warn("health check: presence unavailable", "error", err)
			resp.Status = "degraded"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Online = len(online)
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleListNotifications handles GET /api/notifications
func (s *Server) HandleListNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		limit, err := queryInt(r, "limit", notificationLimit)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		notifications, err := s.Notifications.ListNotifications(ctx, accountID, min(limit, notificationLimit))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if notifications == nil {
			notifications = []*models.Notification{}
		}
		writeJSON(w, http.StatusOK, api.NotificationsResponse{Notifications: notifications, Count: len(notifications)})
	}
}

package handlers

import (
	"net/http"

	"mentorlink/internal/middleware"
	"mentorlink/internal/models"

	"github.com/gorilla/mux"
)

// Routes builds the HTTP surface. Literal message paths are registered
// before the {recipientId} and {messageId} patterns so they win the match.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.HandleHealth()).Methods(http.MethodGet)
	if s.MetricsEnabled && s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/ws", s.HandleWebSocket()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.Tokens.Authenticate)

	messages := api.PathPrefix("/messages").Subrouter()
	messages.HandleFunc("", s.HandleSendMessage()).Methods(http.MethodPost)
	messages.HandleFunc("/conversations", s.HandleListConversations()).Methods(http.MethodGet)
	messages.HandleFunc("/conversations/{recipientId}/archive", s.HandleArchiveConversation()).Methods(http.MethodPut)
	messages.HandleFunc("/unread-count", s.HandleUnreadCount()).Methods(http.MethodGet)
	messages.HandleFunc("/search", s.HandleSearchMessages()).Methods(http.MethodGet)
	messages.HandleFunc("/mark-read/{recipientId}", s.HandleMarkRead()).Methods(http.MethodPut)
	messages.HandleFunc("/{recipientId}", s.HandleGetThread()).Methods(http.MethodGet)
	messages.HandleFunc("/{messageId}", s.HandleDeleteMessage()).Methods(http.MethodDelete)

	requests := api.PathPrefix("/requests").Subrouter()
	requests.HandleFunc("", s.HandleIncomingRequests()).Methods(http.MethodGet)
	requests.HandleFunc("/my-requests", s.HandleOutgoingRequests()).Methods(http.MethodGet)
	requests.HandleFunc("/check-mentorship-status/{userId}", s.HandleMentorshipStatus()).Methods(http.MethodGet)
	requests.Handle("/{requestId}/accept", middleware.RequireRole(models.RoleMentor)(s.HandleAcceptRequest())).Methods(http.MethodPut)
	requests.Handle("/{requestId}/reject", middleware.RequireRole(models.RoleMentor)(s.HandleRejectRequest())).Methods(http.MethodPut)
	requests.HandleFunc("/{mentorId}", s.HandleSubmitRequest()).Methods(http.MethodPost)

	api.HandleFunc("/notifications", s.HandleListNotifications()).Methods(http.MethodGet)

	// CORS wraps the router itself so preflight requests, which match no
	// route, still get their headers.
	return middleware.CORSMiddleware(s.CORS)(s.countRequests(r))
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics != nil {
			s.Metrics.IncrementRequests()
		}
		next.ServeHTTP(w, r)
	})
}

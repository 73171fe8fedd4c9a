package handlers

import (
	"net/http"

	"mentorlink/internal/api"
	"mentorlink/internal/models"

	"github.com/gorilla/mux"
)

// HandleSubmitRequest handles POST /api/requests/{mentorId}
func (s *Server) HandleSubmitRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		var req api.SubmitMentorshipRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		request, err := s.Mentorship.Submit(ctx, studentID, mux.Vars(r)["mentorId"], req.Message)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, api.MentorshipRequestResponse{
			Message: "Mentorship request submitted successfully",
			Request: request,
		})
	}
}

// HandleAcceptRequest handles PUT /api/requests/{requestId}/accept
func (s *Server) HandleAcceptRequest() http.HandlerFunc {
	return s.transitionRequest(models.MentorshipAccepted)
}

// HandleRejectRequest handles PUT /api/requests/{requestId}/reject
func (s *Server) HandleRejectRequest() http.HandlerFunc {
	return s.transitionRequest(models.MentorshipRejected)
}

func (s *Server) transitionRequest(to models.MentorshipStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mentorID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		requestID := mux.Vars(r)["requestId"]
		var request *models.MentorshipRequest
		if to == models.MentorshipAccepted {
			request, err = s.Mentorship.Accept(ctx, mentorID, requestID)
		} else {
			request, err = s.Mentorship.Reject(ctx, mentorID, requestID)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, api.MentorshipRequestResponse{
			Message: "Request " + string(to),
			Request: request,
		})
	}
}

// HandleMentorshipStatus handles GET /api/requests/check-mentorship-status/{userId}
func (s *Server) HandleMentorshipStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		status, err := s.Mentorship.Status(ctx, accountID, mux.Vars(r)["userId"])
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// HandleIncomingRequests handles GET /api/requests?status= for the mentor.
func (s *Server) HandleIncomingRequests() http.HandlerFunc {
	return s.listRequests(true)
}

// HandleOutgoingRequests handles GET /api/requests/my-requests?status= for the student.
func (s *Server) HandleOutgoingRequests() http.HandlerFunc {
	return s.listRequests(false)
}

func (s *Server) listRequests(incoming bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := currentAccount(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		status := models.MentorshipStatus(r.URL.Query().Get("status"))
		var requests []*models.MentorshipRequest
		if incoming {
			requests, err = s.Mentorship.Incoming(ctx, accountID, status)
		} else {
			requests, err = s.Mentorship.Outgoing(ctx, accountID, status)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if requests == nil {
			requests = []*models.MentorshipRequest{}
		}
		writeJSON(w, http.StatusOK, api.MentorshipRequestsResponse{Requests: requests, Count: len(requests)})
	}
}

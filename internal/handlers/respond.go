package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"mentorlink/internal/api"
	"mentorlink/internal/middleware"
	"mentorlink/internal/utils"

	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps AppErrors to their status. Anything else is logged and
// reported as a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := utils.AsAppError(err)
	if !ok {
		appErr = utils.NewAppError(utils.ErrInternal, "Internal server error", err)
	}

	status := utils.AppErrorToHTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if s.Metrics != nil {
			s.Metrics.IncrementErrors(r.Method + " " + routeName(r))
		}
		if !ok || appErr.Code == utils.ErrDatabase {
			appErr = utils.NewAppError(utils.ErrInternal, "Internal server error", nil)
		}
	}
	writeJSON(w, status, api.ErrorResponse{Message: appErr.Message, Error: appErr.Code})
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return utils.NewValidationError("Invalid request body")
	}
	return nil
}

// currentAccount is set by the Authenticate middleware on every /api route.
func currentAccount(r *http.Request) (string, error) {
	id, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok || id == "" {
		return "", utils.NewUnauthorizedError("no account in request")
	}
	return id, nil
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, utils.NewValidationError(name + " must be a positive integer")
	}
	return n, nil
}

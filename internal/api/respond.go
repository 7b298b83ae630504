package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/soaringjerry/Pulse/internal/middleware"
	"github.com/soaringjerry/Pulse/internal/services"
	"github.com/soaringjerry/Pulse/internal/session"
	"github.com/soaringjerry/Pulse/internal/utils"
)

const maxBodyBytes = 1 << 20

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return services.NewInvalidError("request body required")
		}
		return services.NewInvalidError("invalid request body")
	}
	return nil
}

var statusByCode = map[services.ErrorCode]int{
	services.ErrorInvalid:      http.StatusBadRequest,
	services.ErrorUnauthorized: http.StatusUnauthorized,
	services.ErrorForbidden:    http.StatusForbidden,
	services.ErrorNotFound:     http.StatusNotFound,
	services.ErrorConflict:     http.StatusConflict,
	services.ErrorInternal:     http.StatusInternalServerError,
}

// writeError maps err to a status and a localized envelope. Internal
// details are logged, never returned.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: apiError{Code: string(services.ErrorUnauthorized), Message: utils.T(locale, "error.unauthorized")}})
		return
	case errors.Is(err, session.ErrUnknownSection):
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: apiError{Code: string(services.ErrorInvalid), Message: utils.T(locale, "error.unknown_section")}})
		return
	}

	se, ok := services.AsServiceError(err)
	if !ok {
		se = &services.ServiceError{Code: services.ErrorInternal}
	}
	status, ok := statusByCode[se.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	msg := se.Message
	if status >= http.StatusInternalServerError {
		rt.log.Error("request failed", "path", r.URL.Path, "error", err)
		msg = utils.T(locale, "error.internal")
	}
	if msg == "" {
		msg = utils.T(locale, "error."+string(se.Code))
	}
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: string(se.Code), Message: msg}})
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Dan9191/bank-rest/internal/service"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Status      int               `json:"status"`
	Error       string            `json:"error"`
	Message     string            `json:"message"`
	Timestamp   string            `json:"timestamp"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeValidation(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg := "failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		fields[fe.Field()] = msg
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Status:      http.StatusBadRequest,
		Error:       http.StatusText(http.StatusBadRequest),
		Message:     "validation failed",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		FieldErrors: fields,
	})
}

// writeError maps service errors to HTTP statuses. Unknown errors are
// logged and reported without detail.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrCardNotFound),
		errors.Is(err, service.ErrOwnerNotFound),
		errors.Is(err, service.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidOperation),
		errors.Is(err, service.ErrInsufficientFunds):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	default:
		h.log.Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

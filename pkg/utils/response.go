package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/zhouzirui/z-salon/backend/internal/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorBody{Message: message})
}

// RespondValidation sends a 400 with per-field detail.
func RespondValidation(w http.ResponseWriter, message string, fields map[string]string) {
	RespondJSON(w, http.StatusBadRequest, ErrorBody{Message: message, Errors: fields})
}

// ErrorBodyFor derives the status and body for err. Errors without a kind become a generic 500.
func ErrorBodyFor(err error) (int, ErrorBody) {
	status := apperr.HTTPStatus(err)

	var appErr *apperr.Error
	if !errors.As(err, &appErr) || status == http.StatusInternalServerError {
		return http.StatusInternalServerError, ErrorBody{Message: "internal server error"}
	}
	return status, ErrorBody{Message: appErr.Message, Errors: appErr.Fields}
}

// RespondAppError maps err to a status and body.
func RespondAppError(w http.ResponseWriter, err error) {
	status, body := ErrorBodyFor(err)
	RespondJSON(w, status, body)
}

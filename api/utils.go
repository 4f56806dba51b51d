package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"timeline/core"
)

// ErrorDetail is the machine-readable part of an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse is the structured error body sent for every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// respondJSON writes a JSON response with the given status code.
func (a *API) respondJSON(w http.ResponseWriter, payload interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Errorw("Failed to encode response", "error", err)
	}
}

// writeAPIError logs the full error and sends the structured error body. The
// details field is truncated so upstream error bodies cannot balloon the
// response.
func writeAPIError(w http.ResponseWriter, statusCode int, code, message string, err error, logger *zap.SugaredLogger) {
	details := ""
	if err != nil {
		details = err.Error()
		logger.Errorw(message,
			"code", code,
			"error", err.Error(),
			"status_code", statusCode)
	} else {
		logger.Errorw(message,
			"code", code,
			"status_code", statusCode)
	}
	if len(details) > core.MaxErrorDetailLength {
		details = details[:core.MaxErrorDetailLength-3] + "..."
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// errorResponse is the wire shape for every error the API returns.
type errorResponse struct {
	Error   bool                   `json:"error"`
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteHTTP maps an error onto an HTTP response. Unknown errors are reported
// as internal without leaking their message to the caller.
func WriteHTTP(w http.ResponseWriter, logger *zap.Logger, err error) {
	appErr := GetAppError(err)
	if appErr == nil {
		if logger != nil {
			logger.Error("unhandled error", zap.Error(err))
		}
		appErr = NewInternalError("internal server error")
	} else if appErr.Type == ErrorTypeInternal || appErr.Type == ErrorTypeDatabase {
		if logger != nil {
			logger.Error("request failed", zap.String("type", string(appErr.Type)), zap.Error(err))
		}
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   true,
		Type:    appErr.Type,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

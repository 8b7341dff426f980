package handler

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "amendvote-be/pkg/errors"
	"amendvote-be/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError maps any error to the structured error envelope. Unclassified
// errors are treated as storage failures.
func respondError(w http.ResponseWriter, log *logger.Logger, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		appErr = apperrors.NewStorageError("Internal server error", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(appErr).Error("request failed")
	} else {
		log.WithError(appErr).Debug("request rejected")
	}

	response := &apperrors.ErrorResponse{}
	response.Error.Code = appErr.Code
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, response)
}

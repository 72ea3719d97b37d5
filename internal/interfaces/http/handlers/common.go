// Package handlers implements the API server's HTTP endpoints.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/CivicPulse/pkg/errors"
	"github.com/turtacn/CivicPulse/pkg/types/common"
)

// writeJSON writes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeData wraps data in the success envelope.
func writeData[T any](w http.ResponseWriter, r *http.Request, statusCode int, data T) {
	writeJSON(w, statusCode, common.APIResponse[T]{
		Success:   true,
		Data:      data,
		RequestID: chimw.GetReqID(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

// writeError writes the error envelope.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	writeJSON(w, statusCode, common.APIResponse[any]{
		Error:     &common.ErrorDetail{Code: code, Message: message},
		RequestID: chimw.GetReqID(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

// writeAppError maps application errors to HTTP status codes. Errors without
// a known code are masked.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, r, status, errors.ErrCodeInternal.String(), "internal server error")
		return
	}
	writeError(w, r, status, errors.GetCode(err).String(), err.Error())
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeDocumentNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidParam, errors.ErrCodeValidation, errors.ErrCodeInvalidParameters,
		errors.ErrCodeUnsupportedFormat:
		return http.StatusBadRequest
	case errors.ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeEmptyDataset, errors.ErrCodeMissingCoordinates, errors.ErrCodeMalformedInput,
		errors.ErrCodeMissingColumn:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeServiceUnavail, errors.ErrCodeSourceUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTimeout, errors.ErrCodeCanceled:
		return http.StatusGatewayTimeout
	case errors.ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

//Personal.AI order the ending

package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// Response is the JSON envelope for every API answer.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Details   any               `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// DetailedError is implemented by errors that carry structured details for
// the client, such as a purchase shortfall.
type DetailedError interface {
	error
	ErrorCode() string
	HTTPStatus() int
	ErrorDetails() any
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData wraps data in the envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Response{Data: data})
}

// WriteError maps err to a status and envelope. Unknown errors become a
// generic 500 and are logged with the request-scoped logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var detailed DetailedError
	if errors.As(err, &detailed) {
		WriteJSON(w, detailed.HTTPStatus(), Response{Error: &ErrorResponse{
			Code:      detailed.ErrorCode(),
			Message:   detailed.Error(),
			Details:   detailed.ErrorDetails(),
			RequestID: requestID,
		}})
		return
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logError(r, err, fallback)
		}
		WriteJSON(w, appErr.Status, Response{Error: &ErrorResponse{
			Code:      appErr.Code,
			Message:   appErr.Message,
			RequestID: requestID,
		}})
		return
	}

	status := apperrors.HTTPStatus(err)
	internal := apperrors.Internal(err)
	resp := &ErrorResponse{Code: internal.Code, Message: internal.Message, RequestID: requestID}
	switch status {
	case http.StatusNotFound:
		resp.Code, resp.Message = "NOT_FOUND", "resource not found"
	case http.StatusConflict:
		resp.Code, resp.Message = "CONFLICT", err.Error()
	case http.StatusBadRequest:
		resp.Code, resp.Message = "INVALID_INPUT", err.Error()
	default:
		status = http.StatusInternalServerError
		logError(r, err, fallback)
	}
	WriteJSON(w, status, Response{Error: resp})
}

func logError(r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	l.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// WriteValidationError answers 400 for a decoding or validation failure.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := logger.CorrelationIDFromContext(r.Context())
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}
	WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
		Code:      "INVALID_INPUT",
		Message:   err.Error(),
		RequestID: requestID,
	}})
}

func writeValidation(w http.ResponseWriter, valErr *validator.ValidationError, requestID string) {
	WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
		Code:      "VALIDATION_ERROR",
		Message:   "request validation failed",
		Fields:    valErr.Fields(),
		RequestID: requestID,
	}})
}

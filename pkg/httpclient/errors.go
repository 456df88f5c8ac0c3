package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// errorBody accepts the error shapes returned by upstream services:
// {"error":{"code":..,"message":..}}, {"error":".."} and {"message":".."}.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

func (b errorBody) codeAndMessage() (string, string) {
	if len(b.Error) > 0 {
		var nested struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(b.Error, &nested) == nil && (nested.Code != "" || nested.Message != "") {
			return nested.Code, nested.Message
		}
		var flat string
		if json.Unmarshal(b.Error, &flat) == nil && flat != "" {
			return "", flat
		}
	}
	return "", b.Message
}

// ParseResponseError consumes and closes a non-2xx response body and maps it to
// an AppError carrying the upstream message.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned %d (unreadable body: %w)", service, resp.StatusCode, err)
	}

	var body errorBody
	code, message := "", ""
	if json.Unmarshal(raw, &body) == nil {
		code, message = body.codeAndMessage()
	}
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return MapStatus(resp.StatusCode, code, fmt.Sprintf("%s: %s", service, message))
}

// MapStatus converts an upstream status into the matching AppError.
func MapStatus(status int, code, message string) error {
	switch {
	case status == http.StatusNotFound:
		return apperrors.New(status, "NOT_FOUND", message, apperrors.ErrNotFound)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(message)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(message)
	case status == http.StatusConflict:
		return apperrors.Conflict(message)
	case status == http.StatusUnprocessableEntity:
		if code == "" {
			code = "UNPROCESSABLE"
		}
		return apperrors.Unprocessable(code, message)
	case status == http.StatusTooManyRequests:
		return apperrors.TooManyRequests(message)
	case status >= http.StatusInternalServerError:
		return apperrors.ServiceUnavailable(message)
	default:
		if code == "" {
			code = "UPSTREAM_ERROR"
		}
		return apperrors.New(status, code, message, nil)
	}
}

// AsServiceUnavailable maps transport failures, open breakers and 5xx errors to
// a 503 AppError. Other errors are returned unchanged.
func AsServiceUnavailable(err error, service string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	msg := service + " is unreachable"
	var srvErr *ServerError
	if errors.As(err, &srvErr) || errors.Is(err, ErrCircuitOpen) {
		msg = service + " is unavailable"
	}
	return apperrors.New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", msg,
		errors.Join(apperrors.ErrServiceUnavail, err))
}

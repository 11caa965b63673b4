package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"bankdash/internal/i18n"
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	// Message is the body's "message" field, else its "error" field.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

// NetworkError means no response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "api: network: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool { return StatusCode(err) == http.StatusUnauthorized }

func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }

// ShouldNotify reports whether err deserves a user-visible notification.
// A 401 is handled by sending the user to the login screen instead, and a
// cancelled call was abandoned on purpose.
func ShouldNotify(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return !IsUnauthorized(err)
}

var catalog = sync.OnceValue(i18n.MustLoad)

// ErrorMessage renders err for people, in English.
func ErrorMessage(err error) string {
	return LocalizedErrorMessage(err, i18n.Default)
}

// LocalizedErrorMessage prefers the message the server sent, then a
// status-keyed fallback, then the connectivity message for network failures.
func LocalizedErrorMessage(err error, lang string) string {
	if err == nil {
		return ""
	}
	t := catalog()

	var se *StatusError
	if errors.As(err, &se) {
		if se.Message != "" {
			return se.Message
		}
		switch se.StatusCode {
		case http.StatusBadRequest:
			return t.T(lang, "errors.badRequest")
		case http.StatusUnauthorized:
			return t.T(lang, "errors.unauthorized")
		case http.StatusForbidden:
			return t.T(lang, "errors.forbidden")
		case http.StatusNotFound:
			return t.T(lang, "errors.notFound")
		case http.StatusInternalServerError:
			return t.T(lang, "errors.serverError")
		case http.StatusTooManyRequests:
			return t.T(lang, "errors.tooManyRequests")
		default:
			return t.T(lang, "errors.requestFailed", "status", se.StatusCode)
		}
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		return t.T(lang, "errors.networkError")
	}
	// Anything else is a wrapped internal error; it is logged, not shown.
	return t.T(lang, "errors.unexpectedError")
}

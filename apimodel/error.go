package apimodel

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
)

type ErrorMessage struct {
	ErrStatusCode int    `json:"status_code"`
	ErrMessage    string `json:"message"`
}

// NewErrorMessage builds the reply for status; an empty message is replaced
// by the status default.
func NewErrorMessage(status int, message string) ErrorMessage {
	if message == "" {
		switch status {
		case http.StatusOK:
			message = "Ok"
		case http.StatusNotFound:
			message = "Page not found"
		case http.StatusMethodNotAllowed:
			message = "Method not allowed"
		case http.StatusForbidden:
			message = "Forbidden"
		case http.StatusServiceUnavailable:
			message = "Service unavailable"
		case http.StatusBadRequest:
			message = "Bad request"
		default:
			message = "Internal error"
		}
	}
	return ErrorMessage{ErrStatusCode: status, ErrMessage: message}
}

func (e *ErrorMessage) StatusCode() int {
	return e.ErrStatusCode
}

func (e *ErrorMessage) Error() string {
	return strconv.Itoa(e.ErrStatusCode) + ":" + e.ErrMessage
}

func (e ErrorMessage) Send(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.ErrStatusCode)
	if err := json.NewEncoder(w).Encode(e); err != nil {
		logrus.Warnf("Unable to encode error message: %v", err)
	}
}

var (
	UnknownEventErrorMessage = ErrorMessage{
		ErrStatusCode: http.StatusBadRequest,
		ErrMessage:    "unknown event or invalid intensity",
	}
	UnknownScreenErrorMessage = ErrorMessage{
		ErrStatusCode: http.StatusBadRequest,
		ErrMessage:    "unknown screen",
	}
	QueueFullErrorMessage = ErrorMessage{
		ErrStatusCode: http.StatusServiceUnavailable,
		ErrMessage:    "event queue full, refresh forced",
	}
)

// Package response builds the JSON bodies returned by HTTP handlers.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response is the common JSON envelope. Successful push requests answer
// with {"status":"ok"}.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

func OK() Response {
	return Response{Status: StatusOK}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ErrorWithDetail adds the upstream failure description to an error.
func ErrorWithDetail(msg, detail string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
		Detail: detail,
	}
}

// ValidationError joins every violated rule into one message.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

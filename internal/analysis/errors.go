package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cvmatch-console/internal/selection"
)

var (
	ErrMissingInput     = errors.New("missing input")
	ErrTransport        = errors.New("transport error")
	ErrProtocol         = errors.New("protocol error")
	ErrStreamIncomplete = errors.New("stream ended before results were delivered")
)

const (
	ErrorCodeValidation       = "validation_error"
	ErrorCodeMissingInput     = "missing_input"
	ErrorCodeTransport        = "transport_error"
	ErrorCodeProtocol         = "protocol_error"
	ErrorCodeStreamIncomplete = "stream_incomplete"
	ErrorCodeCanceled         = "canceled"
	ErrorCodeInternal         = "internal_error"
)

const (
	MissingJobDescriptionMessage = "Please upload a job description file"
	MissingCVsMessage            = "Please upload at least one CV"
)

// TransportError reports a failed request or a non-2xx response.
// StatusCode is 0 when no response was received.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("analysis endpoint returned %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("analysis endpoint returned %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("analysis request failed: %v", e.Err)
	default:
		return "analysis request failed"
	}
}

func (e *TransportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTransport, e.Err}
	}
	return []error{ErrTransport}
}

// Code maps an error to its stable code, used in API responses and metric labels.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeCanceled
	case errors.Is(err, selection.ErrValidation):
		return ErrorCodeValidation
	case errors.Is(err, ErrMissingInput):
		return ErrorCodeMissingInput
	case errors.Is(err, ErrTransport):
		return ErrorCodeTransport
	case errors.Is(err, ErrProtocol):
		return ErrorCodeProtocol
	case errors.Is(err, ErrStreamIncomplete):
		return ErrorCodeStreamIncomplete
	default:
		return ErrorCodeInternal
	}
}

// UserMessage returns the text shown to the user for err.
func UserMessage(err error) string {
	var terr *TransportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Analysis canceled"
	case errors.As(err, &terr) && terr.Message != "":
		return terr.Message
	case errors.Is(err, ErrMissingInput):
		return strings.TrimPrefix(err.Error(), ErrMissingInput.Error()+": ")
	case errors.Is(err, selection.ErrValidation):
		return strings.TrimPrefix(err.Error(), selection.ErrValidation.Error()+": ")
	default:
		return err.Error()
	}
}

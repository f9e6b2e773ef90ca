package newsapi

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	// KindNetworkUnreachable covers every failure where no response arrived:
	// refused connections, timeouts, an open circuit breaker.
	KindNetworkUnreachable ErrorKind = iota
	KindServerError
	KindClientError
	KindRequestSetup
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetworkUnreachable:
		return "network_unreachable"
	case KindServerError:
		return "server_error"
	case KindClientError:
		return "client_error"
	case KindRequestSetup:
		return "request_setup"
	default:
		return "unknown"
	}
}

const (
	MsgNotFound     = "The requested resource was not found. Please try again later."
	MsgForbidden    = "You do not have permission to access this resource."
	MsgServerError  = "The server encountered an error. Please try again later."
	MsgUnexpected   = "An unexpected error occurred."
	MsgConnectivity = "Unable to connect to the news server. Please check your internet connection and try again."
	MsgRequestSetup = "Failed to send request. Please try again later."
)

// APIError is a classified backend failure with a message ready for display.
type APIError struct {
	Kind          ErrorKind
	StatusCode    int    // 0 when no response arrived
	ServerMessage string // "message" field of the error body, if any
	UserMessage   string
	Err           error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("news api %s: status %d", e.Kind, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("news api %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("news api %s", e.Kind)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsClientError reports a 4xx response.
func (e *APIError) IsClientError() bool {
	return e.Kind == KindClientError
}

func newStatusError(status int, serverMessage string) *APIError {
	kind := KindClientError
	if status >= http.StatusInternalServerError {
		kind = KindServerError
	}
	return &APIError{
		Kind:          kind,
		StatusCode:    status,
		ServerMessage: serverMessage,
		UserMessage:   FriendlyMessage(status, serverMessage),
	}
}

func newTransportError(err error) *APIError {
	return &APIError{
		Kind:        KindNetworkUnreachable,
		UserMessage: MsgConnectivity,
		Err:         err,
	}
}

func newSetupError(err error) *APIError {
	return &APIError{
		Kind:        KindRequestSetup,
		UserMessage: MsgRequestSetup,
		Err:         err,
	}
}

// FriendlyMessage maps a response status to the text shown to readers.
func FriendlyMessage(status int, serverMessage string) string {
	switch {
	case status == http.StatusNotFound:
		return MsgNotFound
	case status == http.StatusForbidden:
		return MsgForbidden
	case status >= http.StatusInternalServerError:
		return MsgServerError
	case serverMessage != "":
		return serverMessage
	default:
		return MsgUnexpected
	}
}

// UserMessage extracts the friendly message from anywhere in err's chain,
// falling back to a generic text for unclassified errors.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.UserMessage != "" {
		return apiErr.UserMessage
	}
	return MsgUnexpected
}

package relay

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to every relay error.
const (
	ErrorConfiguration  = "RELAY_CONFIGURATION"
	ErrorValidation     = "RELAY_VALIDATION"
	ErrorAuthentication = "RELAY_AUTHENTICATION"
	ErrorUpstream       = "RELAY_UPSTREAM"
	ErrorTransport      = "RELAY_TRANSPORT"
	ErrorInternal       = "RELAY_INTERNAL"
)

// Kind classifies a relay failure.
type Kind string

const (
	KindNone           Kind = ""
	KindConfiguration  Kind = "configuration"
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindUpstream       Kind = "upstream"
	KindTransport      Kind = "transport"
	KindInternal       Kind = "internal"
)

func relayError(message string, category goerrors.Category, code int, textCode string, metadata map[string]any) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func relayWrapError(source error, category goerrors.Category, message string, code int, textCode string, metadata map[string]any) error {
	if source == nil {
		return relayError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// ConfigurationError reports that values required by an operation are missing.
func ConfigurationError(message string, missing ...string) error {
	var metadata map[string]any
	if len(missing) > 0 {
		metadata = map[string]any{"missing": append([]string(nil), missing...)}
	}
	return relayError(message, goerrors.CategoryInternal, http.StatusInternalServerError, ErrorConfiguration, metadata)
}

// ValidationError reports a malformed or insufficient request payload.
func ValidationError(message string) error {
	return relayError(message, goerrors.CategoryValidation, http.StatusBadRequest, ErrorValidation, nil)
}

// AuthenticationError reports a rejected webhook signature.
func AuthenticationError(message string) error {
	return relayError(message, goerrors.CategoryAuth, http.StatusUnauthorized, ErrorAuthentication, nil)
}

// UpstreamError reports a non-success status from the helpdesk or chat API.
// responseCode is the status returned to our own caller.
func UpstreamError(message string, upstreamStatus, responseCode int) error {
	return relayError(message, goerrors.CategoryExternal, responseCode, ErrorUpstream, map[string]any{
		"status_code": upstreamStatus,
	})
}

// TransportError reports a network failure or timeout talking to an upstream.
func TransportError(source error, message string) error {
	return relayWrapError(source, goerrors.CategoryExternal, message, http.StatusInternalServerError, ErrorTransport, nil)
}

// KindOf classifies err. Errors not produced by this package are internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return KindInternal
	}
	switch strings.TrimSpace(rich.TextCode) {
	case ErrorConfiguration:
		return KindConfiguration
	case ErrorValidation:
		return KindValidation
	case ErrorAuthentication:
		return KindAuthentication
	case ErrorUpstream:
		return KindUpstream
	case ErrorTransport:
		return KindTransport
	default:
		return KindInternal
	}
}

// HTTPStatus returns the response code for err.
func HTTPStatus(err error) int {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code > 0 {
		return rich.Code
	}
	return http.StatusInternalServerError
}

// Message returns the caller-facing text of err.
func Message(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && strings.TrimSpace(rich.Message) != "" {
		return rich.Message
	}
	return "internal error"
}

// UpstreamStatus returns the upstream HTTP status carried by an UpstreamError.
func UpstreamStatus(err error) (int, bool) {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Metadata == nil {
		return 0, false
	}
	status, ok := rich.Metadata["status_code"].(int)
	return status, ok && status > 0
}

// Missing returns the configuration keys carried by a ConfigurationError.
func Missing(err error) []string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Metadata == nil {
		return nil
	}
	missing, _ := rich.Metadata["missing"].([]string)
	return missing
}

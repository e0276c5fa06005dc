package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bnema/addonctl/internal/addons"
)

// HTTPError is the JSON error body returned by every endpoint
type HTTPError struct {
	Code     int    `json:"-"`
	Type     string `json:"type"`
	Message  string `json:"message"`
	Internal error  `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Internal
}

func badRequest(message string) *HTTPError {
	return &HTTPError{Code: http.StatusBadRequest, Type: "bad_request", Message: message}
}

// fromDomain maps addons errors to an HTTP error. Upstream messages are
// forwarded since they come from the platform, not from us.
func fromDomain(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var upstream *addons.UpstreamError
	switch {
	case errors.As(err, &upstream):
		code := http.StatusBadGateway
		if upstream.IsAuth() {
			code = http.StatusUnauthorized
		}
		return &HTTPError{Code: code, Type: "upstream", Message: upstream.Message, Internal: err}
	case errors.Is(err, addons.ErrValidation):
		return &HTTPError{Code: http.StatusUnprocessableEntity, Type: "validation", Message: err.Error()}
	case errors.Is(err, addons.ErrUpstream):
		return &HTTPError{Code: http.StatusBadGateway, Type: "upstream", Message: "The platform returned an invalid response", Internal: err}
	case errors.Is(err, addons.ErrNetwork):
		return &HTTPError{Code: http.StatusBadGateway, Type: "network", Message: "The upstream service could not be reached", Internal: err}
	default:
		return &HTTPError{Code: http.StatusInternalServerError, Type: "internal", Message: "An unexpected error occurred", Internal: err}
	}
}

// errorHandler writes HTTPError, echo.HTTPError and domain errors as JSON
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var body *HTTPError
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		body = &HTTPError{Code: echoErr.Code, Type: typeForStatus(echoErr.Code), Message: http.StatusText(echoErr.Code)}
		if msg, ok := echoErr.Message.(string); ok && msg != "" {
			body.Message = msg
		}
	} else {
		body = fromDomain(err)
	}

	if body.Internal != nil || body.Code >= 500 {
		s.log.Error("Request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"type", body.Type,
			"error", err,
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(body.Code)
		return
	}
	_ = c.JSON(body.Code, map[string]*HTTPError{"error": body})
}

func typeForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusUnauthorized:
		return "unauthorized"
	default:
		if code >= 500 {
			return "internal"
		}
		return "error"
	}
}

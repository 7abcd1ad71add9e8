package errs

import (
	"net/http"
)

// MethodNotAllowedMessage is the body text for any verb a route does not accept.
const MethodNotAllowedMessage = "Método no permitido"

func codeFor(status int) string {
	return MakeUpperCaseWithUnderscores(http.StatusText(status))
}

// NewMethodNotAllowedError creates the 405 returned for unsupported verbs.
func NewMethodNotAllowedError() *HTTPError {
	return &HTTPError{
		Code:    codeFor(http.StatusMethodNotAllowed),
		Message: MethodNotAllowedMessage,
		Status:  http.StatusMethodNotAllowed,
	}
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string) *HTTPError {
	return &HTTPError{
		Code:    codeFor(http.StatusNotFound),
		Message: message,
		Status:  http.StatusNotFound,
	}
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
func NewBadRequestError(message string) *HTTPError {
	return &HTTPError{
		Code:    codeFor(http.StatusBadRequest),
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewInternalServerError creates a generic 500 that carries no backend detail.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:    codeFor(http.StatusInternalServerError),
		Message: http.StatusText(http.StatusInternalServerError),
		Status:  http.StatusInternalServerError,
	}
}

// NewBackendError wraps a database/driver failure into a 500 whose message is
// the raw error text.
//
// Leaking backend text is only acceptable on a trusted network; Override is
// set so the error handler can swap in the generic text when redaction is on.
func NewBackendError(err error) *HTTPError {
	message := http.StatusText(http.StatusInternalServerError)
	if err != nil {
		message = err.Error()
	}
	return &HTTPError{
		Code:     codeFor(http.StatusInternalServerError),
		Message:  message,
		Status:   http.StatusInternalServerError,
		Override: true,
		Err:      err,
	}
}

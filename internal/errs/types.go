package errs

import "strings"

// HTTPError is the main custom error type for API responses.
//
// Fields:
//   - Code: machine-friendly code (e.g. "METHOD_NOT_ALLOWED"), logged, never sent.
//   - Message: text sent to the client in the "error" key.
//   - Status: HTTP status code.
//   - Override: the message carries backend detail and may be replaced
//     when error redaction is enabled.
//   - Err: the underlying error, kept for logging and errors.As.
type HTTPError struct {
	Code     string
	Message  string
	Status   int
	Override bool
	Err      error
}

// Response is the JSON body written for any error.
type Response struct {
	Error string `json:"error"`
}

// Error makes *HTTPError satisfy the built-in `error` interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying error to errors.Is / errors.As.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Is reports whether target is also an *HTTPError. It does not compare fields.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:     e.Code,
		Message:  message,
		Status:   e.Status,
		Override: e.Override,
		Err:      e.Err,
	}
}

// Body returns the client-facing representation.
func (e *HTTPError) Body() Response {
	return Response{Error: e.Message}
}

// MakeUpperCaseWithUnderscores converts "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}

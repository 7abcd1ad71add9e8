// Package errs defines the HTTP error type used across the API.
//
// Every error that reaches a client has the same shape:
//
//	{"error": "<message>"}
//
// The status code carries the rest, so clients can tell a failed request
// from a report (a JSON array) by status and by object-vs-array body.
package errs

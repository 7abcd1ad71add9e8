// Package handler is the first layer. The first entry point
// for business logic after the router.
//
// It binds query parameters through the validation package, calls
// the service layer, and writes JSON. Errors are returned untouched
// to the global error handler.
package handler

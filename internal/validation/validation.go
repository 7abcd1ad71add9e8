// Package validation contains the logic for binding and validating
// request data.
//
// Query-string requests bind themselves through QueryBinder so a missing
// parameter can be told apart from a present one. Filter values are opaque,
// so requests validate themselves and their error text is sent as is.
package validation

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/deppfellow/cohorts-heatmap/internal/errs"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request payload types that know how to validate themselves.
type Validatable interface {
	Validate() error
}

// QueryBinder is implemented by requests that read their own query string.
// Echo's Bind cannot distinguish an absent parameter from an empty one.
type QueryBinder interface {
	BindQuery(q url.Values) error
}

// BindAndValidate binds request data into payload and validates it.
//
// Payloads implementing QueryBinder receive the raw query values; anything
// else goes through c.Bind. Failures are returned as 400 HTTPErrors.
func BindAndValidate(c echo.Context, payload Validatable) error {
	var bindErr error
	if binder, ok := payload.(QueryBinder); ok {
		bindErr = binder.BindQuery(c.QueryParams())
	} else {
		bindErr = c.Bind(payload)
	}
	if bindErr != nil {
		return errs.NewBadRequestError(bindMessage(bindErr))
	}

	if err := payload.Validate(); err != nil {
		return errs.NewBadRequestError(err.Error())
	}

	return nil
}

func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}

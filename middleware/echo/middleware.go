package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	queryfilter "github.com/reoring/queryfilter"
	"github.com/reoring/queryfilter/middleware"
)

// ValidateQuery validates the request query via schema s, stores the State in
// context on success, or returns 400 with the error payload when validation
// fails. Endpoints that prefer falling back to the unfiltered view should use
// the net/http middleware with echo.WrapMiddleware instead.
func ValidateQuery(s queryfilter.Schema, opt queryfilter.Opt) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := queryfilter.Validate(c.Request().Context(), s, c.Request().URL.Query(), opt)
			if !st.Valid() {
				return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(st))
			}
			ctx := middleware.ContextWithState(c.Request().Context(), st)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetState fetches the validated State from echo.Context.
func GetState(c echo.Context) (queryfilter.State, bool) {
	return middleware.StateFromContext(c.Request().Context())
}

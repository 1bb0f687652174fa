package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	queryfilter "github.com/reoring/queryfilter"
	"github.com/reoring/queryfilter/middleware"
)

// ValidateQuery validates the request query using schema s with opt, stores
// the State in the request context, and on validation failure returns 400
// with the error payload.
func ValidateQuery(s queryfilter.Schema, opt queryfilter.Opt) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := queryfilter.Validate(c.Request.Context(), s, c.Request.URL.Query(), opt)
		if !st.Valid() {
			c.JSON(http.StatusBadRequest, middleware.ErrorPayload(st))
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithState(c.Request.Context(), st))
		c.Next()
	}
}

// GetState fetches the validated State from gin.Context.
func GetState(c *gin.Context) (queryfilter.State, bool) {
	return middleware.StateFromContext(c.Request.Context())
}

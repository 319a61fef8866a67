package ginmw

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dcook-net/json-everything/jsonschema"
	"github.com/dcook-net/json-everything/middleware"
)

// ValidateJSON evaluates the request body against s with opt (or
// DefaultEvaluateOpt when zero value), stores a Validated in the request
// context, and on validation failure aborts with 400 and the flattened
// errors. Evaluation aborts from server-side misuse map to 500.
func ValidateJSON(s *jsonschema.Schema, opt jsonschema.EvaluateOpt) gin.HandlerFunc {
	// merge defaults if caller passed zero
	if opt == (jsonschema.EvaluateOpt{}) {
		opt = middleware.DefaultEvaluateOpt()
	}
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		doc, err := jsonschema.DecodeValue(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		res, err := s.Evaluate(c.Request.Context(), doc, opt)
		if err != nil {
			status := http.StatusInternalServerError
			if _, ok := jsonschema.AsDepthError(err); ok {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		if !res.Valid() {
			c.JSON(http.StatusBadRequest, middleware.ErrorPayload(res))
			c.Abort()
			return
		}
		// store the decoded body and its result in the request context
		c.Request = c.Request.WithContext(middleware.ContextWithValidated(c.Request.Context(), middleware.Validated{Document: doc, Result: res}))
		c.Next()
	}
}

// GetValidated fetches the Validated stored by ValidateJSON from gin.Context.
func GetValidated(c *gin.Context) (middleware.Validated, bool) {
	return middleware.ValidatedFromContext(c.Request.Context())
}

package echomw

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dcook-net/json-everything/jsonschema"
	"github.com/dcook-net/json-everything/middleware"
)

// ValidateJSON evaluates the request body against s, stores a Validated in
// the request context on success, or returns 400 with the flattened errors
// when the body is malformed or fails validation. Evaluation aborts
// (dialect misuse, depth limit) map to 500; they are server-side problems.
func ValidateJSON(s *jsonschema.Schema, opt jsonschema.EvaluateOpt) echo.MiddlewareFunc {
	if opt == (jsonschema.EvaluateOpt{}) {
		opt = middleware.DefaultEvaluateOpt()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
			}
			doc, err := jsonschema.DecodeValue(body)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
			}
			res, err := s.Evaluate(c.Request().Context(), doc, opt)
			if err != nil {
				if _, ok := jsonschema.AsDepthError(err); ok {
					return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
				}
				return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
			}
			if !res.Valid() {
				return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(res))
			}
			ctx := middleware.ContextWithValidated(c.Request().Context(), middleware.Validated{Document: doc, Result: res})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetValidated fetches the Validated stored by ValidateJSON from echo.Context.
func GetValidated(c echo.Context) (middleware.Validated, bool) {
	return middleware.ValidatedFromContext(c.Request().Context())
}

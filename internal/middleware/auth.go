package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sharthi/stall-marketplace/internal/auth"
	"github.com/sirupsen/logrus"
)

const callerIDKey = "caller_id"

// Resolver validates the Authorization header value.
type Resolver interface {
	Resolve(header string) (*auth.Claims, error)
}

// Auth rejects requests without a valid bearer token and stores the caller id
// on the echo context.
func Auth(resolver Resolver, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := resolver.Resolve(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"method": c.Request().Method,
					"path":   c.Path(),
				}).Debug("authentication failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
			}
			c.Set(callerIDKey, claims.ID)
			return next(c)
		}
	}
}

// CallerID returns the authenticated caller, or "" outside Auth.
func CallerID(c echo.Context) string {
	id, _ := c.Get(callerIDKey).(string)
	return id
}

// SetCallerID is used by handler tests to act as a signed-in caller.
func SetCallerID(c echo.Context, id string) {
	c.Set(callerIDKey, id)
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ErrorHandler renders every error as {"message": ...}. Anything that is not
// an *echo.HTTPError is an internal error and its text is not exposed.
func ErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(http.StatusInternalServerError)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		} else {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).Error("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, map[string]string{"message": msg})
	}
}

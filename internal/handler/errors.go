package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// NotFound answers any path the API does not serve, including missing
// lodgings and users.
func NotFound(c echo.Context) error {
    return c.JSON(http.StatusNotFound, map[string]string{
        "err": "Path " + c.Request().RequestURI + " does not exist",
    })
}

// ErrorHandler routes echo's 404 and 405 errors to NotFound and leaves
// everything else to echo's default handler.
func ErrorHandler(e *echo.Echo, logger *logrus.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        var he *echo.HTTPError
        if !errors.As(err, &he) {
            logger.WithError(err).Error("unhandled error")
            e.DefaultHTTPErrorHandler(err, c)
            return
        }
        if he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed {
            if werr := NotFound(c); werr != nil {
                logger.WithError(werr).Warn("write not found response")
            }
            return
        }
        e.DefaultHTTPErrorHandler(err, c)
    }
}

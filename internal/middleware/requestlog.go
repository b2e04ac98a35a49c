package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// RequestLogger writes one logrus entry per request.  It expects echo's
// RequestID middleware to run first so the id is on the response header.
func RequestLogger(logger *logrus.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let echo's error handler write the response before we read the status
                c.Error(err)
            }

            req := c.Request()
            res := c.Response()
            entry := logger.WithFields(logrus.Fields{
                "method":     req.Method,
                "uri":        req.RequestURI,
                "status":     res.Status,
                "latency_ms": time.Since(start).Milliseconds(),
                "bytes_out":  res.Size,
                "remote_ip":  c.RealIP(),
                "request_id": res.Header().Get(echo.HeaderXRequestID),
            })
            switch {
            case res.Status >= 500:
                entry.Error("request")
            case res.Status >= 400:
                entry.Warn("request")
            default:
                entry.Info("request")
            }
            return nil
        }
    }
}

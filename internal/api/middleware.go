// middleware.go - Common Echo middleware
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// MiddlewareOptions selects and tunes the middleware chain
type MiddlewareOptions struct {
	Logger            *zap.Logger
	ShowErrorDetails  bool
	RequestLogging    bool
	RequestTimeout    time.Duration
	EnableCompression bool
	CompressionLevel  int
	BodyLimit         string
	EnableCORS        bool
	AllowOrigins      []string
}

// devOrigins are the front-end dev servers allowed when no origins are configured
var devOrigins = []string{
	"http://localhost:5173", "http://127.0.0.1:5173",
	"http://localhost:3000", "http://127.0.0.1:3000",
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Use custom error handler
	e.HTTPErrorHandler = NewErrorHandler(logger, opts.ShowErrorDetails)

	// Request logging
	if opts.RequestLogging {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper:    isStreamingRequest,
			LogMethod:  true,
			LogURI:     true,
			LogStatus:  true,
			LogLatency: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				logger.Info("request",
					zap.String("method", v.Method),
					zap.String("uri", v.URI),
					zap.Int("status", v.Status),
					zap.Duration("latency", v.Latency))
				return nil
			},
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
	}))

	if opts.RequestTimeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout:      opts.RequestTimeout,
			Skipper:      isStreamingRequest,
			ErrorMessage: "Request timeout",
		}))
	}

	// Compression middleware
	if opts.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level:   opts.CompressionLevel,
			Skipper: isStreamingRequest,
		}))
	}

	// Body limit middleware
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	// CORS configuration
	if opts.EnableCORS {
		origins := opts.AllowOrigins
		if len(origins) == 0 {
			origins = devOrigins
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}

// isStreamingRequest matches SSE and WebSocket endpoints, which must not be
// buffered, compressed or cut off.
func isStreamingRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	return strings.HasSuffix(path, "/progress") ||
		strings.HasPrefix(path, "/api/ws/") ||
		c.Request().Header.Get("Accept") == "text/event-stream"
}

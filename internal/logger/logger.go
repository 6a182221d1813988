package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the global logger instance. It is a no-op logger until Initialize
// is called so packages and tests can log without setup.
var Log = zap.NewNop()

// RequestIDKey is the echo.Context key holding the request id.
const RequestIDKey = "request_id"

// HeaderRequestID is read from and echoed back on every response.
const HeaderRequestID = "X-Request-ID"

type ctxKey struct{}

// Initialize sets up the logger for the given environment: JSON in
// production, colored console output everywhere else.
func Initialize(env string) {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := config.Build()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	Log = l
}

// RequestLogger returns an echo middleware that assigns a request id and
// logs one line per completed request.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			requestID := req.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Set(RequestIDKey, requestID)
			c.SetRequest(req.WithContext(WithRequestID(req.Context(), requestID)))
			c.Response().Header().Set(HeaderRequestID, requestID)

			err := next(c)
			if err != nil {
				// let echo's error handler write the status before we read it
				c.Error(err)
			}

			Log.Info("Request completed",
				zap.String("request_id", requestID),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("query", req.URL.RawQuery),
				zap.Int("status", c.Response().Status),
				zap.String("ip", c.RealIP()),
				zap.Duration("latency", time.Since(start)),
				zap.String("user_agent", req.UserAgent()),
			)
			return nil
		}
	}
}

// WithRequestID returns a copy of ctx carrying the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// RequestID extracts the request id from ctx, or "unknown".
func RequestID(ctx context.Context) string {
	if ctx != nil {
		if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
			return v
		}
	}
	return "unknown"
}

// Error logs an error with request ID and additional context
func Error(ctx context.Context, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("request_id", RequestID(ctx)))
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Log.Error(msg, fields...)
}

// Warn logs a warning with request ID and additional context
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	fields = append(fields, zap.String("request_id", RequestID(ctx)))
	Log.Warn(msg, fields...)
}

// Info logs an info message with request ID and additional context
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	fields = append(fields, zap.String("request_id", RequestID(ctx)))
	Log.Info(msg, fields...)
}

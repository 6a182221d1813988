package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_AssignsAndLogsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := Log
	Log = zap.New(core)
	defer func() { Log = prev }()

	e := echo.New()
	e.Use(RequestLogger())
	var seen string
	e.GET("/ping", func(c echo.Context) error {
		seen = RequestID(c.Request().Context())
		return c.String(http.StatusTeapot, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	entries := logs.FilterMessage("Request completed").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, seen, fields["request_id"])
		assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	}
}

func TestRequestLogger_KeepsIncomingID(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestRequestID_Unknown(t *testing.T) {
	assert.Equal(t, "unknown", RequestID(context.Background()))
	assert.Equal(t, "r1", RequestID(WithRequestID(context.Background(), "r1")))
}

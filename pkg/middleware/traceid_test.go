package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func traceIDTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("trace_id"))
	})
	return r
}

func TestTraceIDMinted(t *testing.T) {
	r := traceIDTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	got := w.Header().Get(TraceIDHeader)
	require.NotEmpty(t, got)
	assert.Equal(t, got, w.Body.String())
}

func TestTraceIDPassedThrough(t *testing.T) {
	r := traceIDTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceIDHeader, "upstream-trace-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "upstream-trace-1", w.Header().Get(TraceIDHeader))
	assert.Equal(t, "upstream-trace-1", w.Body.String())
}

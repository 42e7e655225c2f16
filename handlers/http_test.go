package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticRoutes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>board</h1>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0644))

	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	router := gin.New()
	SetupRoutes(router, dir, log)

	w := do(router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "board")

	w = do(router, http.MethodGet, "/static/app.js", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")
}

func TestMissingWebDir(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, hook := test.NewNullLogger()
	router := gin.New()
	SetupRoutes(router, filepath.Join(t.TempDir(), "nope"), log)

	w := do(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, hook.LastEntry())
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	router := gin.New()
	router.Use(Metrics())
	SetupRoutes(router, "", log)
	SetupAPIRoutes(router, Options{Store: newFileStore(t), Logger: log})

	do(router, http.MethodGet, "/api/dedications", "")

	w := do(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dedications_http_request_duration_seconds")
	assert.Contains(t, w.Body.String(), "dedications_backend_operations_total")
}

func TestRequestLoggerLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, hook := test.NewNullLogger()
	router := gin.New()
	router.Use(RequestLogger(log))
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	do(router, http.MethodGet, "/boom", "")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "request", hook.LastEntry().Message)
	assert.Equal(t, http.StatusInternalServerError, hook.LastEntry().Data["status"])
}

func TestRateLimiterDisabled(t *testing.T) {
	r := NewRateLimiter(0)
	for i := 0; i < 100; i++ {
		assert.True(t, r.Allow("k"))
	}
}

func TestRateLimiterCleanupEvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	r := NewRateLimiter(10)
	r.now = func() time.Time { return now }

	r.Allow("10.0.0.1")
	r.Allow("10.0.0.2")
	now = now.Add(8 * time.Minute)
	r.Allow("10.0.0.2")
	r.Allow("10.0.0.3")
	require.Equal(t, 3, r.Len())

	now = now.Add(3 * time.Minute)
	assert.Equal(t, 1, r.Cleanup(10*time.Minute))
	assert.Equal(t, 2, r.Len())

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 2, r.Cleanup(10*time.Minute))
	assert.Zero(t, r.Len())
}

func TestRateLimiterStartCleanup(t *testing.T) {
	r := NewRateLimiter(10)
	for i := 0; i < 50; i++ {
		r.Allow(fmt.Sprintf("10.0.0.%d", i))
	}
	require.Equal(t, 50, r.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.StartCleanup(ctx, 5*time.Millisecond, 0)

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
}

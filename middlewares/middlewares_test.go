package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/invoice_backend/utils"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakeCounter struct {
	redis.Cmdable
	counts  map[string]int64
	expires int
	down    bool
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "incr", key)
	if f.down {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	f.counts[key]++
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expires++
	cmd := redis.NewBoolCmd(ctx, "expire", key)
	cmd.SetVal(true)
	return cmd
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.String(http.StatusOK, cid)
	})
	return r
}

func get(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestContext(t *testing.T) {
	r := newEngine(RequestContext())

	w := get(r, "/ping", map[string]string{CorrelationIdHeader: "abc-123"})
	if w.Body.String() != "abc-123" || w.Header().Get(CorrelationIdHeader) != "abc-123" {
		t.Fatalf("expected the incoming id to be kept, got body %q header %q", w.Body.String(), w.Header().Get(CorrelationIdHeader))
	}

	w = get(r, "/ping", nil)
	generated := w.Header().Get(CorrelationIdHeader)
	if generated == "" || w.Body.String() != generated {
		t.Fatalf("expected a generated id, got body %q header %q", w.Body.String(), generated)
	}
}

func TestReadinessGate(t *testing.T) {
	ready := false
	r := newEngine(ReadinessGate(func() bool { return ready }))

	if w := get(r, "/ping", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while starting, got %d", w.Code)
	}
	if w := get(r, HealthPath, nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from health, got %d", w.Code)
	}
	ready = true
	if w := get(r, "/ping", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 once ready, got %d", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int64{}}
	r := newEngine(NewRateLimiter(counter, 2, time.Minute).Middleware)

	for i := 0; i < 2; i++ {
		if w := get(r, "/ping", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, w.Code)
		}
	}
	if w := get(r, "/ping", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over the limit, got %d", w.Code)
	}
	if counter.expires != 1 {
		t.Fatalf("expected the window to be set once, got %d", counter.expires)
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int64{}, down: true}
	r := newEngine(NewRateLimiter(counter, 1, time.Minute).Middleware)

	for i := 0; i < 3; i++ {
		if w := get(r, "/ping", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d expected 200 with redis down, got %d", i+1, w.Code)
		}
	}
}

func TestErrorLoggerFields(t *testing.T) {
	logger, hook := test.NewNullLogger()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestContext(), ErrorLogger(logger))
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusInternalServerError)
	})
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	get(r, "/ok", nil)
	if len(hook.AllEntries()) != 0 {
		t.Fatalf("successful requests must not be logged")
	}

	get(r, "/fail", map[string]string{CorrelationIdHeader: "cid-1"})
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected an error entry, got %v", entry)
	}
	if entry.Data["correlation_id"] != "cid-1" || entry.Data["client_ip"] != "192.0.2.1" || entry.Data["path"] != "/fail" {
		t.Fatalf("unexpected fields %v", entry.Data)
	}
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestLoginLimiter(t *testing.T) {
	c := qt.New(t)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	l := NewLoginLimiter(time.Minute, 2)
	l.now = func() time.Time { return now }

	c.Assert(l.Allow("10.0.0.1"), qt.IsTrue)
	c.Assert(l.Allow("10.0.0.1"), qt.IsTrue)
	c.Assert(l.Allow("10.0.0.1"), qt.IsFalse)
	c.Assert(l.Allow("10.0.0.2"), qt.IsTrue)

	now = now.Add(time.Minute)
	c.Assert(l.Allow("10.0.0.1"), qt.IsTrue)

	now = now.Add(time.Hour)
	l.Cleanup(30 * time.Minute)
	c.Assert(l.limiters, qt.HasLen, 0)
}

func TestLoginLimiterMiddleware(t *testing.T) {
	l := NewLoginLimiter(time.Hour, 1)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := []int{}
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	qt.Assert(t, codes, qt.DeepEquals, []int{http.StatusOK, http.StatusTooManyRequests})
}

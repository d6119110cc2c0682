package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/auth"
	"github.com/rezervi/rezervi-api/internal/cache"
	"github.com/rezervi/rezervi-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func TestAuth(t *testing.T) {
	iss := auth.NewIssuer("secret", time.Hour)
	owner := &models.User{ID: uuid.New(), Role: models.RoleOwner}
	biz := uuid.New()
	token, _ := iss.Issue(owner, &biz)

	r := gin.New()
	r.GET("/private", Auth(iss), RequireRole(models.RoleOwner), func(c *gin.Context) {
		uid, _ := UserID(c)
		bid, _ := BusinessID(c)
		if uid != owner.ID || bid != biz {
			c.Status(http.StatusTeapot)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		header http.Header
		want   int
	}{
		{"valid owner", bearer(token), http.StatusOK},
		{"missing", nil, http.StatusUnauthorized},
		{"wrong scheme", http.Header{"Authorization": {"Basic abc"}}, http.StatusUnauthorized},
		{"garbage", bearer("not-a-jwt"), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := serve(r, http.MethodGet, "/private", tt.header); w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	customer := &models.User{ID: uuid.New(), Role: models.RoleCustomer}
	ctoken, _ := iss.Issue(customer, nil)
	if w := serve(r, http.MethodGet, "/private", bearer(ctoken)); w.Code != http.StatusForbidden {
		t.Fatalf("customer status = %d, want 403", w.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	iss := auth.NewIssuer("secret", time.Hour)
	r := gin.New()
	r.GET("/public", OptionalAuth(iss), func(c *gin.Context) {
		if _, ok := UserID(c); ok {
			c.Status(http.StatusAccepted)
			return
		}
		c.Status(http.StatusOK)
	})

	if w := serve(r, http.MethodGet, "/public", nil); w.Code != http.StatusOK {
		t.Fatalf("anonymous = %d", w.Code)
	}
	token, _ := iss.Issue(&models.User{ID: uuid.New(), Role: models.RoleCustomer}, nil)
	if w := serve(r, http.MethodGet, "/public", bearer(token)); w.Code != http.StatusAccepted {
		t.Fatalf("signed in = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/public", bearer("junk")); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d", w.Code)
	}
}

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/book", RateLimit(cache.NewLocalCounter(), "booking", 2, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodPost, "/book", nil); w.Code != http.StatusCreated {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}
	w := serve(r, http.MethodPost, "/book", nil)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "60" {
		t.Fatalf("third request = %d retry-after %q", w.Code, w.Header().Get("Retry-After"))
	}

	open := gin.New()
	open.POST("/book", RateLimit(failingCounter{}, "booking", 1, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	for i := 0; i < 3; i++ {
		if w := serve(open, http.MethodPost, "/book", nil); w.Code != http.StatusCreated {
			t.Fatalf("fail-open request %d = %d", i, w.Code)
		}
	}
}

func TestRequestLoggerPropagatesID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", http.Header{HeaderRequestID: {"abc-123"}})
	if got := w.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
	w = serve(r, http.MethodGet, "/x", nil)
	if _, err := uuid.Parse(w.Header().Get(HeaderRequestID)); err != nil {
		t.Fatalf("generated id %q is not a uuid", w.Header().Get(HeaderRequestID))
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.rezervi.mk"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/x", http.Header{"Origin": {"https://app.rezervi.mk"}})
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "https://app.rezervi.mk" {
		t.Fatalf("preflight = %d %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}
	w = serve(r, http.MethodGet, "/x", http.Header{"Origin": {"https://evil.example"}})
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin was allowed")
	}
}

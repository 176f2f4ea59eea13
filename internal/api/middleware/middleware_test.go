package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type observation struct {
	route  string
	status int
}

type fakeHTTPRecorder struct {
	mu  sync.Mutex
	obs []observation
}

func (f *fakeHTTPRecorder) ObserveHTTP(route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obs = append(f.obs, observation{route, status})
}

func tokenEcho(allowMissing bool) *gin.Engine {
	r := gin.New()
	r.Use(RequireToken(allowMissing))
	r.GET("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, Token(c))
	})
	return r
}

func TestRequireToken(t *testing.T) {
	tests := []struct {
		name         string
		header       string
		allowMissing bool
		wantStatus   int
		wantBody     string
	}{
		{"bearer token", "Bearer abc.def", false, http.StatusOK, "abc.def"},
		{"lower-case scheme", "bearer xyz", false, http.StatusOK, "xyz"},
		{"missing header", "", false, http.StatusUnauthorized, `{"error":"Missing authentication token"}`},
		{"wrong scheme", "Basic Zm9v", false, http.StatusUnauthorized, `{"error":"Missing authentication token"}`},
		{"empty bearer", "Bearer   ", false, http.StatusUnauthorized, `{"error":"Missing authentication token"}`},
		{"dev mode without token", "", true, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/echo", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			tokenEcho(tt.allowMissing).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	rec := &fakeHTTPRecorder{}
	r := gin.New()
	r.Use(Metrics(rec))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/items/1", "/items/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, rec.obs, 3)
	assert.Equal(t, observation{"/items/:id", http.StatusNoContent}, rec.obs[0])
	assert.Equal(t, observation{"/items/:id", http.StatusNoContent}, rec.obs[1])
	assert.Equal(t, observation{"unmatched", http.StatusNotFound}, rec.obs[2])
}

func TestRecoveryReturnsJSON(t *testing.T) {
	r := gin.New()
	r.Use(Logger(), Recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

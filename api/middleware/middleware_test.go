package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ExoPexodus/crimson-cloud-command/internal/auth"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestJWTAuth_ValidToken(t *testing.T) {
	authService := auth.NewService(auth.Config{Secret: "test-secret"})
	token, err := authService.GenerateToken(7, "ops@example.com")
	require.NoError(t, err)

	router := newTestRouter()
	router.Use(JWTAuth(authService))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": GetUserID(c),
			"email":   GetUserEmail(c),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthorizationHeader, BearerPrefix+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
	assert.Contains(t, w.Body.String(), "ops@example.com")
}

func TestJWTAuth_Rejections(t *testing.T) {
	authService := auth.NewService(auth.Config{Secret: "test-secret"})

	expired := auth.NewService(auth.Config{Secret: "test-secret", Duration: -time.Minute})
	expiredToken, err := expired.GenerateToken(7, "ops@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", BearerPrefix + "not-a-jwt"},
		{"expired token", BearerPrefix + expiredToken},
	}

	router := newTestRouter()
	router.Use(JWTAuth(authService))
	router.GET("/protected", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(AuthorizationHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestTraceID_GeneratesAndEchoes(t *testing.T) {
	router := newTestRouter()
	router.Use(TraceID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetTraceID(c))
	})

	// Generated when absent.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(TraceIDHeader))
	assert.Equal(t, w.Header().Get(TraceIDHeader), w.Body.String())

	// Propagated when supplied.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "trace-abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "trace-abc", w.Header().Get(TraceIDHeader))
	assert.Equal(t, "trace-abc", w.Body.String())
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("10.0.0.1"))
	}
	assert.False(t, limiter.Allow("10.0.0.1"))

	// Other keys have their own budget.
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	router := newTestRouter()
	router.Use(CORS(DefaultCORSConfig()))
	router.POST("/auth/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://dashboard.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

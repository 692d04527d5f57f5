package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user_api/internal/auth"
	"user_api/internal/observability"
)

const testSecret = "middleware-test-secret"

func newAuthRouter(tokens *auth.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/checkSq/:sq", AuthMiddleware(tokens, http.StatusPaymentRequired), func(c *gin.Context) {
		userID, _ := auth.GetUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, 15*time.Minute, time.Hour)
	pair, err := tokens.GenerateTokenPair("u-42")
	require.NoError(t, err)

	expired := auth.NewTokenManager(testSecret, -time.Minute, time.Hour)
	expiredPair, err := expired.GenerateTokenPair("u-42")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "No header", header: "", wantStatus: http.StatusPaymentRequired, wantBody: "User not logged in"},
		{name: "Wrong scheme", header: "Basic abc", wantStatus: http.StatusPaymentRequired, wantBody: "Invalid authorization format"},
		{name: "Garbage token", header: "Bearer nope", wantStatus: http.StatusPaymentRequired, wantBody: "Invalid token"},
		{name: "Expired token", header: "Bearer " + expiredPair.AccessToken, wantStatus: http.StatusPaymentRequired, wantBody: "Token expired"},
		{name: "Refresh token", header: "Bearer " + pair.RefreshToken, wantStatus: http.StatusPaymentRequired, wantBody: "Invalid token type"},
		{name: "Valid access token", header: "Bearer " + pair.AccessToken, wantStatus: http.StatusOK, wantBody: "u-42"},
	}

	router := newAuthRouter(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/checkSq/16", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(PrometheusMiddleware(metrics))
	router.GET("/user/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/user/1", "/user/2", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/user/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.HTTPRequestsInFlight))
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/users", nil))

	out := buf.String()
	assert.Contains(t, out, `"route":"/users"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"level":"info"`)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(CORS([]string{"https://app.example"}))
	router.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/users", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}

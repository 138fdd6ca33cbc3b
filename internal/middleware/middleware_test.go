package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/splitledger/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := gin.New()
	r.Use(StructuredLoggingMiddleware(logger))
	r.GET("/whoami", AuthMiddleware(testSecret), func(c *gin.Context) {
		memberID, ok := GetMemberIDFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		GetLoggerFromCtx(c.Request.Context()).Info("handled")
		c.JSON(http.StatusOK, gin.H{"memberID": memberID})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := utils.GenerateMemberToken("alice", testSecret, time.Hour, "test")
	require.NoError(t, err)
	expired, err := utils.GenerateMemberToken("alice", testSecret, -time.Hour, "test")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "Authorization header required"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Authorization header format must be Bearer {token}"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Token has expired"},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := newTestRouter(&buf)
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				assert.Equal(t, "UNAUTHORIZED", body["code"])
			} else {
				assert.Equal(t, "alice", body["memberID"])
			}
		})
	}
}

func TestStructuredLoggingMiddleware_EnrichesLogger(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRouter(&buf)
	token, err := utils.GenerateMemberToken("bob", testSecret, time.Hour, "test")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	logs := buf.String()
	assert.Contains(t, logs, `"msg":"handled"`)
	assert.Contains(t, logs, `"member_id":"bob"`)
	assert.Contains(t, logs, `"request_id":"req-123"`)
	assert.Contains(t, logs, `"msg":"Request completed"`)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiterInstance, err := NewRateLimiter("2-M")
	require.NoError(t, err)
	r := gin.New()
	r.Use(RateLimit(limiterInstance))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	_, err = NewRateLimiter("lots")
	assert.Error(t, err)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/pkg/jwtutil"
)

func TestAuthJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthJWT("secret"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.GetUint(ContextUserIDKey), "name": c.GetString(ContextUsernameKey)})
	})

	token, err := jwtutil.GenerateToken("secret", time.Minute, 7, "alice")
	require.NoError(t, err)
	other, err := jwtutil.GenerateToken("other", time.Minute, 7, "alice")
	require.NoError(t, err)
	expired, err := jwtutil.GenerateToken("secret", -time.Minute, 7, "alice")
	require.NoError(t, err)

	var cases = []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "valid", header: "Bearer " + token, status: http.StatusOK},
		{name: "missing", header: "", status: http.StatusUnauthorized, message: "missing authorization header"},
		{name: "wrong scheme", header: "Basic " + token, status: http.StatusUnauthorized, message: "invalid authorization scheme"},
		{name: "wrong secret", header: "Bearer " + other, status: http.StatusUnauthorized, message: "invalid token"},
		{name: "expired", header: "Bearer " + expired, status: http.StatusUnauthorized, message: "token expired"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, c.status, w.Code)
			if c.status == http.StatusOK {
				assert.JSONEq(t, `{"uid":7,"name":"alice"}`, w.Body.String())
				return
			}
			assert.Contains(t, w.Body.String(), c.message)
		})
	}
}

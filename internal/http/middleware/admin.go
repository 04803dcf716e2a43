package middleware

import (
	"crypto/hmac"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-booking-engine/internal/i18n"
)

// AdminToken admits requests carrying "Authorization: Bearer <token>" and
// answers 401 otherwise. An empty token admits nobody.
func AdminToken(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || len(want) == 0 || !hmac.Equal([]byte(strings.TrimSpace(got)), want) {
			LoggerFrom(c).Warn().Str("path", c.FullPath()).Msg("admin token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       i18n.KeyUnauthorized,
				"message":    i18n.Message(c.GetHeader("Accept-Language"), i18n.KeyUnauthorized),
			})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const adminActorKey = "admin.actor"

// AdminAuth admits requests whose "Authorization: Bearer <token>" matches one
// of tokens (token -> actor id). The actor id is stored in the Gin context for
// GetAdminActor. Anything else is answered with 401.
//
// Tokens are compared in constant time against every configured token.
func AdminAuth(tokens map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := lookupActor(tokens, bearerToken(c.GetHeader("Authorization")))
		if !ok {
			c.Header("WWW-Authenticate", `Bearer realm="admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": GetRequestID(c),
				"code":       "unauthorized",
				"message":    "missing or invalid bearer token",
			})
			return
		}
		c.Set(adminActorKey, actor)
		c.Next()
	}
}

// GetAdminActor returns the actor id set by AdminAuth, or "".
func GetAdminActor(c *gin.Context) string {
	v, _ := c.Get(adminActorKey)
	return asString(v)
}

func bearerToken(h string) string {
	scheme, tok, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

func lookupActor(tokens map[string]string, tok string) (string, bool) {
	if tok == "" {
		return "", false
	}
	var actor string
	for t, a := range tokens {
		if subtle.ConstantTimeCompare([]byte(t), []byte(tok)) == 1 {
			actor = a
		}
	}
	return actor, actor != ""
}

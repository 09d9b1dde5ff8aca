package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/linkup/pkg/response"
)

const viewerKey = "viewer_id"

// Auth 校验 Bearer token 并把 viewer id 放进请求上下文。
// 签发方是外部身份服务，这里只做验签取 sub。
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			response.Unauthorized(c, "invalid token subject")
			c.Abort()
			return
		}
		c.Set(viewerKey, sub)
		c.Next()
	}
}

// ViewerID 取当前请求的用户 id（Auth 之后才有值）。
func ViewerID(c *gin.Context) string {
	return c.GetString(viewerKey)
}

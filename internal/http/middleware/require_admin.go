package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/anggiadiputra/donasiku-sub000/internal/shared/apperr"
)

const CtxKeyAdminSubject = "admin_subject"

// RequireAdmin accepts an HS256 bearer token whose role claim is "admin".
// An empty secret rejects every request.
func RequireAdmin(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || len(key) == 0 {
			Fail(c, apperr.UnauthorizedErr("Autentikasi diperlukan"))
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			Fail(c, apperr.UnauthorizedErr("Token tidak valid"))
			return
		}

		if role, _ := claims["role"].(string); role != "admin" {
			Fail(c, apperr.ForbiddenErr("Akses admin diperlukan"))
			return
		}

		sub, _ := claims.GetSubject()
		c.Set(CtxKeyAdminSubject, sub)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func AdminSubject(c *gin.Context) string {
	return c.GetString(CtxKeyAdminSubject)
}

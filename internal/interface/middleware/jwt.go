package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/stockmaster/pkg/helpers"
	"github.com/oksasatya/stockmaster/pkg/response"
)

const (
	CtxAccountIDKey = "accountID"
	CtxLoginIDKey   = "loginID"
)

// BearerAuth validates the Authorization: Bearer token and injects the account ID into context
func BearerAuth(tokens *helpers.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		claims, err := tokens.Parse(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		c.Set(CtxAccountIDKey, claims.AccountID)
		c.Set(CtxLoginIDKey, claims.LoginID)
		c.Next()
	}
}

func bearerToken(h string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

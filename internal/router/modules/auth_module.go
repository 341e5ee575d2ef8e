package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/stockmaster/internal/interface/http"
	"github.com/oksasatya/stockmaster/internal/interface/middleware"
	"github.com/oksasatya/stockmaster/pkg/helpers"
)

// AuthModule mounts the registration routes.
// Public: signup, verify-email, login, resend-otp. Bearer: me.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Tokens  *helpers.TokenIssuer
	RDB     *redis.Client
}

// NewAuthModule wires the handler; rdb may be nil or disabled to skip rate limiting.
func NewAuthModule(h *handlers.AuthHandler, tokens *helpers.TokenIssuer, rdb *redis.Client, rateLimit bool) *AuthModule {
	if !rateLimit {
		rdb = nil
	}
	return &AuthModule{Handler: h, Tokens: tokens, RDB: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	signupLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	verifyLimiter := middleware.RateLimit(m.RDB, 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	resendLimiter := middleware.RateLimit(m.RDB, 5, time.Minute, middleware.KeyByIPAndPath(), nil)

	auth := rg.Group("/auth")
	auth.POST("/signup", signupLimiter, m.Handler.Signup)
	auth.POST("/verify-email", verifyLimiter, m.Handler.VerifyEmail)
	auth.POST("/login", loginLimiter, m.Handler.Login)
	auth.POST("/resend-otp", resendLimiter, m.Handler.ResendOTP)

	auth.GET("/me",
		middleware.BearerAuth(m.Tokens),
		middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByAccountID(), nil),
		m.Handler.Me,
	)
}

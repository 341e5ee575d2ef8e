package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/stockmaster/internal/interface/http"
	"github.com/oksasatya/stockmaster/internal/interface/middleware"
	"github.com/oksasatya/stockmaster/pkg/helpers"
)

type AccountModule struct {
	Handler *handlers.AccountHandler
	Tokens  *helpers.TokenIssuer
	RDB     *redis.Client
}

func NewAccountModule(h *handlers.AccountHandler, tokens *helpers.TokenIssuer, rdb *redis.Client, rateLimit bool) *AccountModule {
	if !rateLimit {
		rdb = nil
	}
	return &AccountModule{Handler: h, Tokens: tokens, RDB: rdb}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts")
	accounts.Use(
		middleware.BearerAuth(m.Tokens),
		middleware.RateLimit(m.RDB, 60, time.Minute, middleware.KeyByAccountID(), nil),
	)
	accounts.GET("/search", m.Handler.Search)
}

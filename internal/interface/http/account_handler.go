package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/stockmaster/internal/application"
	"github.com/oksasatya/stockmaster/pkg/response"
)

type AccountHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAccountHandler(svc *application.Service, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger}
}

type searchResponse struct {
	Items []response.UserView `json:"items"`
	Total int                 `json:"total"`
}

// Search GET /api/accounts/search?q=alice&size=10
func (h *AccountHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error(c, http.StatusBadRequest, "Query parameter q is required")
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	found, err := h.Svc.SearchAccounts(c.Request.Context(), q, size)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("q", q).Warn("account search failed")
		}
		response.Error(c, http.StatusInternalServerError, msgInternal)
		return
	}

	items := make([]response.UserView, 0, len(found))
	for i := range found {
		items = append(items, userView(&found[i]))
	}
	response.Success(c, http.StatusOK, searchResponse{Items: items, Total: len(items)})
}

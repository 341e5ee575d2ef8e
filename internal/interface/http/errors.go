package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/stockmaster/internal/application"
	repo "github.com/oksasatya/stockmaster/internal/domain/repository"
	"github.com/oksasatya/stockmaster/pkg/response"
)

const (
	msgInternal   = "Internal Server Error"
	msgBadPayload = "Invalid request body"
	msgSendFailed = "Failed to send verification email"
)

// statusByCode maps caller-facing error codes to HTTP status. Their
// messages are safe to return as is.
var statusByCode = map[string]int{
	application.CodeRequired:           http.StatusBadRequest,
	application.CodeLoginIDLength:      http.StatusBadRequest,
	application.CodeEmailFormat:        http.StatusBadRequest,
	application.CodePasswordPolicy:     http.StatusBadRequest,
	application.CodeOTPNotPending:      http.StatusBadRequest,
	application.CodeOTPInvalid:         http.StatusBadRequest,
	application.CodeOTPExpired:         http.StatusBadRequest,
	application.CodeInvalidCredentials: http.StatusBadRequest,
	repo.CodeDuplicateLoginID:          http.StatusBadRequest,
	repo.CodeDuplicateEmail:            http.StatusBadRequest,
	repo.CodeAlreadyVerified:           http.StatusBadRequest,
	repo.CodeAccountNotFound:           http.StatusBadRequest,
}

// writeError renders err as {message}. Anything without a known code is
// logged and collapsed to a generic 500.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	code := application.ErrorCode(err)
	if status, ok := statusByCode[code]; ok {
		response.Error(c, status, err.Error())
		return
	}
	if logger != nil {
		logger.WithError(err).
			WithFields(logrus.Fields{"request_id": c.GetString("request_id"), "path": c.FullPath(), "code": code}).
			Error("request failed")
	}
	if code == application.CodeNotifyFailed {
		response.Error(c, http.StatusInternalServerError, msgSendFailed)
		return
	}
	response.Error(c, http.StatusInternalServerError, msgInternal)
}

// bindJSON binds the request body into dst; an empty body leaves dst zeroed
// so the service reports the missing fields.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, msgBadPayload)
		return false
	}
	return true
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageResponse is the body of every error and of message-only successes.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserView is the public projection of an account.
type UserView struct {
	ID         string `json:"id"`
	LoginID    string `json:"loginId"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
}

// AuthResponse is returned by signup, verification and login.
type AuthResponse struct {
	Message string   `json:"message"`
	Token   string   `json:"token,omitempty"`
	User    UserView `json:"user"`
}

// Success writes body with the given status (200 when zero).
func Success[T any](c *gin.Context, status int, body T) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, body)
}

// Error aborts the request with a {message} body (400 when zero).
func Error(c *gin.Context, status int, message string) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, MessageResponse{Message: message})
}

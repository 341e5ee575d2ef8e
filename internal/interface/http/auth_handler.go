package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/stockmaster/internal/application"
	"github.com/oksasatya/stockmaster/internal/domain/entity"
	"github.com/oksasatya/stockmaster/internal/interface/middleware"
	"github.com/oksasatya/stockmaster/pkg/response"
)

const (
	msgSignupSent     = "Signup successful. Verification email sent."
	msgSignupNotSent  = "Signup successful, but the verification email could not be sent. Please request a new code."
	msgVerified       = "Email verified successfully"
	msgLoggedIn       = "Login successful"
	msgOTPResent      = "Verification code sent"
	msgProfileFetched = "Profile fetched"
)

type AuthHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

// Fields carry no binding tags: presence and format are checked by the
// service so every rule reports its own message in a fixed order.
type signupRequest struct {
	LoginID  string `json:"loginId"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type loginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

type resendOTPRequest struct {
	Email string `json:"email"`
}

// Signup POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Svc.Signup(c.Request.Context(), application.SignupInput{
		LoginID:  req.LoginID,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	msg := msgSignupSent
	if !res.EmailSent {
		msg = msgSignupNotSent
	}
	response.Success(c, http.StatusCreated, authResponse(msg, res))
}

// VerifyEmail POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Svc.VerifyEmail(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, authResponse(msgVerified, res))
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.LoginID, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, authResponse(msgLoggedIn, res))
}

// ResendOTP POST /api/auth/resend-otp
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req resendOTPRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.ResendOTP(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, response.MessageResponse{Message: msgOTPResent})
}

// Me GET /api/auth/me (bearer token required)
func (h *AuthHandler) Me(c *gin.Context) {
	a, err := h.Svc.Profile(c.Request.Context(), c.GetString(middleware.CtxAccountIDKey))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, response.AuthResponse{Message: msgProfileFetched, User: userView(a)})
}

func authResponse(msg string, res *application.AuthResult) response.AuthResponse {
	return response.AuthResponse{Message: msg, Token: res.Token, User: userView(res.Account)}
}

func userView(a *entity.Account) response.UserView {
	return response.UserView{ID: a.ID, LoginID: a.LoginID, Email: a.Email, IsVerified: a.IsVerified}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/stockmaster/internal/application"
	"github.com/oksasatya/stockmaster/internal/domain/entity"
	"github.com/oksasatya/stockmaster/internal/domain/repository/repotest"
	"github.com/oksasatya/stockmaster/internal/interface/middleware"
	"github.com/oksasatya/stockmaster/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

type captureNotifier struct {
	mu   sync.Mutex
	code string
	err  error
}

func (n *captureNotifier) SendOTP(_ context.Context, _, code string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.code = code
	return n.err
}

func (n *captureNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.code
}

type stubIndexer struct{ results []entity.Account }

func (s *stubIndexer) Index(context.Context, *entity.Account) error { return nil }
func (s *stubIndexer) Search(context.Context, string, int) ([]entity.Account, error) {
	return s.results, nil
}

type testServer struct {
	engine   *gin.Engine
	repo     *repotest.MemoryAccountRepository
	notifier *captureNotifier
	indexer  *stubIndexer
	tokens   *helpers.TokenIssuer
	now      time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		repo:     repotest.NewMemoryAccountRepository(),
		notifier: &captureNotifier{},
		indexer:  &stubIndexer{},
		tokens:   helpers.NewTokenIssuer("test-secret", 7*24*time.Hour),
		now:      time.Now(),
	}
	otp := application.NewOTPIssuer(10 * time.Minute)
	otp.Now = func() time.Time { return ts.now }
	logger := helpers.NewDiscardLogger()
	svc := application.NewService(ts.repo, application.NewCredentialValidator(9, true), otp, ts.tokens, ts.notifier, ts.indexer, logger)

	auth := NewAuthHandler(svc, logger)
	accounts := NewAccountHandler(svc, logger)

	r := gin.New()
	r.GET("/healthz", NewHealthHandler(ts.repo, logger).Health)
	api := r.Group("/api")
	api.POST("/auth/signup", auth.Signup)
	api.POST("/auth/verify-email", auth.VerifyEmail)
	api.POST("/auth/login", auth.Login)
	api.POST("/auth/resend-otp", auth.ResendOTP)
	protected := api.Group("/")
	protected.Use(middleware.BearerAuth(ts.tokens))
	protected.GET("/auth/me", auth.Me)
	protected.GET("/accounts/search", accounts.Search)
	ts.engine = r
	return ts
}

type jsonBody = map[string]any

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) (int, jsonBody) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	var out jsonBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func signupBody(loginID, email, password string) jsonBody {
	return jsonBody{"loginId": loginID, "email": email, "password": password}
}

func TestSignupThenVerify(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/api/auth/signup", signupBody("alice01", "a@x.com", "Abcdefg1!"), "")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Signup successful. Verification email sent.", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice01", user["loginId"])
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, false, user["isVerified"])
	assert.NotEmpty(t, user["id"])

	claims, err := ts.tokens.Parse(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, user["id"], claims.AccountID)
	assert.Equal(t, "alice01", claims.LoginID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)

	code := ts.notifier.lastCode()
	require.Len(t, code, 6)

	status, body = ts.do(t, http.MethodPost, "/api/auth/verify-email", jsonBody{"email": "a@x.com", "otp": code}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Email verified successfully", body["message"])
	assert.Equal(t, true, body["user"].(map[string]any)["isVerified"])
	assert.NotEmpty(t, body["token"])

	stored, err := ts.repo.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.EmailOTP)
	assert.Nil(t, stored.EmailOTPExpiry)

	status, body = ts.do(t, http.MethodPost, "/api/auth/verify-email", jsonBody{"email": "a@x.com", "otp": code}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already verified", body["message"])
}

func TestSignupDuplicates(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, http.MethodPost, "/api/auth/signup", signupBody("alice01", "a@x.com", "Abcdefg1!"), "")
	require.Equal(t, http.StatusCreated, status)

	status, body := ts.do(t, http.MethodPost, "/api/auth/signup", signupBody("alice01", "b@x.com", "Abcdefg1!"), "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Login ID already exists", body["message"])

	status, body = ts.do(t, http.MethodPost, "/api/auth/signup", signupBody("bobby01", "a@x.com", "Abcdefg1!"), "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already registered", body["message"])

	assert.Equal(t, 1, ts.repo.Len())
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{name: "missing field", body: jsonBody{"loginId": "alice01", "email": "a@x.com"}, status: http.StatusBadRequest, message: "All fields are required"},
		{name: "empty body", body: nil, status: http.StatusBadRequest, message: "All fields are required"},
		{name: "short login id", body: signupBody("abc", "a@x.com", "Abcdefg1!"), status: http.StatusBadRequest, message: "Login ID must be 6–12 characters"},
		{name: "long login id", body: signupBody("abcdefghijklm", "a@x.com", "Abcdefg1!"), status: http.StatusBadRequest, message: "Login ID must be 6–12 characters"},
		{name: "weak password", body: signupBody("alice01", "a@x.com", "abcdefgh1"), status: http.StatusBadRequest, message: "Password must include lowercase, uppercase, special char & be >8 characters"},
		{name: "malformed json", body: `{"loginId":`, status: http.StatusBadRequest, message: "Invalid request body"},
		{name: "wrong type", body: `{"loginId":123,"email":"a@x.com","password":"Abcdefg1!"}`, status: http.StatusBadRequest, message: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			status, body := ts.do(t, http.MethodPost, "/api/auth/signup", tt.body, "")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, 0, ts.repo.Len())
		})
	}
}

func TestSignupEmailNotSent(t *testing.T) {
	ts := newTestServer(t)
	ts.notifier.err = errors.New("mailgun down")

	status, body := ts.do(t, http.MethodPost, "/api/auth/signup", signupBody("alice01", "a@x.com", "Abcdefg1!"), "")
	assert.Equal(t, http.StatusCreated, status)
	assert.Contains(t, body["message"], "could not be sent")
	assert.Equal(t, 1, ts.repo.Len())

	status, body = ts.do(t, http.MethodPost, "/api/auth/resend-otp", jsonBody{"email": "a@x.com"}, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to send verification email", body["message"])
}

func TestSignupStoreFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.repo.Err = errors.New("connection refused")

	status, body := ts.do(t, http.MethodPost, "/api/auth/signup", signupBody("alice01", "a@x.com", "Abcdefg1!"), "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, jsonBody{"message": "Internal Server Error"}, body)
}

func TestVerifyEmailFailures(t *testing.T) {
	ts := newTestServer(t)
	status, _ := ts.do(t, http.MethodPost, "/api/auth/signup", signupBody("alice01", "a@x.com", "Abcdefg1!"), "")
	require.Equal(t, http.StatusCreated, status)
	code := ts.notifier.lastCode()
	wrong := "100000"
	if code == wrong {
		wrong = "100001"
	}

	status, body := ts.do(t, http.MethodPost, "/api/auth/verify-email", jsonBody{"email": "a@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email and OTP are required", body["message"])

	status, body = ts.do(t, http.MethodPost, "/api/auth/verify-email", jsonBody{"email": "ghost@x.com", "otp": code}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User not found", body["message"])

	status, body = ts.do(t, http.MethodPost, "/api/auth/verify-email", jsonBody{"email": "a@x.com", "otp": wrong}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid OTP", body["message"])

	ts.now = ts.now.Add(10 * time.Minute)
	status, body = ts.do(t, http.MethodPost, "/api/auth/verify-email", jsonBody{"email": "a@x.com", "otp": code}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "OTP expired", body["message"])

	status, body = ts.do(t, http.MethodPost, "/api/auth/resend-otp", jsonBody{"email": "a@x.com"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Verification code sent", body["message"])

	status, _ = ts.do(t, http.MethodPost, "/api/auth/verify-email", jsonBody{"email": "a@x.com", "otp": ts.notifier.lastCode()}, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestLoginAndProfile(t *testing.T) {
	ts := newTestServer(t)
	status, _ := ts.do(t, http.MethodPost, "/api/auth/signup", signupBody("alice01", "a@x.com", "Abcdefg1!"), "")
	require.Equal(t, http.StatusCreated, status)

	status, body := ts.do(t, http.MethodPost, "/api/auth/login", jsonBody{"loginId": "alice01", "password": "wrong"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid credentials", body["message"])

	status, body = ts.do(t, http.MethodPost, "/api/auth/login", jsonBody{"loginId": "alice01"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Login ID and password are required", body["message"])

	status, body = ts.do(t, http.MethodPost, "/api/auth/login", jsonBody{"loginId": "alice01", "password": "Abcdefg1!"}, "")
	require.Equal(t, http.StatusOK, status)
	token := body["token"].(string)

	status, body = ts.do(t, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice01", body["user"].(map[string]any)["loginId"])

	status, body = ts.do(t, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authorized, no token", body["message"])
}

func TestAccountSearch(t *testing.T) {
	ts := newTestServer(t)
	ts.indexer.results = []entity.Account{{ID: "1", LoginID: "alice01", Email: "a@x.com", IsVerified: true}}
	token, _, err := ts.tokens.Issue("1", "alice01", "a@x.com")
	require.NoError(t, err)

	status, body := ts.do(t, http.MethodGet, "/api/accounts/search?q=ali", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])
	items := body["items"].([]any)
	assert.Equal(t, "alice01", items[0].(map[string]any)["loginId"])

	status, body = ts.do(t, http.MethodGet, "/api/accounts/search", nil, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Query parameter q is required", body["message"])
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	ts.repo.Err = errors.New("down")
	status, _ = ts.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

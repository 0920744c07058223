package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumenworks/authkit/internal/config"
	"github.com/lumenworks/authkit/internal/domain"
	httptransport "github.com/lumenworks/authkit/internal/http"
	"github.com/lumenworks/authkit/internal/http/handler"
	httpmiddleware "github.com/lumenworks/authkit/internal/http/middleware"
	"github.com/lumenworks/authkit/internal/mailer"
	"github.com/lumenworks/authkit/internal/password"
	"github.com/lumenworks/authkit/internal/repository"
	"github.com/lumenworks/authkit/internal/service"
	"github.com/lumenworks/authkit/internal/token"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memoryUserRepo, *token.Signer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Environment:          "development",
		ServiceName:          "authkit",
		SessionCookieName:    "token",
		SessionCookieMaxAge:  7 * 24 * time.Hour,
		SessionTTL:           24 * time.Hour,
		VerificationTokenTTL: 24 * time.Hour,
		ResetTokenTTL:        time.Hour,
		FrontendURL:          "http://localhost:5173",
	}

	users := newMemoryUserRepo()
	hasher := password.NewHasher(password.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32})
	signer := token.NewSigner([]byte("test-secret"), cfg.SessionTTL)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	logger := zap.NewNop()

	svc := service.NewAuthService(users, hasher, signer, mailer.NewLogMailer(logger), node, cfg, logger)
	authHandler := handler.NewAuthHandler(svc, cfg, logger)
	session := &httpmiddleware.Session{Signer: signer, CookieName: cfg.SessionCookieName}

	return httptransport.NewRouter(cfg, authHandler, session, logger), users, signer
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "token" {
			return cookie
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterVerifyLoginCheckAuthFlow(t *testing.T) {
	r, users, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Alice",
		"email":    "a@x.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotContains(t, rec.Body.String(), "password")

	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	require.Equal(t, "a@x.com", user["email"])
	require.Equal(t, false, user["isVerified"])

	registerCookie := sessionCookie(t, rec)
	require.True(t, registerCookie.HttpOnly)
	require.NotEmpty(t, registerCookie.Value)

	stored, err := users.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationToken)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify-email", gin.H{"code": "wrong"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify-email", gin.H{"code": *stored.VerificationToken})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	require.Equal(t, true, body["user"].(map[string]any)["isVerified"])

	rec = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "a@x.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	loginCookie := sessionCookie(t, rec)

	rec = doJSON(t, r, http.MethodGet, "/api/auth/check-auth", nil, loginCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	require.Equal(t, "a@x.com", body["user"].(map[string]any)["email"])

	rec = doJSON(t, r, http.MethodGet, "/api/auth/check-auth", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/auth/check-auth", nil, &http.Cookie{Name: "token", Value: "garbage"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/logout", nil, loginCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := sessionCookie(t, rec)
	require.Empty(t, cleared.Value)
	require.Less(t, cleared.MaxAge, 0)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Alice",
		"email":    "a@x.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	unknown := doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "nobody@x.com",
		"password": "pw123",
	})
	wrongPw := doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "a@x.com",
		"password": "nope",
	})

	require.Equal(t, http.StatusBadRequest, unknown.Code)
	require.Equal(t, http.StatusBadRequest, wrongPw.Code)
	require.JSONEq(t, unknown.Body.String(), wrongPw.Body.String())
}

func TestCheckAuthForDeletedUser(t *testing.T) {
	r, _, signer := newTestRouter(t)

	sessionToken, err := signer.Sign(999)
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodGet, "/api/auth/check-auth", nil, &http.Cookie{Name: "token", Value: sessionToken})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "User not found.")
}

func TestForgotPasswordAlwaysGeneric(t *testing.T) {
	r, users, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Alice",
		"email":    "a@x.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	known := doJSON(t, r, http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "a@x.com"})
	unknown := doJSON(t, r, http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "nobody@x.com"})

	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	require.JSONEq(t, known.Body.String(), unknown.Body.String())

	stored, err := users.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetToken)
}

func TestResetPasswordEndpoint(t *testing.T) {
	r, users, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Alice",
		"email":    "a@x.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := users.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetToken)
	resetToken := *stored.ResetToken

	rec = doJSON(t, r, http.MethodPost, "/api/auth/reset-password/"+resetToken, gin.H{"password": "newpw456"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "a@x.com",
		"password": "newpw456",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Replaying the consumed token fails.
	rec = doJSON(t, r, http.MethodPost, "/api/auth/reset-password/"+resetToken, gin.H{"password": "again"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid or expired reset token.")
}

func TestUnknownAPIRouteIs404(t *testing.T) {
	r, _, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/auth/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.False(t, strings.Contains(rec.Header().Get("Content-Type"), "text/html"))
}

// memoryUserRepo backs the router tests without a database.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[int64]domain.User
}

var _ repository.UserRepository = (*memoryUserRepo)(nil)

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]domain.User)}
}

func (m *memoryUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *memoryUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *memoryUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return domain.User{}, repository.ErrDuplicateEmail
		}
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryUserRepo) ConsumeVerificationToken(ctx context.Context, code string, now time.Time) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, user := range m.users {
		if user.VerificationToken != nil && *user.VerificationToken == code && user.VerificationExpiresAt.After(now) {
			user.IsVerified = true
			user.VerificationToken = nil
			user.VerificationExpiresAt = nil
			m.users[id] = user
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *memoryUserRepo) SetResetToken(ctx context.Context, userID int64, resetToken string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.ResetToken = &resetToken
	user.ResetExpiresAt = &expiresAt
	m.users[userID] = user
	return nil
}

func (m *memoryUserRepo) ConsumeResetToken(ctx context.Context, resetToken, newPasswordHash string, now time.Time) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, user := range m.users {
		if user.ResetToken != nil && *user.ResetToken == resetToken && user.ResetExpiresAt.After(now) {
			user.PasswordHash = newPasswordHash
			user.ResetToken = nil
			user.ResetExpiresAt = nil
			m.users[id] = user
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *memoryUserRepo) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.LastLogin = &at
	m.users[userID] = user
	return nil
}

package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/notification-hub/hub"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/router"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/testutil"
	"github.com/yeremiapane/notification-hub/utils"
)

type testApp struct {
	db     *gorm.DB
	router *gin.Engine
	tokens *utils.TokenManager
	users  *services.UserService
	hub    *hub.Hub
}

// setupRouterForTest wires the full router on a private SQLite database.
func setupRouterForTest(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	tokens := utils.NewTokenManager(testutil.TestSecret, time.Hour)
	settings := services.NewSettingsService(db)
	users := services.NewUserService(db, tokens)
	users.SetPasswordCost(bcrypt.MinCost)
	users.OnUserCreated(settings.CreateDefault)
	auth := services.NewAuthService(tokens, users)
	snapshots := services.NewSnapshotService(db, settings, nil, time.Hour, 20)
	liveHub := hub.NewHub(auth, snapshots, hub.DefaultConfig())
	t.Cleanup(liveHub.Shutdown)
	propagator := services.NewChangePropagator(snapshots, nil, liveHub, false)
	notifications := services.NewNotificationService(db, propagator)

	r := router.SetupRouter(router.Dependencies{
		Tokens:        tokens,
		Users:         users,
		Settings:      settings,
		Snapshots:     snapshots,
		Notifications: notifications,
		Hub:           liveHub,
		AllowOrigins:  []string{"*"},
	})
	return &testApp{db: db, router: r, tokens: tokens, users: users, hub: liveHub}
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

// userWithToken registers a user directly and returns a valid token.
func (a *testApp) userWithToken(t *testing.T, username, role string) (*models.User, string) {
	t.Helper()
	user, err := a.users.Register(context.Background(), services.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	token, err := a.tokens.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)
	return user, token
}

func TestRegisterAndLogin(t *testing.T) {
	app := setupRouterForTest(t)

	code, resp := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":   "alice",
		"first_name": "Alice",
		"last_name":  "Doe",
		"email":      "alice@example.com",
		"password":   "secret123",
	})
	assert.Equal(t, http.StatusCreated, code)
	assert.True(t, resp.Status)

	code, resp = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, code)
	var login struct {
		Token    string `json:"token"`
		UserRole string `json:"user_role"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, models.RoleUser, login.UserRole)

	code, resp = app.do(t, http.MethodGet, "/api/profile", login.Token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"username":"alice"`)

	// Registration created enabled settings.
	code, resp = app.do(t, http.MethodGet, "/api/notifications/settings", login.Token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"is_enable_notification":true`)
}

func TestRegister_Invalid(t *testing.T) {
	app := setupRouterForTest(t)

	tests := []struct {
		name string
		body map[string]string
		code int
	}{
		{"missing username", map[string]string{"email": "a@example.com", "password": "secret123"}, http.StatusBadRequest},
		{"bad email", map[string]string{"username": "a", "email": "nope", "password": "secret123"}, http.StatusBadRequest},
		{"short password", map[string]string{"username": "a", "email": "a@example.com", "password": "123"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := app.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, "validation_failed", resp.Error)
		})
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	app := setupRouterForTest(t)
	app.userWithToken(t, "alice", models.RoleUser)

	code, resp := app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthenticated", resp.Error)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	app := setupRouterForTest(t)

	code, resp := app.do(t, http.MethodGet, "/api/notifications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthenticated", resp.Error)

	code, _ = app.do(t, http.MethodGet, "/api/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLogout_RevokesToken(t *testing.T) {
	app := setupRouterForTest(t)
	_, token := app.userWithToken(t, "alice", models.RoleUser)

	code, _ := app.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, resp := app.do(t, http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthenticated", resp.Error)
}

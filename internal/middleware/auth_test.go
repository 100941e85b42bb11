package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/security"
	"github.com/yukikurage/task-manager-api/internal/services"
	"github.com/yukikurage/task-manager-api/internal/testutil"
)

type stubUsers map[string]*models.User

func (s stubUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "broken" {
		return nil, errors.New("connection refused")
	}
	user, ok := s[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return user, nil
}

func newAuthRouter(t *testing.T, tokens TokenVerifier, users UserLoader) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(tokens, users, testutil.DiscardLogger()), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		userID, ok := GetUserID(c)
		require.True(t, ok)
		require.Equal(t, user.ID, userID)
		apierrors.OK(c, "", gin.H{"id": user.ID})
	})
	return r
}

func doGet(r *gin.Engine, authorization string) (*httptest.ResponseRecorder, apierrors.Response) {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body apierrors.Response
	_ = json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&body)
	return w, body
}

func TestRequireAuth(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens, err := security.NewTokenManager("secret", "test", time.Hour, security.WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	users := stubUsers{
		"alice":  {ID: "alice", IsActive: true},
		"frozen": {ID: "frozen", IsActive: false},
	}
	r := newAuthRouter(t, tokens, users)

	issue := func(id string) string {
		token, err := tokens.Issue(id)
		require.NoError(t, err)
		return "Bearer " + token
	}

	t.Run("valid token", func(t *testing.T) {
		w, body := doGet(r, issue("alice"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, body.Success)
	})

	t.Run("missing header", func(t *testing.T) {
		w, body := doGet(r, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, body.Success)
		assert.Equal(t, apierrors.ErrCodeUnauthorized, body.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w, _ := doGet(r, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w, body := doGet(r, "Bearer not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid token", body.Message)
	})

	t.Run("unknown user", func(t *testing.T) {
		w, body := doGet(r, issue("ghost"))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apierrors.ErrCodeNotFound, body.Code)
	})

	t.Run("deactivated user", func(t *testing.T) {
		w, body := doGet(r, issue("frozen"))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apierrors.ErrCodeAccountDisabled, body.Code)
	})

	t.Run("lookup failure", func(t *testing.T) {
		w, body := doGet(r, issue("broken"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, body.Message, "connection refused")
	})

	t.Run("expired token", func(t *testing.T) {
		token := issue("alice")
		clock = clock.Add(2 * time.Hour)
		defer func() { clock = clock.Add(-2 * time.Hour) }()

		w, body := doGet(r, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apierrors.ErrCodeTokenExpired, body.Code)
		assert.Equal(t, "Token expired", body.Message)
	})
}

func TestCurrentUser_Absent(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := CurrentUser(c)
	assert.False(t, ok)
	_, ok = GetUserID(c)
	assert.False(t, ok)
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-manager-api/internal/dto"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"github.com/yukikurage/task-manager-api/internal/security"
	"github.com/yukikurage/task-manager-api/internal/services"
	"github.com/yukikurage/task-manager-api/internal/testutil"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testSecret   = "handler-test-secret"
	testIssuer   = "task-manager-api-test"
	testPassword = "password123"
)

// envelope mirrors apierrors.Response with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

func (e envelope) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, v))
}

type testAPI struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

// newTestAPI builds the full router on an in-memory database.
func newTestAPI(t *testing.T, suggester services.TaskSuggester) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	logger := testutil.DiscardLogger()

	hasher, err := security.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := security.NewTokenManager(testSecret, testIssuer, time.Hour)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	router := NewRouter(RouterDeps{
		DB:          db,
		Logger:      logger,
		Tokens:      tokens,
		AuthService: services.NewAuthService(userRepo, hasher, tokens, logger),
		TaskService: services.NewTaskService(taskRepo, userRepo, suggester, logger),
		UserService: services.NewUserService(userRepo, taskRepo, logger),
	})

	return &testAPI{t: t, db: db, router: router}
}

func (a *testAPI) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// register creates an account through the API and returns it with its token.
func (a *testAPI) register(username string) (dto.UserDTO, string) {
	a.t.Helper()

	w, env := a.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username":  username,
		"email":     username + "@example.com",
		"password":  testPassword,
		"firstName": username,
		"lastName":  "Tester",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.AuthResponse
	env.decode(a.t, &resp)
	require.NotEmpty(a.t, resp.Token)
	return resp.User, resp.Token
}

// createTask posts a task and returns the stored representation.
func (a *testAPI) createTask(token string, body gin.H) dto.TaskDTO {
	a.t.Helper()

	w, env := a.do(http.MethodPost, "/api/tasks", token, body)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.TaskResponse
	env.decode(a.t, &resp)
	return resp.Task
}

// newRawRequest is for endpoints that do not answer with the JSON envelope.
func newRawRequest(method, path string) (*http.Request, *httptest.ResponseRecorder) {
	return httptest.NewRequest(method, path, nil), httptest.NewRecorder()
}

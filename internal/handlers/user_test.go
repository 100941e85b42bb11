package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-manager-api/internal/dto"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
)

// UserHandlerTestSuite defines the test suite for UserHandler
type UserHandlerTestSuite struct {
	suite.Suite
	api        *testAPI
	alice      dto.UserDTO
	aliceToken string
	bob        dto.UserDTO
	bobToken   string
	carolToken string
}

// SetupTest runs before each test
func (suite *UserHandlerTestSuite) SetupTest() {
	suite.api = newTestAPI(suite.T(), nil)
	suite.alice, suite.aliceToken = suite.api.register("alice")
	suite.bob, suite.bobToken = suite.api.register("bob")
	_, suite.carolToken = suite.api.register("carol")
}

func (suite *UserHandlerTestSuite) listUsers(query string) dto.UserListResponse {
	w, env := suite.api.do(http.MethodGet, "/api/users"+query, suite.aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.UserListResponse
	env.decode(suite.T(), &resp)
	return resp
}

func (suite *UserHandlerTestSuite) TestListUsers() {
	all := suite.listUsers("")
	suite.Equal(int64(3), all.Pagination.Total)
	suite.Len(all.Users, 3)

	search := suite.listUsers("?search=BOB")
	suite.Require().Len(search.Users, 1)
	suite.Equal(suite.bob.ID, search.Users[0].ID)

	page := suite.listUsers("?limit=2&page=2")
	suite.Len(page.Users, 1)
	suite.Equal(2, page.Pagination.Pages)
}

func (suite *UserHandlerTestSuite) TestListUsers_HidesDeactivated() {
	w, _ := suite.api.do(http.MethodPut, "/api/users/deactivate", suite.bobToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	all := suite.listUsers("")
	suite.Equal(int64(2), all.Pagination.Total)
	for _, user := range all.Users {
		suite.NotEqual(suite.bob.ID, user.ID)
	}

	// Profiles of deactivated users stay readable.
	w, env := suite.api.do(http.MethodGet, "/api/users/"+suite.bob.ID, suite.aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var profile dto.UserProfileResponse
	env.decode(suite.T(), &profile)
	suite.False(profile.User.IsActive)
}

func (suite *UserHandlerTestSuite) TestGetUser_WithStats() {
	first := suite.api.createTask(suite.aliceToken, gin.H{"title": "For bob", "assignedTo": suite.bob.ID})
	suite.api.createTask(suite.aliceToken, gin.H{"title": "Also for bob", "assignedTo": suite.bob.ID})
	suite.api.createTask(suite.bobToken, gin.H{"title": "Bob own"})

	w, _ := suite.api.do(http.MethodPut, "/api/tasks/"+first.ID, suite.bobToken, gin.H{"status": "completed"})
	suite.Require().Equal(http.StatusOK, w.Code)

	w, env := suite.api.do(http.MethodGet, "/api/users/"+suite.bob.ID, suite.aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.UserProfileResponse
	env.decode(suite.T(), &resp)
	suite.Equal("bob", resp.User.Username)
	suite.Equal(int64(3), resp.Stats.AssignedTasks)
	suite.Equal(int64(1), resp.Stats.CreatedTasks)
	suite.Equal(int64(1), resp.Stats.CompletedTasks)
}

func (suite *UserHandlerTestSuite) TestGetUser_NotFound() {
	w, env := suite.api.do(http.MethodGet, "/api/users/ghost", suite.aliceToken, nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(apierrors.ErrCodeNotFound, env.Code)
}

func (suite *UserHandlerTestSuite) TestGetUserTasks_IntersectsVisibility() {
	suite.api.createTask(suite.aliceToken, gin.H{"title": "From alice", "assignedTo": suite.bob.ID})
	suite.api.createTask(suite.bobToken, gin.H{"title": "Bob private"})

	w, env := suite.api.do(http.MethodGet, "/api/users/"+suite.bob.ID+"/tasks", suite.aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var aliceView dto.TaskListResponse
	env.decode(suite.T(), &aliceView)
	suite.Require().Len(aliceView.Tasks, 1)
	suite.Equal("From alice", aliceView.Tasks[0].Title)

	w, env = suite.api.do(http.MethodGet, "/api/users/"+suite.bob.ID+"/tasks", suite.bobToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var bobView dto.TaskListResponse
	env.decode(suite.T(), &bobView)
	suite.Len(bobView.Tasks, 2)
	suite.Equal(int64(2), bobView.Pagination.Total)

	w, env = suite.api.do(http.MethodGet, "/api/users/"+suite.bob.ID+"/tasks", suite.carolToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var carolView dto.TaskListResponse
	env.decode(suite.T(), &carolView)
	suite.Empty(carolView.Tasks)

	w, _ = suite.api.do(http.MethodGet, "/api/users/ghost/tasks", suite.aliceToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *UserHandlerTestSuite) TestDeactivate_KeepsTasks() {
	task := suite.api.createTask(suite.bobToken, gin.H{"title": "Left behind", "assignedTo": suite.alice.ID})

	w, _ := suite.api.do(http.MethodPut, "/api/users/deactivate", suite.bobToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w, env := suite.api.do(http.MethodGet, "/api/users", suite.bobToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal(apierrors.ErrCodeAccountDisabled, env.Code)

	w, _ = suite.api.do(http.MethodGet, "/api/tasks/"+task.ID, suite.aliceToken, nil)
	suite.Equal(http.StatusOK, w.Code)
}

// TestUserHandlerTestSuite runs the test suite
func TestUserHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(UserHandlerTestSuite))
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t, nil)

	w, env := api.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health healthResponse
	env.decode(t, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "up", health.Database)

	// Generate at least one labelled request before scraping.
	api.do(http.MethodGet, "/api/tasks", "", nil)

	req, recorder := newRawRequest(http.MethodGet, "/metrics")
	api.router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "taskapi_http_requests_total")
}

func TestHealth_DatabaseDown(t *testing.T) {
	api := newTestAPI(t, nil)
	sqlDB, err := api.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w, env := api.do(http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apierrors.ErrCodeServiceUnavailable, env.Code)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t, nil)

	w, env := api.do(http.MethodGet, "/api/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierrors.ErrCodeNotFound, env.Code)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/social-media/social-backend/internal/middleware"
	"github.com/social-media/social-backend/internal/repository"
	"github.com/social-media/social-backend/internal/services"
	"github.com/social-media/social-backend/internal/testutil"
	"github.com/social-media/social-backend/pkg/cache"
	"github.com/social-media/social-backend/pkg/logger"
	"github.com/social-media/social-backend/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "test-secret-key"

type testAPI struct {
	router   *gin.Engine
	tokens   *middleware.TokenService
	activity *services.ActivityService
}

func newTestAPI(t *testing.T, db *gorm.DB, redisClient *cache.RedisClient) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	producer := queue.NopPublisher{}
	feedCache := services.NewFeedCache(redisClient, 30*time.Second, log)

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	followService := services.NewFollowService(userRepo, repository.NewFollowRepository(db), producer, log)
	userService := services.NewUserService(userRepo, followService, feedCache, producer, log)
	postService := services.NewPostService(postRepo, feedCache, producer, services.DefaultFeedLimit, log)
	likeService := services.NewLikeService(postRepo, repository.NewLikeRepository(db), feedCache, producer, log)
	commentService := services.NewCommentService(postRepo, repository.NewCommentRepository(db), producer, log)
	activityService := services.NewActivityService(redisClient, log)

	tokens := middleware.NewTokenService(testSecret, 0)
	router := NewRouter(&Handlers{
		Auth:     NewAuthHandler(userService, tokens, log),
		Posts:    NewPostHandler(postService, likeService, log),
		Comments: NewCommentHandler(commentService, log),
		Users:    NewUserHandler(userService, followService, activityService, log),
	}, tokens, middleware.NewMetrics(), log)

	return &testAPI{router: router, tokens: tokens, activity: activityService}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	UserID  uint   `json:"userId"`
}

func (a *testAPI) register(t *testing.T, username string) authResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@x.com",
		"password": "pw1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorBody(msg string) string {
	return fmt.Sprintf(`{"error":%q}`, msg)
}

func TestExampleScenario(t *testing.T) {
	api := newTestAPI(t, testutil.NewTestDB(t).DB, nil)

	a := api.register(t, "a")
	b := api.register(t, "b")
	assert.NotEmpty(t, a.Token)
	assert.NotEqual(t, a.UserID, b.UserID)

	w := api.do(t, http.MethodPost, "/posts", a.Token, gin.H{"content": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		PostID uint `json:"postId"`
	}
	decode(t, w, &created)
	require.NotZero(t, created.PostID)

	likes := func() int64 {
		w := api.do(t, http.MethodGet, "/posts", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var posts []struct {
			ID         uint   `json:"id"`
			LikesCount int64  `json:"likes_count"`
			Username   string `json:"username"`
		}
		decode(t, w, &posts)
		require.Len(t, posts, 1)
		assert.Equal(t, "a", posts[0].Username)
		return posts[0].LikesCount
	}

	likePath := fmt.Sprintf("/posts/%d/like", created.PostID)
	unlikePath := fmt.Sprintf("/posts/%d/unlike", created.PostID)
	postPath := fmt.Sprintf("/posts/%d", created.PostID)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPost, likePath, b.Token, nil).Code)
	assert.EqualValues(t, 1, likes())
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPost, likePath, b.Token, nil).Code)
	assert.EqualValues(t, 1, likes())
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPost, unlikePath, b.Token, nil).Code)
	assert.EqualValues(t, 0, likes())
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPost, unlikePath, b.Token, nil).Code)
	assert.EqualValues(t, 0, likes())

	w = api.do(t, http.MethodDelete, postPath, b.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, errorBody("Unauthorized"), w.Body.String())

	w = api.do(t, http.MethodDelete, postPath, a.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Post deleted successfully"}`, w.Body.String())

	assert.JSONEq(t, `[]`, api.do(t, http.MethodGet, "/posts", "", nil).Body.String())
}

func TestAuthRoutes(t *testing.T) {
	api := newTestAPI(t, testutil.NewTestDB(t).DB, nil)
	a := api.register(t, "a")

	userID, err := api.tokens.Verify(a.Token)
	require.NoError(t, err)
	assert.Equal(t, a.UserID, userID)

	cases := []struct {
		name   string
		path   string
		body   interface{}
		status int
		error  string
	}{
		{"duplicate email", "/auth/register", gin.H{"username": "z", "email": "a@x.com", "password": "pw"}, http.StatusBadRequest, "User already exists"},
		{"duplicate username", "/auth/register", gin.H{"username": "a", "email": "z@x.com", "password": "pw"}, http.StatusBadRequest, "User already exists"},
		{"register missing", "/auth/register", gin.H{"username": "z"}, http.StatusBadRequest, "Missing required fields"},
		{"register empty body", "/auth/register", nil, http.StatusBadRequest, "Missing required fields"},
		{"login missing", "/auth/login", gin.H{"email": "a@x.com"}, http.StatusBadRequest, "Email and password required"},
		{"wrong password", "/auth/login", gin.H{"email": "a@x.com", "password": "nope"}, http.StatusUnauthorized, "Invalid credentials"},
		{"unknown email", "/auth/login", gin.H{"email": "ghost@x.com", "password": "pw1"}, http.StatusUnauthorized, "Invalid credentials"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, tc.path, "", tc.body)
			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, errorBody(tc.error), w.Body.String())
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w := api.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "a@x.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, w.Code)
	var login authResponse
	decode(t, w, &login)
	assert.Equal(t, "Login successful", login.Message)
	assert.Equal(t, a.UserID, login.UserID)
	assert.NotEmpty(t, login.Token)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t, testutil.NewTestDB(t).DB, nil)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/posts"},
		{http.MethodPut, "/posts/1"},
		{http.MethodDelete, "/posts/1"},
		{http.MethodPost, "/posts/1/like"},
		{http.MethodPost, "/posts/1/unlike"},
		{http.MethodPost, "/comments"},
		{http.MethodPut, "/comments/1"},
		{http.MethodDelete, "/comments/1"},
		{http.MethodPut, "/users/1"},
		{http.MethodPost, "/users/1/follow"},
		{http.MethodPost, "/users/1/unfollow"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := api.do(t, r.method, r.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, errorBody("No token provided"), w.Body.String())

			w = api.do(t, r.method, r.path, "garbage", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, errorBody("Invalid token"), w.Body.String())
		})
	}
}

func TestPostRoutes(t *testing.T) {
	api := newTestAPI(t, testutil.NewTestDB(t).DB, nil)
	a := api.register(t, "a")
	b := api.register(t, "b")

	w := api.do(t, http.MethodPost, "/posts", a.Token, gin.H{"content": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, errorBody("Content is required"), w.Body.String())

	for i := 0; i < 3; i++ {
		w := api.do(t, http.MethodPost, "/posts", a.Token, gin.H{"content": fmt.Sprintf("post %d", i), "image_url": "http://img/1.png"})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w = api.do(t, http.MethodGet, fmt.Sprintf("/posts/user/%d", a.UserID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var posts []struct {
		ID       uint    `json:"id"`
		Content  string  `json:"content"`
		ImageURL *string `json:"image_url"`
	}
	decode(t, w, &posts)
	require.Len(t, posts, 3)
	assert.Equal(t, "post 2", posts[0].Content)
	require.NotNil(t, posts[0].ImageURL)

	assert.JSONEq(t, `[]`, api.do(t, http.MethodGet, fmt.Sprintf("/posts/user/%d", b.UserID), "", nil).Body.String())

	target := fmt.Sprintf("/posts/%d", posts[0].ID)
	w = api.do(t, http.MethodPut, target, b.Token, gin.H{"content": "mine now"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPut, target, a.Token, gin.H{"content": "edited"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Post updated successfully"}`, w.Body.String())

	w = api.do(t, http.MethodPut, "/posts/9999", a.Token, gin.H{"content": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, errorBody("Post not found"), w.Body.String())

	w = api.do(t, http.MethodPost, "/posts/9999/like", b.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodDelete, "/posts/abc", a.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, errorBody("Invalid post ID"), w.Body.String())

	w = api.do(t, http.MethodGet, "/posts/user/-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, errorBody("Invalid user ID"), w.Body.String())
}

func TestCommentRoutes(t *testing.T) {
	api := newTestAPI(t, testutil.NewTestDB(t).DB, nil)
	a := api.register(t, "a")
	b := api.register(t, "b")

	w := api.do(t, http.MethodPost, "/posts", a.Token, gin.H{"content": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)
	var post struct {
		PostID uint `json:"postId"`
	}
	decode(t, w, &post)

	w = api.do(t, http.MethodPost, "/comments", b.Token, gin.H{"post_id": post.PostID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, errorBody("Missing required fields"), w.Body.String())

	w = api.do(t, http.MethodPost, "/comments", b.Token, gin.H{"post_id": 9999, "content": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/comments", b.Token, gin.H{"post_id": "nope", "content": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, errorBody("Invalid request body"), w.Body.String())

	// string ids are accepted like numeric ones
	w = api.do(t, http.MethodPost, "/comments", b.Token, gin.H{"post_id": fmt.Sprint(post.PostID), "content": "as string"})
	require.Equal(t, http.StatusCreated, w.Code)
	var asString struct {
		CommentID uint `json:"commentId"`
	}
	decode(t, w, &asString)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodDelete, fmt.Sprintf("/comments/%d", asString.CommentID), b.Token, nil).Code)

	var ids []uint
	for _, c := range []struct {
		token, content string
	}{{b.Token, "first"}, {a.Token, "second"}} {
		w := api.do(t, http.MethodPost, "/comments", c.token, gin.H{"post_id": post.PostID, "content": c.content})
		require.Equal(t, http.StatusCreated, w.Code)
		var created struct {
			CommentID uint `json:"commentId"`
		}
		decode(t, w, &created)
		ids = append(ids, created.CommentID)
	}

	w = api.do(t, http.MethodGet, fmt.Sprintf("/comments/post/%d", post.PostID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []struct {
		Content  string `json:"content"`
		Username string `json:"username"`
	}
	decode(t, w, &comments)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "b", comments[0].Username)

	first := fmt.Sprintf("/comments/%d", ids[0])
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPut, first, a.Token, gin.H{"content": "x"}).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodDelete, first, a.Token, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPut, first, b.Token, gin.H{"content": "edited"}).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodDelete, first, b.Token, nil).Code)

	w = api.do(t, http.MethodDelete, first, b.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, errorBody("Comment not found"), w.Body.String())
}

func TestUserRoutes(t *testing.T) {
	api := newTestAPI(t, testutil.NewTestDB(t).DB, nil)
	a := api.register(t, "a")
	b := api.register(t, "b")

	self := fmt.Sprintf("/users/%d/follow", a.UserID)
	w := api.do(t, http.MethodPost, self, a.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, errorBody("Cannot follow yourself"), w.Body.String())

	follow := fmt.Sprintf("/users/%d/follow", b.UserID)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPost, follow, a.Token, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPost, follow, a.Token, nil).Code)

	w = api.do(t, http.MethodGet, fmt.Sprintf("/users/%d", b.UserID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile map[string]interface{}
	decode(t, w, &profile)
	assert.Equal(t, "b", profile["username"])
	assert.EqualValues(t, 1, profile["followers_count"])
	assert.EqualValues(t, 0, profile["following_count"])
	assert.NotContains(t, profile, "password")

	unfollow := fmt.Sprintf("/users/%d/unfollow", b.UserID)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPost, unfollow, a.Token, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPost, unfollow, a.Token, nil).Code)

	w = api.do(t, http.MethodPut, fmt.Sprintf("/users/%d", a.UserID), b.Token, gin.H{"bio": "pwned"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, errorBody("Unauthorized"), w.Body.String())

	w = api.do(t, http.MethodPut, fmt.Sprintf("/users/%d", a.UserID), a.Token, gin.H{"bio": "hi there"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, fmt.Sprintf("/users/%d", a.UserID), "", nil)
	decode(t, w, &profile)
	assert.Equal(t, "hi there", profile["bio"])
	assert.Equal(t, "a", profile["full_name"])

	w = api.do(t, http.MethodGet, "/users/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, errorBody("User not found"), w.Body.String())
}

func TestActivityRoute(t *testing.T) {
	mr := miniredis.RunT(t)
	client := cache.NewRedisClient(mr.Addr(), "", 0, 5, 1)
	t.Cleanup(func() { _ = client.Close() })

	api := newTestAPI(t, testutil.NewTestDB(t).DB, client)
	ctx := context.Background()
	require.NoError(t, api.activity.Record(ctx, queue.NewEvent(queue.EventPostCreated, 3, nil)))
	require.NoError(t, api.activity.Record(ctx, queue.NewEvent(queue.EventPostCreated, 3, nil)))

	w := api.do(t, http.MethodGet, "/users/3/activity", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":3,"activity":{"post_created":2}}`, w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t, testutil.NewTestDB(t).DB, nil)

	w := api.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	decode(t, w, &health)
	assert.Equal(t, "healthy", health["status"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = api.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "social_http_requests_total")
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestStorageFailuresAreNotLeaked(t *testing.T) {
	leak := errors.New("pq: connection reset by peer at 10.0.0.5")

	t.Run("feed", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT (.+) FROM posts AS p JOIN users u`).WillReturnError(leak)

		api := newTestAPI(t, db, nil)
		w := api.do(t, http.MethodGet, "/posts", "", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, errorBody("Failed to fetch posts"), w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("register", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).WillReturnError(leak)

		api := newTestAPI(t, db, nil)
		w := api.do(t, http.MethodPost, "/auth/register", "", gin.H{
			"username": "a", "email": "a@x.com", "password": "pw1",
		})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, errorBody("Registration failed"), w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("like", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT (.+) FROM "posts" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "content", "likes_count"}).AddRow(1, 1, "hello", 0))
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "likes"`).WillReturnError(leak)
		mock.ExpectRollback()

		api := newTestAPI(t, db, nil)
		token, err := api.tokens.Issue(2)
		require.NoError(t, err)

		w := api.do(t, http.MethodPost, "/posts/1/like", token, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, errorBody("Failed to like post"), w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"herblog/internal/api"
	"herblog/internal/app/service"
	"herblog/internal/common/security"
	"herblog/internal/domain/model"
	"herblog/internal/domain/repository/memory"
	"herblog/internal/platform/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaxUpload = 1024

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	jwt := security.NewJWT([]byte("test-secret"), 7*24*time.Hour)
	store := memory.NewStore()

	images, err := storage.NewLocalImageStore(t.TempDir())
	require.NoError(t, err)

	authService := service.NewAuthService(store.Users(), jwt)
	postService := service.NewPostService(store.Posts(), nil)
	commentService := service.NewCommentService(store.Comments(), store.Posts(), store.Users())

	return api.NewRouter(jwt, authService, postService, commentService,
		images, images.Dir(), testMaxUpload)
}

func doJSON(t *testing.T, srv http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, srv http.Handler, username, email, password string) (token string, user model.User) {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, "register response: %s", w.Body.String())

	var resp service.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	return resp.Token, *resp.User
}

func createPost(t *testing.T, srv http.Handler, token, title, content string) model.Post {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/posts", token, map[string]string{
		"title": title, "content": content,
	})
	require.Equal(t, http.StatusCreated, w.Code, "create post response: %s", w.Body.String())

	var post model.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	return post
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	token, user := registerUser(t, srv, "alice", "a@x.com", "secret1")
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice", user.Username)

	// The password hash never appears in the response.
	assert.NotContains(t, user.HashedPassword, "$2a$")

	w := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterDuplicates(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice", "a@x.com", "secret1")

	w := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice2", "email": "a@x.com", "password": "secret2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "a2@x.com", "password": "secret2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "carol",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/posts", "", map[string]string{
		"title": "Hi", "content": "World",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/posts", "not-a-token", map[string]string{
		"title": "Hi", "content": "World",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, srv, http.MethodDelete, "/api/posts/some-id", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// An expired token is rejected the same way.
	expired := security.NewJWT([]byte("test-secret"), -time.Minute)
	tok, err := expired.GenerateToken("someone")
	require.NoError(t, err)
	w = doJSON(t, srv, http.MethodPost, "/api/posts", tok, map[string]string{
		"title": "Hi", "content": "World",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostOwnership(t *testing.T) {
	srv := newTestServer(t)

	aliceToken, _ := registerUser(t, srv, "alice", "a@x.com", "secret1")
	bobToken, _ := registerUser(t, srv, "bob", "b@x.com", "secret2")

	post := createPost(t, srv, aliceToken, "Hi", "World")
	require.NotNil(t, post.Author)
	assert.Equal(t, "alice", post.Author.Username)

	// Bob cannot delete or update Alice's post.
	w := doJSON(t, srv, http.MethodDelete, "/api/posts/"+post.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, srv, http.MethodPut, "/api/posts/"+post.ID, bobToken, map[string]string{
		"title": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A nonexistent id is NotFound even when authenticated and well-formed.
	w = doJSON(t, srv, http.MethodPut, "/api/posts/missing-id", bobToken, map[string]string{
		"title": "x",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Alice can update and delete her own post.
	w = doJSON(t, srv, http.MethodPut, "/api/posts/"+post.ID, aliceToken, map[string]string{
		"title": "Hello again",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated model.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, "World", updated.Content)

	w = doJSON(t, srv, http.MethodDelete, "/api/posts/"+post.ID, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/posts/"+post.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPostsNewestFirst(t *testing.T) {
	srv := newTestServer(t)
	token, _ := registerUser(t, srv, "alice", "a@x.com", "secret1")

	p1 := createPost(t, srv, token, "P1", "first")
	p2 := createPost(t, srv, token, "P2", "second")

	w := doJSON(t, srv, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var posts []model.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, p2.ID, posts[0].ID)
	assert.Equal(t, p1.ID, posts[1].ID)
}

func TestComments(t *testing.T) {
	srv := newTestServer(t)
	token, _ := registerUser(t, srv, "alice", "a@x.com", "secret1")
	post := createPost(t, srv, token, "Hi", "World")

	// Unauthenticated comment is rejected.
	w := doJSON(t, srv, http.MethodPost, "/api/comments/"+post.ID, "", map[string]string{
		"content": "hello",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Empty content is rejected.
	w = doJSON(t, srv, http.MethodPost, "/api/comments/"+post.ID, token, map[string]string{
		"content": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Comment on a missing post is NotFound.
	w = doJSON(t, srv, http.MethodPost, "/api/comments/missing-id", token, map[string]string{
		"content": "hello",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/comments/"+post.ID, token, map[string]string{
		"content": "first",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, srv, http.MethodPost, "/api/comments/"+post.ID, token, map[string]string{
		"content": "second",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/comments/"+post.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var comments []model.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comments))
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Content)
	assert.Equal(t, "first", comments[1].Content)
	require.NotNil(t, comments[0].Author)
	assert.Equal(t, "alice", comments[0].Author.Username)

	w = doJSON(t, srv, http.MethodGet, "/api/comments/missing-id", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func multipartPost(t *testing.T, fields map[string]string, filename, contentType string, fileBody []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(fileBody)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreatePostWithImage(t *testing.T) {
	srv := newTestServer(t)
	token, _ := registerUser(t, srv, "alice", "a@x.com", "secret1")

	body, contentType := multipartPost(t,
		map[string]string{"title": "Hi", "content": "World"},
		"photo one.png", "image/png", []byte("png-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, "response: %s", w.Body.String())

	var post model.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	require.NotNil(t, post.Image)
	assert.True(t, strings.HasPrefix(*post.Image, "/uploads/"))
	assert.NotContains(t, *post.Image, " ", "filename is sanitized")

	// The stored file is served back.
	w = doJSON(t, srv, http.MethodGet, *post.Image, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())
}

func TestCreatePostRejectsBadUploads(t *testing.T) {
	srv := newTestServer(t)
	token, _ := registerUser(t, srv, "alice", "a@x.com", "secret1")

	// Non-image MIME type.
	body, contentType := multipartPost(t,
		map[string]string{"title": "Hi", "content": "World"},
		"notes.txt", "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Oversized image.
	big := bytes.Repeat([]byte("x"), testMaxUpload+1)
	body, contentType = multipartPost(t,
		map[string]string{"title": "Hi", "content": "World"},
		"big.png", "image/png", big)
	req = httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

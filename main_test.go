package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"filebox/config"
	"filebox/database"
	"filebox/repositories"
	"filebox/services"
	"filebox/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(dir, "filebox.db")},
		Storage:  config.StorageConfig{BasePath: filepath.Join(dir, "uploads"), MaxFileSize: 1 << 20},
		JWT:      config.JWTConfig{Secret: "e2e-secret"},
	}
	config.ApplyDefaults(cfg)
	require.NoError(t, cfg.Validate())

	db, err := database.Open(&cfg.Database)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	blobs, err := storage.NewLocalStore(cfg.Storage.BasePath)
	require.NoError(t, err)

	repos := repositories.NewGormRepositories(db, nil).BuildContainer()
	container := services.NewContainer(repos, blobs, cfg, nil)
	return &testServer{t: t, router: setupRouter(cfg, container)}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(token, filename, content, folder string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(s.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(s.t, err)
	if folder != "" {
		require.NoError(s.t, mw.WriteField("folder_path", folder))
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type session struct {
	Access  string
	Refresh string
}

func (s *testServer) signup(username string) session {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "email": username + "@x.com", "password": "pw-" + username,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": "pw-" + username,
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	body := decode(s.t, w)
	return session{Access: body["access_token"].(string), Refresh: body["refresh_token"].(string)}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestRegisterAndLoginErrors(t *testing.T) {
	s := newTestServer(t)
	s.signup("alice")

	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "other@x.com", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "username already exists", decode(t, w)["message"])

	w = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode(t, w)["error"])

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", decode(t, w)["message"])

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "nobody", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", decode(t, w)["message"])
}

func TestFileLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup("alice")
	bob := s.signup("bob")

	w := s.do(http.MethodGet, "/api/files", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.upload(alice.Access, "report.pdf", "%PDF-1.4 data", "/docs")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	file := decode(t, w)["file"].(map[string]interface{})
	assert.Equal(t, "report.pdf", file["original_filename"])
	assert.Equal(t, "/docs", file["folder_path"])
	assert.EqualValues(t, len("%PDF-1.4 data"), file["file_size"])
	assert.NotContains(t, file, "file_path")
	assert.NotContains(t, file, "name")
	fileURL := "/api/files/" + jsonNumber(file["id"])

	w = s.upload(alice.Access, "virus.exe", "MZ", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/files?folder_path=/docs", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["files"], 1)

	w = s.do(http.MethodGet, "/api/files", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listing := decode(t, w)
	assert.Equal(t, "/", listing["folder_path"])
	assert.Len(t, listing["files"], 0)

	w = s.do(http.MethodGet, fileURL, alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 data", w.Body.String())
	assert.Equal(t, `attachment; filename=report.pdf`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	// Other owners see a plain 404.
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w = s.do(method, fileURL, bob.Access, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	w = s.do(http.MethodPut, fileURL+"/rename", bob.Access, map[string]string{"new_name": "mine.pdf"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, bad := range []string{"abc", "0", "-1"} {
		w = s.do(http.MethodGet, "/api/files/"+bad, alice.Access, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, bad)
		assert.Equal(t, "not_found", decode(t, w)["error"])
	}

	w = s.do(http.MethodPut, fileURL+"/rename", alice.Access, map[string]string{"new_name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, fileURL+"/rename", alice.Access, map[string]string{"new_name": "final.pdf"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "final.pdf", decode(t, w)["file"].(map[string]interface{})["original_filename"])

	w = s.do(http.MethodDelete, fileURL, alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode(t, w), "warning")

	w = s.do(http.MethodGet, fileURL, alice.Access, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/files?folder_path=/docs", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["files"], 0)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup("alice")

	w := s.do(http.MethodGet, "/api/auth/verify", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password")

	w = s.do(http.MethodGet, "/api/auth/verify", alice.Refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": alice.Refresh})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := decode(t, w)
	newRefresh := rotated["refresh_token"].(string)

	w = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": alice.Refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "refresh token has been superseded", decode(t, w)["message"])

	w = s.do(http.MethodPost, "/api/auth/logout", rotated["access_token"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": newRefresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func jsonNumber(v interface{}) string {
	data, _ := json.Marshal(v)
	return string(data)
}

// Package testutil builds an isolated application for tests: an in-memory SQLite database,
// a miniredis page cache and a test configuration, plus fixtures for the blog models.
package testutil

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yatube/yatube/config"
	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/utils"
)

// TestPassword is the password of every user created by CreateUser.
const TestPassword = "s3cret-pass"

var seq atomic.Int64

// Env is one isolated application environment.
type Env struct {
	DB     *gorm.DB
	Config config.AppConfig
	Redis  *miniredis.Miniredis
}

// Setup configures the process for a test and returns the environment.
// Page size defaults to 10 unless overridden by mutate.
func Setup(t *testing.T, mutate ...func(*config.AppConfig)) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := config.AppConfig{
		SessionSecret:      "test-session-secret-0123456789abcdef",
		JWTSecret:          "test-jwt-secret",
		GinMode:            "test",
		GinPath:            filepath.Join(dir, "gin.log"),
		DBDriver:           "sqlite",
		LogLevel:           "error",
		PostsPerPage:       10,
		IndexCacheSeconds:  20,
		MediaRoot:          filepath.Join(dir, "media"),
		MaxUploadMB:        1,
		RateLimitPerMinute: 10000,
		AdminUsernames:     []string{"admin"},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	config.Set(cfg)
	cfg = config.Get()

	mr := miniredis.RunT(t)
	utils.SetRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { utils.SetRedis(nil) })

	middleware.InitSessionStore(cfg.SessionSecret, false)

	return &Env{DB: NewDB(t), Config: cfg, Redis: mr}
}

// NewDB opens a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.Open("sqlite", ":memory:", "silent")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	// Every connection to :memory: is a new database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser stores a user with TestPassword.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &models.User{Username: username, FirstName: "Test", LastName: "User", PasswordHash: hash}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateGroup stores a group with a unique slug.
func CreateGroup(t *testing.T, db *gorm.DB, title string) *models.Group {
	t.Helper()
	g := &models.Group{Title: title, Slug: fmt.Sprintf("group-%d", seq.Add(1)), Description: "about " + title}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("create group %s: %v", title, err)
	}
	return g
}

// CreatePost stores a post by author, optionally in group.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		id := group.ID
		p.GroupID = &id
	}
	if err := db.Omit("Author", "Group", "Comments").Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

// Token returns a bearer token authenticating as user.
func Token(t *testing.T, user *models.User) string {
	t.Helper()
	tok, err := utils.GenerateToken(user.ID, user.Username, utils.TokenTTL)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return tok
}

// Do sends a request through h. user may be nil for anonymous requests; form, when non-nil,
// is sent url-encoded.
func Do(h http.Handler, method, target string, user *models.User, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		tok, err := utils.GenerateToken(user.ID, user.Username, utils.TokenTTL)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// Count returns the number of rows of model matching the optional where clause.
func Count(t *testing.T, db *gorm.DB, model interface{}, where ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}

// SmallGIF is a valid 1x1 GIF image.
var SmallGIF = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

// ScriptSVG is a vector image carrying a script. Uploads must reject it.
var ScriptSVG = []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"><script>alert(1)</script></svg>`)

// MultipartBody encodes fields plus an optional file as multipart/form-data.
// It returns the body and its content type.
func MultipartBody(t *testing.T, fields map[string]string, fileField, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

// FileHeader returns the parsed upload of content, as a handler would see it.
func FileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body, ct := MultipartBody(t, nil, "image", filename, content)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	return req.MultipartForm.File["image"][0]
}

// Upload sends a multipart POST through h as user.
func Upload(t *testing.T, h http.Handler, target string, user *models.User, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	fileField := ""
	if filename != "" {
		fileField = "image"
	}
	body, ct := MultipartBody(t, fields, fileField, filename, content)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", ct)
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+Token(t, user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

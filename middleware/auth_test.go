package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/testutil"
)

func TestLoginURL(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/create/", "/auth/login/?next=/create/"},
		{"/posts/5/edit/", "/auth/login/?next=/posts/5/edit/"},
		{"/follow/?page=2", "/auth/login/?next=/follow/%3Fpage%3D2"},
	}
	for _, tt := range tests {
		if got := middleware.LoginURL(tt.next); got != tt.want {
			t.Errorf("LoginURL(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", "/"},
		{"/create/", "/create/"},
		{"https://evil.example/", "/"},
		{"//evil.example/", "/"},
		{"/\\evil.example", "/"},
		{"create/", "/"},
	}
	for _, tt := range tests {
		if got := middleware.SafeNext(tt.next, "/"); got != tt.want {
			t.Errorf("SafeNext(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func TestIsAdmin(t *testing.T) {
	admins := []string{" Admin ", "root"}
	if !middleware.IsAdmin(&models.User{Username: "admin"}, admins) {
		t.Error("expected admin to match case-insensitively")
	}
	if middleware.IsAdmin(&models.User{Username: "leo"}, admins) {
		t.Error("leo is not an admin")
	}
	if middleware.IsAdmin(nil, admins) {
		t.Error("anonymous is not an admin")
	}
}

// whoami answers with the username LoadUser resolved, or "anonymous".
func newAuthRouter(env *testutil.Env) *gin.Engine {
	r := gin.New()
	r.Use(middleware.LoadUser(env.DB))
	r.GET("/whoami", func(ctx *gin.Context) {
		if u, ok := middleware.CurrentUser(ctx); ok {
			ctx.String(http.StatusOK, u.Username)
			return
		}
		ctx.String(http.StatusOK, "anonymous")
	})
	r.GET("/private/", middleware.LoginRequired(), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "secret")
	})
	r.GET("/admin/", middleware.LoginRequired(), middleware.AdminRequired(env.Config.AdminUsernames), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "admin area")
	})
	r.POST("/session", func(ctx *gin.Context) {
		var user models.User
		env.DB.Where("username = ?", ctx.PostForm("username")).First(&user)
		if err := middleware.StartSession(ctx, &user); err != nil {
			ctx.String(http.StatusInternalServerError, err.Error())
			return
		}
		ctx.Status(http.StatusNoContent)
	})
	return r
}

func TestLoadUser_Bearer(t *testing.T) {
	env := testutil.Setup(t)
	leo := testutil.CreateUser(t, env.DB, "leo")
	r := newAuthRouter(env)

	rec := testutil.Do(r, http.MethodGet, "/whoami", leo, nil)
	if rec.Body.String() != "leo" {
		t.Errorf("whoami: got %q, want leo", rec.Body.String())
	}

	rec = testutil.Do(r, http.MethodGet, "/whoami", nil, nil)
	if rec.Body.String() != "anonymous" {
		t.Errorf("whoami anonymous: got %q", rec.Body.String())
	}
}

func TestLoadUser_InvalidBearer(t *testing.T) {
	env := testutil.Setup(t)
	r := newAuthRouter(env)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestLoadUser_SessionCookie(t *testing.T) {
	env := testutil.Setup(t)
	testutil.CreateUser(t, env.DB, "leo")
	r := newAuthRouter(env)

	form := map[string][]string{"username": {"leo"}}
	rec := testutil.Do(r, http.MethodPost, "/session", nil, form)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("start session: status %d body %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Body.String() != "leo" {
		t.Errorf("whoami with cookie: got %q, want leo", rec.Body.String())
	}
}

func TestLoginRequired_RedirectsAnonymous(t *testing.T) {
	env := testutil.Setup(t)
	r := newAuthRouter(env)

	rec := testutil.Do(r, http.MethodGet, "/private/", nil, nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("status: got %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth/login/?next=/private/" {
		t.Errorf("Location: got %q", loc)
	}
}

func TestAdminRequired(t *testing.T) {
	env := testutil.Setup(t)
	admin := testutil.CreateUser(t, env.DB, "admin")
	leo := testutil.CreateUser(t, env.DB, "leo")
	r := newAuthRouter(env)

	if rec := testutil.Do(r, http.MethodGet, "/admin/", leo, nil); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin: got %d, want 403", rec.Code)
	}
	if rec := testutil.Do(r, http.MethodGet, "/admin/", admin, nil); rec.Code != http.StatusOK {
		t.Errorf("admin: got %d, want 200", rec.Code)
	}
}

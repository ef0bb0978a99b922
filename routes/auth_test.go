package routes_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/testutil"
)

func withCookies(req *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func postJSONBody(r *gin.Engine, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSignup(t *testing.T) {
	env, r := newApp(t)

	form := url.Values{
		"username":   {"new.user"},
		"first_name": {"New"},
		"last_name":  {"User"},
		"email":      {"new@example.com"},
		"password1":  {"long-enough-pw"},
		"password2":  {"long-enough-pw"},
	}
	rec := testutil.Do(r, http.MethodPost, "/auth/signup/", nil, form)
	expectRedirect(t, rec, "/")

	var user models.User
	if err := env.DB.Where("username = ?", "new.user").First(&user).Error; err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.PasswordHash == "" || user.PasswordHash == "long-enough-pw" {
		t.Error("password must be stored hashed")
	}

	// The signup response logs the new user in.
	req := withCookies(httptest.NewRequest(http.MethodGet, "/create/", nil), rec)
	create := httptest.NewRecorder()
	r.ServeHTTP(create, req)
	if create.Code != http.StatusOK {
		t.Errorf("GET /create/ after signup: got %d, want 200", create.Code)
	}
}

func TestSignup_Errors(t *testing.T) {
	env, r := newApp(t)
	testutil.CreateUser(t, env.DB, "taken")

	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"missing username", url.Values{"password1": {"long-enough-pw"}, "password2": {"long-enough-pw"}}, "username"},
		{"bad username", url.Values{"username": {"has space"}, "password1": {"long-enough-pw"}, "password2": {"long-enough-pw"}}, "username"},
		{"taken username", url.Values{"username": {"taken"}, "password1": {"long-enough-pw"}, "password2": {"long-enough-pw"}}, "username"},
		{"short password", url.Values{"username": {"fresh"}, "password1": {"short"}, "password2": {"short"}}, "password1"},
		{"mismatch", url.Values{"username": {"fresh"}, "password1": {"long-enough-pw"}, "password2": {"other-long-pw"}}, "password2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.Do(r, http.MethodPost, "/auth/signup/", nil, tt.form)
			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200", rec.Code)
			}
			var got struct {
				Form struct {
					Errors map[string][]string `json:"errors"`
				} `json:"form"`
			}
			decode(t, rec, &got)
			if len(got.Form.Errors[tt.field]) == 0 {
				t.Errorf("expected error on %s, got %v", tt.field, got.Form.Errors)
			}
		})
	}
	if n := testutil.Count(t, env.DB, &models.User{}); n != 1 {
		t.Errorf("users: got %d, want only the fixture", n)
	}
}

func TestLogin_FollowsLocalNext(t *testing.T) {
	env, r := newApp(t)
	testutil.CreateUser(t, env.DB, "leo")

	rec := testutil.Do(r, http.MethodPost, "/auth/login/?next=/create/", nil, url.Values{
		"username": {"leo"},
		"password": {testutil.TestPassword},
	})
	expectRedirect(t, rec, "/create/")

	req := withCookies(httptest.NewRequest(http.MethodGet, "/create/", nil), rec)
	create := httptest.NewRecorder()
	r.ServeHTTP(create, req)
	if create.Code != http.StatusOK {
		t.Errorf("GET /create/ with session: got %d, want 200", create.Code)
	}

	rec = testutil.Do(r, http.MethodPost, "/auth/login/", nil, url.Values{
		"username": {"leo"},
		"password": {testutil.TestPassword},
		"next":     {"https://evil.example/"},
	})
	expectRedirect(t, rec, "/")
}

func TestLogin_WrongPassword(t *testing.T) {
	env, r := newApp(t)
	testutil.CreateUser(t, env.DB, "leo")

	rec := testutil.Do(r, http.MethodPost, "/auth/login/", nil, url.Values{
		"username": {"leo"},
		"password": {"nope"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("failed login must not set a session")
	}
	if !strings.Contains(rec.Body.String(), "correct username and password") {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestLogout_EndsSession(t *testing.T) {
	env, r := newApp(t)
	testutil.CreateUser(t, env.DB, "leo")

	login := testutil.Do(r, http.MethodPost, "/auth/login/", nil, url.Values{
		"username": {"leo"},
		"password": {testutil.TestPassword},
	})
	logout := httptest.NewRecorder()
	r.ServeHTTP(logout, withCookies(httptest.NewRequest(http.MethodGet, "/auth/logout/", nil), login))
	if logout.Code != http.StatusOK {
		t.Fatalf("logout: got %d", logout.Code)
	}

	req := withCookies(httptest.NewRequest(http.MethodGet, "/create/", nil), logout)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	expectRedirect(t, rec, "/auth/login/?next=/create/")
}

func TestToken_IssueAndRevoke(t *testing.T) {
	env, r := newApp(t)
	testutil.CreateUser(t, env.DB, "leo")

	bad := postJSONBody(r, http.MethodPost, "/auth/token/", "", `{"username":"leo","password":"nope"}`)
	if bad.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: got %d, want 401", bad.Code)
	}

	rec := postJSONBody(r, http.MethodPost, "/auth/token/", "", `{"username":"leo","password":"`+testutil.TestPassword+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("token: got %d; body=%s", rec.Code, rec.Body.String())
	}
	var got struct {
		Token string `json:"token"`
	}
	decode(t, rec, &got)
	if got.Token == "" {
		t.Fatal("empty token")
	}

	if rec := postJSONBody(r, http.MethodGet, "/follow/", got.Token, ""); rec.Code != http.StatusOK {
		t.Errorf("feed with token: got %d, want 200", rec.Code)
	}
	if rec := postJSONBody(r, http.MethodGet, "/auth/logout/", got.Token, ""); rec.Code != http.StatusOK {
		t.Fatalf("logout: got %d", rec.Code)
	}
	if rec := postJSONBody(r, http.MethodGet, "/follow/", got.Token, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("revoked token: got %d, want 401", rec.Code)
	}
}

func TestAdminGroups(t *testing.T) {
	env, r := newApp(t)
	admin := testutil.CreateUser(t, env.DB, "admin")
	leo := testutil.CreateUser(t, env.DB, "leo")
	adminToken := testutil.Token(t, admin)

	if rec := postJSONBody(r, http.MethodPost, "/admin/groups/", testutil.Token(t, leo), `{"title":"Cats","slug":"cats"}`); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin create: got %d, want 403", rec.Code)
	}

	rec := postJSONBody(r, http.MethodPost, "/admin/groups/", adminToken, `{"title":"Cats","slug":"cats","description":"All about cats"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create group: got %d; body=%s", rec.Code, rec.Body.String())
	}
	if rec := postJSONBody(r, http.MethodPost, "/admin/groups/", adminToken, `{"title":"Cats again","slug":"cats"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate slug: got %d, want 409", rec.Code)
	}
	if rec := postJSONBody(r, http.MethodPost, "/admin/groups/", adminToken, `{"title":"Bad","slug":"no spaces"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad slug: got %d, want 400", rec.Code)
	}

	var list struct {
		Items []models.Group `json:"items"`
	}
	decode(t, postJSONBody(r, http.MethodGet, "/admin/groups/", adminToken, ""), &list)
	if len(list.Items) != 1 || list.Items[0].Slug != "cats" {
		t.Fatalf("groups: got %+v", list.Items)
	}

	post := testutil.CreatePost(t, env.DB, leo, &list.Items[0], "meow")
	if rec := postJSONBody(r, http.MethodDelete, "/admin/groups/cats/", adminToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete group: got %d", rec.Code)
	}
	var stored models.Post
	if err := env.DB.First(&stored, post.ID).Error; err != nil {
		t.Fatalf("post deleted with its group: %v", err)
	}
	if stored.GroupID != nil {
		t.Errorf("GroupID: got %d, want nil", *stored.GroupID)
	}
	expectNotFound(t, postJSONBody(r, http.MethodDelete, "/admin/groups/cats/", adminToken, ""))
	expectNotFound(t, testutil.Do(r, http.MethodGet, "/group/cats/", nil, nil))
}

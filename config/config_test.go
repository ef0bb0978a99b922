package config

import (
	"os"
	"path/filepath"
	"testing"
)

func resetConfig(t *testing.T) {
	t.Helper()
	prev, prevLoaded := cfg, loaded
	cfg, loaded = AppConfig{}, false
	t.Cleanup(func() { cfg, loaded = prev, prevLoaded })
}

const yamlConfig = `
app:
  AppPort: "9000"
  SessionSecret: session-from-file
  JWTSecret: jwt-from-file
  AdminUsernames: [admin, root]
database:
  Driver: postgres
  DBUser: blog
  DBPassword: pw
  DBName: yatube
blog:
  PostsPerPage: 20
  IndexCacheSeconds: 60
  MediaRoot: /srv/media
`

func TestLoad_YAML(t *testing.T) {
	resetConfig(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yamlConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POSTS_PER_PAGE", "5")

	c := Load(path)
	if c.AppPort != "9000" || c.SessionSecret != "session-from-file" || c.JWTSecret != "jwt-from-file" {
		t.Errorf("app section: %+v", c)
	}
	if len(c.AdminUsernames) != 2 || c.AdminUsernames[1] != "root" {
		t.Errorf("AdminUsernames: got %v", c.AdminUsernames)
	}
	if c.DBDriver != "postgres" || c.DBPort != "5432" {
		t.Errorf("database: driver=%s port=%s", c.DBDriver, c.DBPort)
	}
	if c.PostsPerPage != 5 {
		t.Errorf("PostsPerPage: got %d, want env override 5", c.PostsPerPage)
	}
	if c.IndexCacheSeconds != 60 || c.MediaRoot != "/srv/media" {
		t.Errorf("blog section: cache=%d media=%s", c.IndexCacheSeconds, c.MediaRoot)
	}
	if Get().AppPort != "9000" {
		t.Error("Get must return the loaded config")
	}
}

func TestLoad_JSONAndDefaults(t *testing.T) {
	resetConfig(t)
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"app": {"SessionSecret": "s", "JWTSecret": "j"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	c := Load(path)
	if c.AppPort != "8000" || c.DBDriver != "mysql" || c.PostsPerPage != 10 || c.IndexCacheSeconds != 20 {
		t.Errorf("defaults: %+v", c)
	}
	if c.MaxUploadMB != 10 || c.MediaRoot != "media" || c.RateLimitPerMinute != 60 {
		t.Errorf("defaults: %+v", c)
	}
}

func TestSet_AppliesDefaults(t *testing.T) {
	resetConfig(t)
	Set(AppConfig{SessionSecret: "s", JWTSecret: "j", PostsPerPage: 3})
	c := Get()
	if c.PostsPerPage != 3 || c.IndexCacheSeconds != 20 {
		t.Errorf("Set: %+v", c)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		c    AppConfig
		want string
	}{
		{"uri wins", AppConfig{DatabaseURI: "custom", DBDriver: "postgres"}, "custom"},
		{"mysql", AppConfig{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "d"},
			"u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=True&loc=Local"},
		{"postgres", AppConfig{DBDriver: "postgres", DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d"},
			"host=h port=5432 user=u password=p dbname=d sslmode=disable TimeZone=UTC"},
		{"sqlite", AppConfig{DBDriver: "sqlite", DBName: "blog"}, "blog.sqlite3"},
	}
	for _, tt := range tests {
		if got := DSN(tt.c); got != tt.want {
			t.Errorf("%s: DSN = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "", "silent"); err == nil {
		t.Error("expected an error for an unsupported driver")
	}
}

func TestOpenAndMigrate_SQLite(t *testing.T) {
	conn, err := Open("sqlite", ":memory:", "silent")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sqlDB, _ := conn.DB()
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	if err := Migrate(conn); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	for _, table := range []string{"users", "groups", "posts", "comments", "follows"} {
		if !conn.Migrator().HasTable(table) {
			t.Errorf("table %s not created", table)
		}
	}
}

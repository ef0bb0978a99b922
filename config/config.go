package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for a config file when none is given.
var DefaultPath = filepath.Join("config", "config.json")

// AppConfig holds environment driven configuration values.
// Secrets have no defaults and must come from a config file or the environment.
type AppConfig struct {
	AppPort            string
	SessionSecret      string
	JWTSecret          string
	SecureCookies      bool
	AllowedOrigins     []string
	AdminUsernames     []string
	RateLimitPerMinute int // auth endpoints, per client IP

	DBDriver    string // mysql, postgres or sqlite
	DatabaseURI string // overrides the DB* fields below
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	GinMode string
	GinPath string // access log file

	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	PostsPerPage      int
	IndexCacheSeconds int
	MediaRoot         string
	MaxUploadMB       int
}

// fileConfig is the grouped layout of config.json / config.yaml.
type fileConfig struct {
	App struct {
		AppPort            string   `json:"AppPort" yaml:"AppPort"`
		SessionSecret      string   `json:"SessionSecret" yaml:"SessionSecret"`
		JWTSecret          string   `json:"JWTSecret" yaml:"JWTSecret"`
		SecureCookies      bool     `json:"SecureCookies" yaml:"SecureCookies"`
		AllowedOrigins     []string `json:"AllowedOrigins" yaml:"AllowedOrigins"`
		AdminUsernames     []string `json:"AdminUsernames" yaml:"AdminUsernames"`
		RateLimitPerMinute int      `json:"RateLimitPerMinute" yaml:"RateLimitPerMinute"`
	} `json:"app" yaml:"app"`
	Gin struct {
		Mode    string `json:"Mode" yaml:"Mode"`
		LogPath string `json:"LogPath" yaml:"LogPath"`
	} `json:"gin" yaml:"gin"`
	Database struct {
		Driver      string `json:"Driver" yaml:"Driver"`
		DatabaseURI string `json:"DatabaseURI" yaml:"DatabaseURI"`
		DBHost      string `json:"DBHost" yaml:"DBHost"`
		DBPort      string `json:"DBPort" yaml:"DBPort"`
		DBUser      string `json:"DBUser" yaml:"DBUser"`
		DBPassword  string `json:"DBPassword" yaml:"DBPassword"`
		DBName      string `json:"DBName" yaml:"DBName"`
	} `json:"database" yaml:"database"`
	Redis struct {
		RedisHost     string `json:"RedisHost" yaml:"RedisHost"`
		RedisPort     int    `json:"RedisPort" yaml:"RedisPort"`
		RedisDB       int    `json:"RedisDB" yaml:"RedisDB"`
		RedisPassword string `json:"RedisPassword" yaml:"RedisPassword"`
	} `json:"redis" yaml:"redis"`
	Log struct {
		Level      string `json:"Level" yaml:"Level"`
		Path       string `json:"Path" yaml:"Path"`
		MaxSizeMB  int    `json:"MaxSizeMB" yaml:"MaxSizeMB"`
		MaxBackups int    `json:"MaxBackups" yaml:"MaxBackups"`
		MaxAgeDays int    `json:"MaxAgeDays" yaml:"MaxAgeDays"`
		Compress   bool   `json:"Compress" yaml:"Compress"`
	} `json:"log" yaml:"log"`
	Blog struct {
		PostsPerPage      int    `json:"PostsPerPage" yaml:"PostsPerPage"`
		IndexCacheSeconds int    `json:"IndexCacheSeconds" yaml:"IndexCacheSeconds"`
		MediaRoot         string `json:"MediaRoot" yaml:"MediaRoot"`
		MaxUploadMB       int    `json:"MaxUploadMB" yaml:"MaxUploadMB"`
	} `json:"blog" yaml:"blog"`
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration once during boot.
// An empty path means DefaultPath; a missing file is not an error.
func Load(path string) AppConfig {
	if loaded {
		return cfg
	}
	if path == "" {
		path = DefaultPath
	}

	// file -> defaults -> environment
	if err := loadConfigFile(path, &cfg); err != nil {
		log.Fatalf("invalid config file %s: %v", path, err)
	}
	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		log.Fatal(err)
	}

	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET must be set in the config file or environment")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in the config file or environment")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load("")
	}
	return cfg
}

// Set replaces the cached configuration. Tests and the CLI use it to run without a file.
func Set(c AppConfig) {
	applyDefaults(&c)
	cfg = c
	loaded = true
}

func loadConfigFile(path string, out *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &fc); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	}
	fc.merge(out)
	return nil
}

// merge copies every value set in the file onto out.
func (fc *fileConfig) merge(out *AppConfig) {
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setList := func(dst *[]string, v []string) {
		if len(v) > 0 {
			*dst = v
		}
	}

	setStr(&out.AppPort, fc.App.AppPort)
	setStr(&out.SessionSecret, fc.App.SessionSecret)
	setStr(&out.JWTSecret, fc.App.JWTSecret)
	out.SecureCookies = out.SecureCookies || fc.App.SecureCookies
	setList(&out.AllowedOrigins, fc.App.AllowedOrigins)
	setList(&out.AdminUsernames, fc.App.AdminUsernames)
	setInt(&out.RateLimitPerMinute, fc.App.RateLimitPerMinute)

	setStr(&out.GinMode, fc.Gin.Mode)
	setStr(&out.GinPath, fc.Gin.LogPath)

	setStr(&out.DBDriver, fc.Database.Driver)
	setStr(&out.DatabaseURI, fc.Database.DatabaseURI)
	setStr(&out.DBHost, fc.Database.DBHost)
	setStr(&out.DBPort, fc.Database.DBPort)
	setStr(&out.DBUser, fc.Database.DBUser)
	setStr(&out.DBPassword, fc.Database.DBPassword)
	setStr(&out.DBName, fc.Database.DBName)

	setStr(&out.RedisHost, fc.Redis.RedisHost)
	setInt(&out.RedisPort, fc.Redis.RedisPort)
	setInt(&out.RedisDB, fc.Redis.RedisDB)
	setStr(&out.RedisPassword, fc.Redis.RedisPassword)

	setStr(&out.LogLevel, fc.Log.Level)
	setStr(&out.LogPath, fc.Log.Path)
	setInt(&out.LogMaxSizeMB, fc.Log.MaxSizeMB)
	setInt(&out.LogMaxBackups, fc.Log.MaxBackups)
	setInt(&out.LogMaxAgeDays, fc.Log.MaxAgeDays)
	out.LogCompress = out.LogCompress || fc.Log.Compress

	setInt(&out.PostsPerPage, fc.Blog.PostsPerPage)
	setInt(&out.IndexCacheSeconds, fc.Blog.IndexCacheSeconds)
	setStr(&out.MediaRoot, fc.Blog.MediaRoot)
	setInt(&out.MaxUploadMB, fc.Blog.MaxUploadMB)
}

func applyDefaults(c *AppConfig) {
	orStr := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	orInt := func(dst *int, def int) {
		if *dst == 0 {
			*dst = def
		}
	}

	orStr(&c.AppPort, "8000")
	orInt(&c.RateLimitPerMinute, 60)
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	orStr(&c.DBDriver, "mysql")
	orStr(&c.DBHost, "127.0.0.1")
	if c.DBDriver == "postgres" {
		orStr(&c.DBPort, "5432")
	} else {
		orStr(&c.DBPort, "3306")
	}
	orStr(&c.DBName, "yatube")
	orStr(&c.GinMode, "release")
	orStr(&c.GinPath, filepath.Join("logs", "gin.log"))
	orStr(&c.RedisHost, "127.0.0.1")
	orInt(&c.RedisPort, 6379)
	orStr(&c.LogLevel, "info")
	orInt(&c.PostsPerPage, 10)
	orInt(&c.IndexCacheSeconds, 20)
	orStr(&c.MediaRoot, "media")
	orInt(&c.MaxUploadMB, 10)
}

type envBinding struct {
	key   string
	apply func(c *AppConfig, v string) error
}

func envString(f func(*AppConfig) *string) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		*f(c) = v
		return nil
	}
}

func envInt(f func(*AppConfig) *int) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		i, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*f(c) = i
		return nil
	}
}

func envBool(f func(*AppConfig) *bool) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		*f(c) = v == "true"
		return nil
	}
}

func envList(f func(*AppConfig) *[]string) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		*f(c) = splitAndTrim(v)
		return nil
	}
}

var envBindings = []envBinding{
	{"APP_PORT", envString(func(c *AppConfig) *string { return &c.AppPort })},
	{"SESSION_SECRET", envString(func(c *AppConfig) *string { return &c.SessionSecret })},
	{"JWT_SECRET", envString(func(c *AppConfig) *string { return &c.JWTSecret })},
	{"SECURE_COOKIES", envBool(func(c *AppConfig) *bool { return &c.SecureCookies })},
	{"CORS_ALLOWED_ORIGINS", envList(func(c *AppConfig) *[]string { return &c.AllowedOrigins })},
	{"ADMIN_USERNAMES", envList(func(c *AppConfig) *[]string { return &c.AdminUsernames })},
	{"RATE_LIMIT_PER_MINUTE", envInt(func(c *AppConfig) *int { return &c.RateLimitPerMinute })},
	{"GIN_MODE", envString(func(c *AppConfig) *string { return &c.GinMode })},
	{"GIN_PATH", envString(func(c *AppConfig) *string { return &c.GinPath })},
	{"DB_DRIVER", envString(func(c *AppConfig) *string { return &c.DBDriver })},
	{"DATABASE_URI", envString(func(c *AppConfig) *string { return &c.DatabaseURI })},
	{"DB_HOST", envString(func(c *AppConfig) *string { return &c.DBHost })},
	{"DB_PORT", envString(func(c *AppConfig) *string { return &c.DBPort })},
	{"DB_USER", envString(func(c *AppConfig) *string { return &c.DBUser })},
	{"DB_PASSWORD", envString(func(c *AppConfig) *string { return &c.DBPassword })},
	{"DB_NAME", envString(func(c *AppConfig) *string { return &c.DBName })},
	{"REDIS_HOST", envString(func(c *AppConfig) *string { return &c.RedisHost })},
	{"REDIS_PORT", envInt(func(c *AppConfig) *int { return &c.RedisPort })},
	{"REDIS_DB", envInt(func(c *AppConfig) *int { return &c.RedisDB })},
	{"REDIS_PASSWORD", envString(func(c *AppConfig) *string { return &c.RedisPassword })},
	{"LOG_LEVEL", envString(func(c *AppConfig) *string { return &c.LogLevel })},
	{"LOG_PATH", envString(func(c *AppConfig) *string { return &c.LogPath })},
	{"LOG_MAX_SIZE_MB", envInt(func(c *AppConfig) *int { return &c.LogMaxSizeMB })},
	{"LOG_MAX_BACKUPS", envInt(func(c *AppConfig) *int { return &c.LogMaxBackups })},
	{"LOG_MAX_AGE_DAYS", envInt(func(c *AppConfig) *int { return &c.LogMaxAgeDays })},
	{"LOG_COMPRESS", envBool(func(c *AppConfig) *bool { return &c.LogCompress })},
	{"POSTS_PER_PAGE", envInt(func(c *AppConfig) *int { return &c.PostsPerPage })},
	{"INDEX_CACHE_SECONDS", envInt(func(c *AppConfig) *int { return &c.IndexCacheSeconds })},
	{"MEDIA_ROOT", envString(func(c *AppConfig) *string { return &c.MediaRoot })},
	{"MAX_UPLOAD_MB", envInt(func(c *AppConfig) *int { return &c.MaxUploadMB })},
}

// applyEnvOverrides lets every non-empty variable of envBindings win over file and defaults.
func applyEnvOverrides(c *AppConfig) error {
	for _, b := range envBindings {
		v := os.Getenv(b.key)
		if v == "" {
			continue
		}
		if err := b.apply(c, v); err != nil {
			return fmt.Errorf("invalid value for %s: %w", b.key, err)
		}
	}
	return nil
}

func splitAndTrim(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(item); s != "" {
			items = append(items, s)
		}
	}
	return items
}

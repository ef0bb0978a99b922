package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yatube/yatube/config"
	"github.com/yatube/yatube/controllers"
	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, cfg config.AppConfig) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log and panic recovery go to their own rolling file.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg)
	if err == nil {
		r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
		r.Use(ginzap.RecoveryWithZap(gl, true))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.LoadUser(db))

	r.Static("/media", cfg.MediaRoot)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	media := utils.NewMediaStore(cfg.MediaRoot, cfg.MaxUploadMB)
	postController := controllers.NewPostController(db, media, cfg)
	followController := controllers.NewFollowController(db, cfg)
	authController := controllers.NewAuthController(db)
	adminController := controllers.NewAdminController(db)

	indexTTL := time.Duration(cfg.IndexCacheSeconds) * time.Second
	r.GET("/", middleware.CachePage(indexTTL, controllers.IndexCacheName), postController.Index)
	r.GET("/group/:slug/", postController.GroupPosts)
	r.GET("/profile/:username/", postController.Profile)
	r.GET("/posts/:id/", postController.PostDetail)

	protected := r.Group("")
	protected.Use(middleware.LoginRequired())
	getPost(protected, "/create/", postController.PostCreate)
	getPost(protected, "/delete/:id", postController.DeletePost)
	getPost(protected, "/posts/:id/edit/", postController.PostEdit)
	getPost(protected, "/posts/:id/comment/", postController.AddComment)
	protected.GET("/follow/", followController.FollowIndex)
	getPost(protected, "/profile/:username/follow/", followController.ProfileFollow)
	getPost(protected, "/profile/:username/unfollow/", followController.ProfileUnfollow)

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.NewRateLimiter(cfg.RateLimitPerMinute).Middleware())
	getPost(authGroup, "/signup/", authController.Signup)
	getPost(authGroup, "/login/", authController.Login)
	getPost(authGroup, "/logout/", authController.Logout)
	authGroup.POST("/token/", authController.Token)

	admin := r.Group("/admin")
	admin.Use(middleware.LoginRequired(), middleware.AdminRequired(cfg.AdminUsernames))
	admin.GET("/groups/", adminController.ListGroups)
	admin.POST("/groups/", adminController.CreateGroup)
	admin.DELETE("/groups/:slug/", adminController.DeleteGroup)
	admin.DELETE("/cache/", adminController.ClearCache)

	r.NoRoute(utils.NotFound)

	return r
}

func getPost(g *gin.RouterGroup, path string, h gin.HandlerFunc) {
	g.GET(path, h)
	g.POST(path, h)
}

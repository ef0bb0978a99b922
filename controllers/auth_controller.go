package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yatube/yatube/forms"
	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/utils"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// AuthController handles signup, session login/logout and API tokens.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

type signupForm struct {
	Username  string       `json:"username"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Email     string       `json:"email"`
	Errors    forms.Errors `json:"errors,omitempty"`
}

// Signup registers a local account and logs it in.
func (a *AuthController) Signup(ctx *gin.Context) {
	if ctx.Request.Method != http.MethodPost {
		utils.Success(ctx, gin.H{"form": signupForm{}})
		return
	}

	form := signupForm{
		Username:  strings.TrimSpace(ctx.PostForm("username")),
		FirstName: strings.TrimSpace(ctx.PostForm("first_name")),
		LastName:  strings.TrimSpace(ctx.PostForm("last_name")),
		Email:     strings.TrimSpace(ctx.PostForm("email")),
		Errors:    forms.Errors{},
	}
	password1 := ctx.PostForm("password1")
	password2 := ctx.PostForm("password2")

	switch {
	case form.Username == "":
		form.Errors.Add("username", forms.MsgRequired)
	case len([]rune(form.Username)) > 150 || !usernamePattern.MatchString(form.Username):
		form.Errors.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	default:
		var n int64
		if err := a.db.Model(&models.User{}).Where("username = ?", form.Username).Count(&n).Error; err != nil {
			serverError(ctx, 50050, "failed to check username", err)
			return
		}
		if n > 0 {
			form.Errors.Add("username", "A user with that username already exists.")
		}
	}
	if password1 == "" {
		form.Errors.Add("password1", forms.MsgRequired)
	} else if len(password1) < utils.MinPasswordLength {
		form.Errors.Add("password1", "This password is too short. It must contain at least 8 characters.")
	}
	if password1 != password2 {
		form.Errors.Add("password2", "The two password fields didn't match.")
	}
	if form.Errors.Any() {
		utils.Success(ctx, gin.H{"form": form})
		return
	}

	hash, err := utils.HashPassword(password1)
	if err != nil {
		serverError(ctx, 50051, "failed to hash password", err)
		return
	}
	user := models.User{
		Username:     form.Username,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		serverError(ctx, 50052, "failed to create user", err)
		return
	}
	if err := middleware.StartSession(ctx, &user); err != nil {
		serverError(ctx, 50053, "failed to start session", err)
		return
	}
	utils.Sugar.Infof("user signed up username=%s", user.Username)
	utils.Redirect(ctx, "/")
}

// Login checks credentials, starts a browser session and follows next.
func (a *AuthController) Login(ctx *gin.Context) {
	next := middleware.SafeNext(ctx.Query("next"), "/")
	if ctx.Request.Method != http.MethodPost {
		utils.Success(ctx, gin.H{"next": next})
		return
	}
	if v := ctx.PostForm("next"); v != "" {
		next = middleware.SafeNext(v, "/")
	}

	user, err := a.authenticate(ctx.PostForm("username"), ctx.PostForm("password"))
	if err != nil {
		serverError(ctx, 50054, "failed to load user", err)
		return
	}
	if user == nil {
		errs := forms.Errors{}
		errs.Add("__all__", "Please enter a correct username and password. Note that both fields may be case-sensitive.")
		utils.Success(ctx, gin.H{"next": next, "errors": errs})
		return
	}
	if err := middleware.StartSession(ctx, user); err != nil {
		serverError(ctx, 50055, "failed to start session", err)
		return
	}
	utils.Redirect(ctx, next)
}

// Logout ends the session and revokes the bearer token if one authenticated the request.
func (a *AuthController) Logout(ctx *gin.Context) {
	if err := middleware.EndSession(ctx); err != nil {
		utils.Sugar.Warnf("end session failed: %v", err)
	}
	if v, ok := ctx.Get(middleware.ContextClaimsKey); ok {
		if claims, ok := v.(*utils.Claims); ok {
			expiresAt := time.Now().Add(utils.TokenTTL)
			if claims.ExpiresAt != nil {
				expiresAt = claims.ExpiresAt.Time
			}
			utils.RevokeToken(ctx.GetString(middleware.ContextTokenKey), expiresAt)
		}
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Token issues an API token for JSON credentials.
func (a *AuthController) Token(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}
	user, err := a.authenticate(req.Username, req.Password)
	if err != nil {
		serverError(ctx, 50056, "failed to load user", err)
		return
	}
	if user == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	token, err := utils.GenerateToken(user.ID, user.Username, utils.TokenTTL)
	if err != nil {
		serverError(ctx, 50057, "failed to generate token", err)
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// authenticate returns the user for valid credentials and nil for invalid ones.
func (a *AuthController) authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := a.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, nil
	}
	return &user, nil
}

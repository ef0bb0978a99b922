package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"gorm.io/gorm"

	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/utils"
)

const (
	// ContextUserKey stores the authenticated *models.User inside Gin context.
	ContextUserKey = "current_user"
	// ContextTokenKey stores the bearer token the request was authenticated with.
	ContextTokenKey = "auth_token"
	// ContextClaimsKey stores the parsed claims of that token.
	ContextClaimsKey = "auth_claims"

	// SessionName is the cookie holding the browser session.
	SessionName = "yatube_session"
	// LoginPath is where anonymous visitors of protected pages are sent.
	LoginPath = "/auth/login/"

	sessionUserIDKey = "user_id"
)

var store sessions.Store

// InitSessionStore configures the cookie store used for browser logins.
func InitSessionStore(secret string, secure bool) {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   14 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store = cs
}

// LoadUser resolves the requester from a bearer token or the session cookie.
// Anonymous requests pass through untouched.
func LoadUser(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var userID uint

		if token := bearerToken(ctx); token != "" {
			claims, err := utils.ParseToken(token)
			if err != nil {
				utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
				ctx.Abort()
				return
			}
			userID = claims.UserID
			ctx.Set(ContextTokenKey, token)
			ctx.Set(ContextClaimsKey, claims)
		} else if store != nil {
			sess, _ := store.Get(ctx.Request, SessionName)
			if id, ok := sess.Values[sessionUserIDKey].(uint); ok {
				userID = id
			}
		}

		if userID != 0 {
			var user models.User
			err := db.First(&user, userID).Error
			switch {
			case err == nil:
				ctx.Set(ContextUserKey, &user)
			case !errors.Is(err, gorm.ErrRecordNotFound):
				utils.Sugar.Errorf("load current user id=%d err=%v", userID, err)
			}
		}
		ctx.Next()
	}
}

// CurrentUser returns the authenticated requester, if any.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

// LoginRequired sends anonymous visitors to the login page, remembering where they were going.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := CurrentUser(ctx); ok {
			ctx.Next()
			return
		}
		utils.Redirect(ctx, LoginURL(ctx.Request.URL.RequestURI()))
		ctx.Abort()
	}
}

// AdminRequired lets through only users whose username is listed in admins.
// It must run after LoginRequired.
func AdminRequired(admins []string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok || !IsAdmin(user, admins) {
			utils.Error(ctx, http.StatusForbidden, 40300, "admin privileges required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// IsAdmin reports whether user is one of the configured admins.
func IsAdmin(user *models.User, admins []string) bool {
	if user == nil {
		return false
	}
	for _, name := range admins {
		if strings.EqualFold(strings.TrimSpace(name), user.Username) {
			return true
		}
	}
	return false
}

// LoginURL is the login page with next pointing back at the original path.
// Slashes stay readable: /auth/login/?next=/create/.
func LoginURL(next string) string {
	return LoginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// SafeNext returns next when it is a local path and fallback otherwise.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

// StartSession stores user in the browser session.
func StartSession(ctx *gin.Context, user *models.User) error {
	if store == nil {
		return errors.New("session store not initialized")
	}
	sess, _ := store.Get(ctx.Request, SessionName)
	sess.Values[sessionUserIDKey] = user.ID
	return sess.Save(ctx.Request, ctx.Writer)
}

// EndSession forgets the browser session.
func EndSession(ctx *gin.Context) error {
	if store == nil {
		return nil
	}
	sess, _ := store.Get(ctx.Request, SessionName)
	delete(sess.Values, sessionUserIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(ctx.Request, ctx.Writer)
}

func bearerToken(ctx *gin.Context) string {
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

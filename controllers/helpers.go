package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/utils"
)

// IndexCacheName keys the cached pages of the index.
const IndexCacheName = "index_page"

// Paths of the pages handlers redirect to.
func profilePath(username string) string { return "/profile/" + url.PathEscape(username) + "/" }
func postPath(id uint) string { return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/" }

const followIndexPath = "/follow/"

// withPostRelations orders posts newest first and loads their author and group.
func withPostRelations(db *gorm.DB) *gorm.DB {
	return models.NewestFirst(db).Preload("Author").Preload("Group")
}

// serverError logs err and answers 500 with the given code.
func serverError(ctx *gin.Context, code int, message string, err error) {
	utils.Sugar.Errorw(message, "path", ctx.Request.URL.Path, "code", code, "err", err)
	utils.Error(ctx, http.StatusInternalServerError, code, message)
	ctx.Abort()
}

// loadFailed answers 404 for missing records and 500 otherwise.
func loadFailed(ctx *gin.Context, err error, code int, message string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(ctx)
		return
	}
	serverError(ctx, code, message, err)
}

// loadPost reads the :id path parameter and loads that post with its author and group.
func loadPost(ctx *gin.Context, db *gorm.DB) (*models.Post, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.NotFound(ctx)
		return nil, false
	}
	var post models.Post
	if err := db.Preload("Author").Preload("Group").First(&post, uint(id)).Error; err != nil {
		loadFailed(ctx, err, 50010, "failed to load post")
		return nil, false
	}
	return &post, true
}

// loadAuthor loads the user named by the :username path parameter.
func loadAuthor(ctx *gin.Context, db *gorm.DB) (*models.User, bool) {
	var author models.User
	if err := db.Where("username = ?", ctx.Param("username")).First(&author).Error; err != nil {
		loadFailed(ctx, err, 50011, "failed to load author")
		return nil, false
	}
	return &author, true
}

// requester is the logged in user; routes using it sit behind LoginRequired.
func requester(ctx *gin.Context) *models.User {
	user, _ := middleware.CurrentUser(ctx)
	return user
}

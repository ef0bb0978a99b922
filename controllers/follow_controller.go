package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yatube/yatube/config"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/utils"
)

// FollowController manages subscriptions and the feed built from them.
type FollowController struct {
	db      *gorm.DB
	perPage int
}

// NewFollowController creates a FollowController.
func NewFollowController(db *gorm.DB, cfg config.AppConfig) *FollowController {
	return &FollowController{db: db, perPage: cfg.PostsPerPage}
}

// FollowIndex lists posts of every author the requester follows.
func (f *FollowController) FollowIndex(ctx *gin.Context) {
	user := requester(ctx)
	followed := f.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", user.ID)
	query := f.db.Model(&models.Post{}).Where("author_id IN (?)", followed)
	page, err := utils.Paginate[models.Post](query, ctx.Query("page"), f.perPage, withPostRelations)
	if err != nil {
		serverError(ctx, 50040, "failed to list feed", err)
		return
	}
	utils.Success(ctx, gin.H{"page_obj": page, "follow": true})
}

// ProfileFollow subscribes the requester to an author. Following twice or following
// yourself changes nothing.
func (f *FollowController) ProfileFollow(ctx *gin.Context) {
	user := requester(ctx)
	author, ok := loadAuthor(ctx, f.db)
	if !ok {
		return
	}
	if author.ID == user.ID {
		utils.Redirect(ctx, followIndexPath)
		return
	}
	edge := models.Follow{UserID: user.ID, AuthorID: author.ID}
	// The unique index settles concurrent follows of the same pair.
	if err := f.db.Omit("User", "Author").Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
		serverError(ctx, 50041, "failed to follow author", err)
		return
	}
	utils.Redirect(ctx, followIndexPath)
}

// ProfileUnfollow drops the subscription if there is one.
func (f *FollowController) ProfileUnfollow(ctx *gin.Context) {
	user := requester(ctx)
	author, ok := loadAuthor(ctx, f.db)
	if !ok {
		return
	}
	if err := f.db.Where("user_id = ? AND author_id = ?", user.ID, author.ID).Delete(&models.Follow{}).Error; err != nil {
		serverError(ctx, 50042, "failed to unfollow author", err)
		return
	}
	utils.Redirect(ctx, followIndexPath)
}

// isFollowing reports whether viewer follows author; anonymous viewers follow nobody.
func isFollowing(db *gorm.DB, viewer, author *models.User) (bool, error) {
	if viewer == nil || author == nil {
		return false, nil
	}
	var n int64
	err := db.Model(&models.Follow{}).Where("user_id = ? AND author_id = ?", viewer.ID, author.ID).Count(&n).Error
	return n > 0, err
}

package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/utils"
)

// AdminController manages groups and the page cache for site admins.
type AdminController struct {
	db *gorm.DB
}

// NewAdminController creates an AdminController.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

// ListGroups returns every group ordered by title.
func (a *AdminController) ListGroups(ctx *gin.Context) {
	var groups []models.Group
	if err := a.db.Order("title ASC").Find(&groups).Error; err != nil {
		serverError(ctx, 50060, "failed to list groups", err)
		return
	}
	utils.Success(ctx, gin.H{"items": groups})
}

// CreateGroup adds a group from JSON {title, slug, description}.
func (a *AdminController) CreateGroup(ctx *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required"`
		Slug        string `json:"slug" binding:"required"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	group, err := CreateGroup(a.db, req.Title, req.Slug, req.Description)
	switch {
	case errors.Is(err, models.ErrGroupTitle), errors.Is(err, models.ErrGroupSlug):
		utils.Error(ctx, http.StatusBadRequest, 40061, err.Error())
		return
	case errors.Is(err, ErrSlugTaken):
		utils.Error(ctx, http.StatusConflict, 40901, err.Error())
		return
	case err != nil:
		serverError(ctx, 50061, "failed to create group", err)
		return
	}
	utils.Success(ctx, gin.H{"group": group})
}

// DeleteGroup removes a group; its posts stay and lose their group.
func (a *AdminController) DeleteGroup(ctx *gin.Context) {
	if err := DeleteGroup(a.db, ctx.Param("slug")); err != nil {
		loadFailed(ctx, err, 50062, "failed to delete group")
		return
	}
	utils.Success(ctx, gin.H{"message": "group deleted"})
}

// ClearCache drops every cached index page.
func (a *AdminController) ClearCache(ctx *gin.Context) {
	n := utils.InvalidateByPrefix(middleware.CachePrefix(IndexCacheName))
	utils.Success(ctx, gin.H{"removed": n})
}

// ErrSlugTaken is returned when a group with the slug already exists.
var ErrSlugTaken = errors.New("group with this slug already exists")

// CreateGroup validates and stores a new group.
func CreateGroup(db *gorm.DB, title, slug, description string) (*models.Group, error) {
	group, err := models.NewGroup(title, slug, description)
	if err != nil {
		return nil, err
	}
	var n int64
	if err := db.Model(&models.Group{}).Where("slug = ?", group.Slug).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrSlugTaken
	}
	if err := db.Create(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// DeleteGroup deletes the group with slug, returning gorm.ErrRecordNotFound if there is none.
func DeleteGroup(db *gorm.DB, slug string) error {
	var group models.Group
	if err := db.Where("slug = ?", slug).First(&group).Error; err != nil {
		return err
	}
	return db.Delete(&group).Error
}

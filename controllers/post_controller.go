package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yatube/yatube/config"
	"github.com/yatube/yatube/forms"
	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/utils"
)

// PostController serves the post, group and profile pages and the post and comment forms.
type PostController struct {
	db      *gorm.DB
	media   *utils.MediaStore
	perPage int
	admins  []string
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, media *utils.MediaStore, cfg config.AppConfig) *PostController {
	return &PostController{
		db:      db,
		media:   media,
		perPage: cfg.PostsPerPage,
		admins:  cfg.AdminUsernames,
	}
}

// Index lists all posts, newest first.
func (p *PostController) Index(ctx *gin.Context) {
	page, err := utils.Paginate[models.Post](p.db.Model(&models.Post{}), ctx.Query("page"), p.perPage, withPostRelations)
	if err != nil {
		serverError(ctx, 50001, "failed to list posts", err)
		return
	}
	utils.Success(ctx, gin.H{"page_obj": page, "index": true})
}

// GroupPosts lists the posts published into one group.
func (p *PostController) GroupPosts(ctx *gin.Context) {
	var group models.Group
	if err := p.db.Where("slug = ?", ctx.Param("slug")).First(&group).Error; err != nil {
		loadFailed(ctx, err, 50002, "failed to load group")
		return
	}
	query := p.db.Model(&models.Post{}).Where("group_id = ?", group.ID)
	page, err := utils.Paginate[models.Post](query, ctx.Query("page"), p.perPage, withPostRelations)
	if err != nil {
		serverError(ctx, 50003, "failed to list group posts", err)
		return
	}
	utils.Success(ctx, gin.H{"group": group, "page_obj": page})
}

// Profile lists an author's posts and tells whether the viewer follows them.
func (p *PostController) Profile(ctx *gin.Context) {
	author, ok := loadAuthor(ctx, p.db)
	if !ok {
		return
	}
	query := p.db.Model(&models.Post{}).Where("author_id = ?", author.ID)
	page, err := utils.Paginate[models.Post](query, ctx.Query("page"), p.perPage, withPostRelations)
	if err != nil {
		serverError(ctx, 50004, "failed to list author posts", err)
		return
	}
	viewer, _ := middleware.CurrentUser(ctx)
	following, err := isFollowing(p.db, viewer, author)
	if err != nil {
		serverError(ctx, 50005, "failed to load follow state", err)
		return
	}
	utils.Success(ctx, gin.H{
		"author":      author,
		"full_name":   author.FullName(),
		"page_obj":    page,
		"posts_count": page.Count,
		"following":   following,
	})
}

// PostDetail shows one post with its comments and an empty comment form.
func (p *PostController) PostDetail(ctx *gin.Context) {
	post, ok := loadPost(ctx, p.db)
	if !ok {
		return
	}
	var comments []models.Comment
	if err := p.db.Preload("Author").
		Where("post_id = ?", post.ID).
		Order("created ASC").Order("id ASC").
		Find(&comments).Error; err != nil {
		serverError(ctx, 50006, "failed to load comments", err)
		return
	}
	var postsCount int64
	if err := p.db.Model(&models.Post{}).Where("author_id = ?", post.AuthorID).Count(&postsCount).Error; err != nil {
		serverError(ctx, 50007, "failed to count author posts", err)
		return
	}
	utils.Success(ctx, gin.H{
		"post":        post,
		"title":       post.String(),
		"comments":    comments,
		"form":        forms.CommentForm{},
		"posts_count": postsCount,
	})
}

// PostCreate shows the empty post form and publishes valid submissions as the requester.
func (p *PostController) PostCreate(ctx *gin.Context) {
	user := requester(ctx)
	if ctx.Request.Method != http.MethodPost {
		utils.Success(ctx, gin.H{"form": forms.NewPostForm(nil), "is_edit": false})
		return
	}

	form := forms.BindPostForm(ctx)
	valid, err := form.Validate(p.db, p.media)
	if err != nil {
		serverError(ctx, 50020, "failed to validate post", err)
		return
	}
	if !valid {
		utils.Success(ctx, gin.H{"form": form, "is_edit": false})
		return
	}

	image, err := p.saveImage(&form)
	if err != nil {
		serverError(ctx, 50021, "failed to store image", err)
		return
	}
	post := models.Post{AuthorID: user.ID}
	form.ApplyTo(&post, image)
	if err := p.db.Omit("Author", "Group", "Comments").Create(&post).Error; err != nil {
		p.media.Remove(image)
		serverError(ctx, 50022, "failed to create post", err)
		return
	}
	utils.Sugar.Infof("post created id=%d author=%s", post.ID, user.Username)
	utils.Redirect(ctx, profilePath(user.Username))
}

// PostEdit lets the author change text, group and image. Anyone else is sent back to the post.
func (p *PostController) PostEdit(ctx *gin.Context) {
	user := requester(ctx)
	post, ok := loadPost(ctx, p.db)
	if !ok {
		return
	}
	if post.AuthorID != user.ID {
		utils.Redirect(ctx, postPath(post.ID))
		return
	}
	if ctx.Request.Method != http.MethodPost {
		utils.Success(ctx, gin.H{"form": forms.NewPostForm(post), "is_edit": true, "post": post})
		return
	}

	form := forms.BindPostForm(ctx)
	valid, err := form.Validate(p.db, p.media)
	if err != nil {
		serverError(ctx, 50023, "failed to validate post", err)
		return
	}
	if !valid {
		utils.Success(ctx, gin.H{"form": form, "is_edit": true, "post": post})
		return
	}

	image, err := p.saveImage(&form)
	if err != nil {
		serverError(ctx, 50024, "failed to store image", err)
		return
	}
	oldImage := post.Image
	form.ApplyTo(post, image)
	if err := p.db.Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
		"text":     post.Text,
		"group_id": post.GroupID,
		"image":    post.Image,
	}).Error; err != nil {
		p.media.Remove(image)
		serverError(ctx, 50025, "failed to update post", err)
		return
	}
	if image != "" && oldImage != "" && oldImage != image {
		p.media.Remove(oldImage)
	}
	utils.Redirect(ctx, postPath(post.ID))
}

// DeletePost removes a post with its comments and returns to the requester's profile.
// Only the author or a configured admin may delete; others are sent back to the post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	user := requester(ctx)
	post, ok := loadPost(ctx, p.db)
	if !ok {
		return
	}
	if post.AuthorID != user.ID && !middleware.IsAdmin(user, p.admins) {
		utils.Redirect(ctx, postPath(post.ID))
		return
	}
	if err := p.db.Delete(post).Error; err != nil {
		serverError(ctx, 50026, "failed to delete post", err)
		return
	}
	p.media.Remove(post.Image)
	utils.Sugar.Infof("post deleted id=%d by=%s", post.ID, user.Username)
	utils.Redirect(ctx, profilePath(user.Username))
}

// AddComment stores a valid comment and always returns to the post; invalid input is dropped.
func (p *PostController) AddComment(ctx *gin.Context) {
	user := requester(ctx)
	post, ok := loadPost(ctx, p.db)
	if !ok {
		return
	}
	form := forms.BindCommentForm(ctx)
	if ctx.Request.Method == http.MethodPost && form.Validate() {
		comment := form.Comment(post.ID, user.ID)
		if err := p.db.Omit("Author").Create(&comment).Error; err != nil {
			serverError(ctx, 50030, "failed to create comment", err)
			return
		}
	}
	utils.Redirect(ctx, postPath(post.ID))
}

func (p *PostController) saveImage(form *forms.PostForm) (string, error) {
	if form.Image == nil {
		return "", nil
	}
	return p.media.SaveImage(form.Image)
}

package forms

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yatube/yatube/models"
)

// CommentForm is the single text field under a post.
type CommentForm struct {
	Text   string `form:"text" json:"text" validate:"required,max=4049"`
	Errors Errors `form:"-" json:"errors,omitempty"`
}

// BindCommentForm reads the submitted comment text.
func BindCommentForm(ctx *gin.Context) CommentForm {
	return CommentForm{Text: ctx.PostForm("text"), Errors: Errors{}}
}

// Validate trims the text and checks it is present and short enough.
func (f *CommentForm) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	f.Text = strings.TrimSpace(f.Text)
	checkStruct(f, f.Errors)
	return !f.Errors.Any()
}

// Comment builds the comment to store for post and author.
func (f *CommentForm) Comment(postID, authorID uint) models.Comment {
	return models.Comment{PostID: postID, AuthorID: authorID, Text: f.Text}
}

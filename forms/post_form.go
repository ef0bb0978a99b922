package forms

import (
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/utils"
)

// PostForm carries the text, group and image fields of the create and edit pages.
type PostForm struct {
	Text   string                `form:"text" json:"text" validate:"required"`
	Group  string                `form:"group" json:"group"`
	Image  *multipart.FileHeader `form:"image" json:"-"`
	Errors Errors                `form:"-" json:"errors,omitempty"`

	group *models.Group
}

// NewPostForm returns a form pre-filled from an existing post, or an empty one for nil.
func NewPostForm(post *models.Post) PostForm {
	f := PostForm{Errors: Errors{}}
	if post != nil {
		f.Text = post.Text
		if post.GroupID != nil {
			f.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
		}
	}
	return f
}

// BindPostForm reads the submitted fields of a POST request.
func BindPostForm(ctx *gin.Context) PostForm {
	f := PostForm{
		Text:   ctx.PostForm("text"),
		Group:  ctx.PostForm("group"),
		Errors: Errors{},
	}
	if fh, err := ctx.FormFile("image"); err == nil {
		f.Image = fh
	}
	return f
}

// Validate trims the text, resolves the group and sniffs the image.
// It returns true when the form can be saved.
func (f *PostForm) Validate(db *gorm.DB, media *utils.MediaStore) (bool, error) {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	f.Text = strings.TrimSpace(f.Text)
	checkStruct(f, f.Errors)

	if f.Group != "" {
		g, err := lookupGroup(db, f.Group)
		if err != nil {
			return false, err
		}
		if g == nil {
			f.Errors.Add("group", MsgInvalidChoice)
		}
		f.group = g
	}

	if f.Image != nil && media != nil {
		if _, err := media.DetectImage(f.Image); err != nil {
			if errors.Is(err, utils.ErrNotImage) || errors.Is(err, utils.ErrFileTooLarge) {
				f.Errors.Add("image", err.Error())
			} else {
				return false, err
			}
		}
	}
	return !f.Errors.Any(), nil
}

// ApplyTo copies the validated fields onto post. The author is never touched.
// A stored image name is passed separately because saving the file happens after validation.
func (f *PostForm) ApplyTo(post *models.Post, image string) {
	post.Text = f.Text
	post.Group = f.group
	post.GroupID = nil
	if f.group != nil {
		id := f.group.ID
		post.GroupID = &id
	}
	if image != "" {
		post.Image = image
	}
}

func lookupGroup(db *gorm.DB, raw string) (*models.Group, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, nil
	}
	var g models.Group
	if err := db.First(&g, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

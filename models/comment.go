package models

import (
	"time"

	"gorm.io/gorm"
)

// CommentMaxLength bounds the text of a comment, in characters.
const CommentMaxLength = 4049

// Comment is a reply attached to a post.
type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PostID   uint      `gorm:"index;not null" json:"post_id"`
	AuthorID uint      `gorm:"index;not null" json:"author_id"`
	Author   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Text     string    `gorm:"size:4049;not null" json:"text"`
	Created  time.Time `gorm:"autoCreateTime" json:"created"`
	TextHTML string    `gorm:"-" json:"text_html"`
}

// AfterFind renders the text for display.
func (c *Comment) AfterFind(tx *gorm.DB) error {
	c.TextHTML = RenderText(c.Text)
	return nil
}

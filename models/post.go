package models

import (
	"time"

	"gorm.io/gorm"
)

// TextSlice is how many characters of a post's text its short form shows.
const TextSlice = 15

// MediaURL is the public prefix uploaded files are served under.
const MediaURL = "/media/"

// Post is a user-authored entry, optionally published into a group and illustrated.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"index;not null" json:"pub_date"`
	AuthorID uint      `gorm:"index;not null" json:"author_id"`
	Author   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	GroupID  *uint     `gorm:"index" json:"group_id"`
	Group    *Group    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"group,omitempty"`
	Image    string    `gorm:"size:255" json:"image"`
	ImageURL string    `gorm:"-" json:"image_url,omitempty"`
	TextHTML string    `gorm:"-" json:"text_html"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (p Post) String() string {
	r := []rune(p.Text)
	if len(r) > TextSlice {
		return string(r[:TextSlice])
	}
	return p.Text
}

// NewestFirst is the default ordering of posts everywhere on the site.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("posts.pub_date DESC").Order("posts.id DESC")
}

// BeforeCreate stamps the publication date.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.PubDate.IsZero() {
		p.PubDate = time.Now()
	}
	return nil
}

// AfterFind fills the rendered text and the public address of the image.
func (p *Post) AfterFind(tx *gorm.DB) error {
	p.TextHTML = RenderText(p.Text)
	if p.Image != "" {
		p.ImageURL = MediaURL + p.Image
	}
	return nil
}

// BeforeDelete removes the post's comments.
func (p *Post) BeforeDelete(tx *gorm.DB) error {
	if p.ID == 0 {
		return nil
	}
	return tx.Where("post_id = ?", p.ID).Delete(&Comment{}).Error
}

package models

import (
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var (
	ErrGroupTitle = errors.New("group title is required and must be at most 200 characters")
	ErrGroupSlug  = errors.New("group slug must be 1-50 letters, digits, hyphens or underscores")
)

// Group is a named community posts can be published into.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
}

func (g Group) String() string { return g.Title }

// NewGroup validates the fields of a group about to be created.
func NewGroup(title, slug, description string) (Group, error) {
	g := Group{
		Title:       strings.TrimSpace(title),
		Slug:        strings.TrimSpace(slug),
		Description: strings.TrimSpace(description),
	}
	if g.Title == "" || len([]rune(g.Title)) > 200 {
		return g, ErrGroupTitle
	}
	if !ValidSlug(g.Slug) {
		return g, ErrGroupSlug
	}
	return g, nil
}

// ValidSlug reports whether s is usable as a group slug.
func ValidSlug(s string) bool {
	return len(s) <= 50 && slugPattern.MatchString(s)
}

// BeforeDelete detaches posts from the group; posts outlive their group.
func (g *Group) BeforeDelete(tx *gorm.DB) error {
	if g.ID == 0 {
		return nil
	}
	return tx.Model(&Post{}).Where("group_id = ?", g.ID).Update("group_id", nil).Error
}

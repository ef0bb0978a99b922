package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an author on the blog. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	Email        string    `gorm:"size:254" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName mirrors the display name used on profile pages.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// BeforeDelete removes everything the user owns: follow edges in both directions,
// comments written by the user, and the user's posts together with their comments.
func (u *User) BeforeDelete(tx *gorm.DB) error {
	if u.ID == 0 {
		return nil
	}
	if err := tx.Where("user_id = ? OR author_id = ?", u.ID, u.ID).Delete(&Follow{}).Error; err != nil {
		return err
	}
	if err := tx.Where("author_id = ?", u.ID).Delete(&Comment{}).Error; err != nil {
		return err
	}
	posts := tx.Model(&Post{}).Select("id").Where("author_id = ?", u.ID)
	if err := tx.Where("post_id IN (?)", posts).Delete(&Comment{}).Error; err != nil {
		return err
	}
	return tx.Where("author_id = ?", u.ID).Delete(&Post{}).Error
}

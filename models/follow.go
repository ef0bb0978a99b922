package models

// Follow is a subscription of User to the posts of Author.
// The pair is unique; self-follow is rejected by the handlers.
type Follow struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;uniqueIndex:unique_follow" json:"user_id"`
	User     User `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	AuthorID uint `gorm:"not null;index;uniqueIndex:unique_follow" json:"author_id"`
	Author   User `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// All lists every model for migrations.
func All() []interface{} {
	return []interface{}{&User{}, &Group{}, &Post{}, &Comment{}, &Follow{}}
}

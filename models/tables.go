package models

import "time"

type User struct {
	ID           int       `gorm:"primary_key;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null;index" json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `gorm:"unique;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed in API
	IsStaff      bool      `gorm:"default:false;index" json:"is_staff"` // always false until promoted via DB
	CreatedAt    time.Time `json:"created_at"`
}

// FullName is what listings show next to a post or comment.
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Category struct {
	ID          int       `gorm:"primary_key;autoIncrement" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Slug        string    `gorm:"unique;not null;index" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	IsPublished bool      `gorm:"index" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

type Location struct {
	ID          int       `gorm:"primary_key;autoIncrement" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

type Post struct {
	ID          uint      `gorm:"primary_key"`
	Title       string    `gorm:"not null" json:"title"`
	Text        string    `gorm:"type:text" json:"text"`
	Image       string    `json:"image,omitempty"` // optional, path under public/uploads
	PubDate     time.Time `gorm:"index" json:"pub_date"` // may be in the future (scheduled post)
	AuthorID    int       `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID" json:"-"`
	CategoryID  int       `gorm:"not null;index" json:"category_id"`
	Category    Category  `gorm:"foreignKey:CategoryID" json:"-"`
	LocationID  int       `gorm:"not null;index" json:"location_id"`
	Location    Location  `gorm:"foreignKey:LocationID" json:"-"`
	IsPublished bool      `gorm:"index" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

type Comment struct {
	ID          uint      `gorm:"primary_key"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	PostID      uint      `gorm:"not null;index" json:"post_id"`
	AuthorID    int       `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID" json:"-"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

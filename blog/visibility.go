package blog

import (
	"time"

	"gorm.io/gorm"

	"papyrus/models"
)

// IsVisible reports whether a post passes all four publication gates:
// its own flag, its category's, its location's, and a pub date that is
// not in the future.
func IsVisible(post *models.Post, now time.Time) bool {
	return post.IsPublished &&
		post.Category.IsPublished &&
		post.Location.IsPublished &&
		!post.PubDate.After(now)
}

// CanView layers the owner bypass over IsVisible: an author can always
// open their own post, whatever its publication state.
func CanView(post *models.Post, viewerID int, now time.Time) bool {
	return viewerID == post.AuthorID || IsVisible(post, now)
}

// VisibleScope applies the same four gates as IsVisible to a listing
// query. The detail check and the listings must never disagree, so any
// change to the gates has to land in both functions.
func VisibleScope(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN categories ON categories.id = posts.category_id").
			Joins("JOIN locations ON locations.id = posts.location_id").
			Where("posts.is_published = ? AND posts.pub_date <= ? AND categories.is_published = ? AND locations.is_published = ?",
				true, now, true, true)
	}
}

// AuthorScope is the weaker filter profile listings apply when the viewer
// is not the profile owner: only the post's own flag and pub date are
// checked, category and location state are ignored.
func AuthorScope(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.is_published = ? AND posts.pub_date <= ?", true, now)
	}
}

package posts

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"papyrus/models"
)

// pubDateLayout matches the datetime-local input format
const pubDateLayout = "2006-01-02T15:04"

// PostForm carries the raw submitted fields of the post form plus the
// parsed values once Validate has run.
type PostForm struct {
	Title      string
	Text       string
	PubDateRaw string
	PubDate    time.Time
	CategoryID int
	LocationID int
}

func bindPostForm(c *gin.Context) *PostForm {
	categoryID, _ := strconv.Atoi(c.PostForm("category"))
	locationID, _ := strconv.Atoi(c.PostForm("location"))

	return &PostForm{
		Title:      strings.TrimSpace(c.PostForm("title")),
		Text:       strings.TrimSpace(c.PostForm("text")),
		PubDateRaw: strings.TrimSpace(c.PostForm("pub_date")),
		CategoryID: categoryID,
		LocationID: locationID,
	}
}

// Validate returns a map of field name to error message; an empty map
// means the form is good and PubDate has been parsed.
func (f *PostForm) Validate(db *gorm.DB) map[string]string {
	errors := map[string]string{}

	if f.Title == "" {
		errors["title"] = "Title is required"
	}
	if f.Text == "" {
		errors["text"] = "Text is required"
	}

	if f.PubDateRaw == "" {
		errors["pub_date"] = "Publication date is required"
	} else {
		pubDate, err := time.ParseInLocation(pubDateLayout, f.PubDateRaw, time.Local)
		if err != nil {
			errors["pub_date"] = "Enter a valid date and time"
		} else {
			f.PubDate = pubDate
		}
	}

	if f.CategoryID == 0 {
		errors["category"] = "Category is required"
	} else {
		var category models.Category
		if err := db.First(&category, f.CategoryID).Error; err != nil {
			errors["category"] = "Select a valid category"
		}
	}

	if f.LocationID == 0 {
		errors["location"] = "Location is required"
	} else {
		var location models.Location
		if err := db.First(&location, f.LocationID).Error; err != nil {
			errors["location"] = "Select a valid location"
		}
	}

	return errors
}

package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"papyrus/analytics"
	"papyrus/cache"
	"papyrus/common"
	"papyrus/models"
)

// EmptyValueDisplay is what moderation list pages show in blank cells.
// Presentation config, never mutated at runtime.
const EmptyValueDisplay = "Not specified"

// ModelConfig declares how a model's moderation list page behaves:
// which columns it shows, which are editable in place, which fields the
// search box matches and which filters appear in the sidebar.
type ModelConfig struct {
	Name         string
	ListDisplay  []string
	ListEditable []string
	SearchFields []string
	ListFilter   []string
}

var (
	CategoryConfig = ModelConfig{
		Name:         "category",
		ListDisplay:  []string{"title", "slug", "is_published", "created_at"},
		ListEditable: []string{"is_published"},
		SearchFields: []string{"title", "slug"},
		ListFilter:   []string{"is_published"},
	}

	LocationConfig = ModelConfig{
		Name:         "location",
		ListDisplay:  []string{"name", "is_published", "created_at"},
		ListEditable: []string{"is_published"},
		SearchFields: []string{"name"},
		ListFilter:   []string{"is_published"},
	}

	PostConfig = ModelConfig{
		Name:         "post",
		ListDisplay:  []string{"title", "author", "category", "location", "is_published", "pub_date", "created_at"},
		ListEditable: []string{"is_published"},
		SearchFields: []string{"title", "text"},
		ListFilter:   []string{"is_published", "category", "location", "author"},
	}
)

type AdminModule struct {
	db    *gorm.DB
	stats *analytics.AnalyticsModule
}

func NewAdminModule(db *gorm.DB, stats *analytics.AnalyticsModule) *AdminModule {
	return &AdminModule{db: db, stats: stats}
}

func (a *AdminModule) RegisterRoutes(router *gin.Engine) {
	adminGroup := router.Group("/admin")
	adminGroup.Use(a.requireStaff)
	{
		adminGroup.GET("/", a.dashboard)

		adminGroup.GET("/categories", a.listCategories)
		adminGroup.POST("/categories/save", a.saveCategory)
		adminGroup.POST("/categories/:id/toggle", a.toggleCategory)

		adminGroup.GET("/locations", a.listLocations)
		adminGroup.POST("/locations/save", a.saveLocation)
		adminGroup.POST("/locations/:id/toggle", a.toggleLocation)

		adminGroup.GET("/posts", a.listPosts)
		adminGroup.POST("/posts/:id/toggle", a.togglePost)
		adminGroup.POST("/posts/:id/delete", a.deletePost)

		adminGroup.GET("/stats", a.statsPage)
	}
}

// requireStaff lets only staff users in. Anonymous requests go to the
// login page; logged-in non-staff get the 404 page so the moderation
// surface stays invisible to them.
func (a *AdminModule) requireStaff(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("user_id")

	if userID == nil {
		c.Redirect(http.StatusFound, "/auth/login")
		c.Abort()
		return
	}

	var user models.User
	if err := a.db.First(&user, userID.(int)).Error; err != nil || !user.IsStaff {
		c.HTML(http.StatusNotFound, "404.html", gin.H{})
		c.Abort()
		return
	}

	c.Set("user_id", user.ID)
	c.Next()
}

func (a *AdminModule) dashboard(c *gin.Context) {
	var postCount, commentCount, userCount int64
	a.db.Model(&models.Post{}).Count(&postCount)
	a.db.Model(&models.Comment{}).Count(&commentCount)
	a.db.Model(&models.User{}).Count(&userCount)

	c.HTML(http.StatusOK, "admin_dashboard.html", gin.H{
		"postCount":    postCount,
		"commentCount": commentCount,
		"userCount":    userCount,
		"emptyValue":   EmptyValueDisplay,
	})
}

// publishedFilter translates the ?is_published= query value into a
// query condition; anything but "0"/"1" means no filtering.
func publishedFilter(db *gorm.DB, raw, column string) *gorm.DB {
	switch raw {
	case "1":
		return db.Where(column+" = ?", true)
	case "0":
		return db.Where(column+" = ?", false)
	}
	return db
}

func (a *AdminModule) listCategories(c *gin.Context) {
	query := a.db.Model(&models.Category{})

	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("title LIKE ? OR slug LIKE ?", like, like)
	}
	query = publishedFilter(query, c.Query("is_published"), "is_published")

	var categories []models.Category
	query.Order("created_at DESC").Find(&categories)

	c.HTML(http.StatusOK, "admin_categories.html", gin.H{
		"categories": categories,
		"config":     CategoryConfig,
		"emptyValue": EmptyValueDisplay,
		"q":          c.Query("q"),
	})
}

func (a *AdminModule) saveCategory(c *gin.Context) {
	id, _ := strconv.Atoi(c.PostForm("id"))
	title := c.PostForm("title")
	slug := c.PostForm("slug")
	description := c.PostForm("description")

	if title == "" {
		c.HTML(http.StatusBadRequest, "admin_categories.html", gin.H{
			"error":  "Title is required",
			"config": CategoryConfig,
		})
		return
	}

	if slug == "" {
		slug = common.GenerateSlug(title)
	}
	if !common.ValidSlug(slug) {
		c.HTML(http.StatusBadRequest, "admin_categories.html", gin.H{
			"error":  "Slug may only contain lowercase letters, digits and dashes",
			"config": CategoryConfig,
		})
		return
	}

	var existing models.Category
	if err := a.db.Where("slug = ? AND id <> ?", slug, id).First(&existing).Error; err == nil {
		c.HTML(http.StatusBadRequest, "admin_categories.html", gin.H{
			"error":  "This slug is already in use",
			"config": CategoryConfig,
		})
		return
	}

	if id == 0 {
		category := models.Category{
			Title:       title,
			Slug:        slug,
			Description: description,
			IsPublished: c.PostForm("is_published") == "1",
		}
		if err := a.db.Create(&category).Error; err != nil {
			c.HTML(http.StatusInternalServerError, "admin_categories.html", gin.H{
				"error":  "Error creating category",
				"config": CategoryConfig,
			})
			return
		}
	} else {
		var category models.Category
		if err := a.db.First(&category, id).Error; err != nil {
			c.HTML(http.StatusNotFound, "404.html", gin.H{})
			return
		}

		category.Title = title
		category.Slug = slug
		category.Description = description
		if err := a.db.Save(&category).Error; err != nil {
			c.HTML(http.StatusInternalServerError, "admin_categories.html", gin.H{
				"error":  "Error saving category",
				"config": CategoryConfig,
			})
			return
		}
	}

	cache.ClearAll()

	c.Redirect(http.StatusFound, "/admin/categories")
}

func (a *AdminModule) toggleCategory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{})
		return
	}

	var category models.Category
	if err := a.db.First(&category, id).Error; err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{})
		return
	}

	category.IsPublished = !category.IsPublished
	a.db.Save(&category)

	// Flipping a category changes the visibility of an unknown set of
	// posts; drop every cached page.
	cache.ClearAll()

	c.Redirect(http.StatusFound, "/admin/categories")
}

func (a *AdminModule) listLocations(c *gin.Context) {
	query := a.db.Model(&models.Location{})

	if q := c.Query("q"); q != "" {
		query = query.Where("name LIKE ?", "%"+q+"%")
	}
	query = publishedFilter(query, c.Query("is_published"), "is_published")

	var locations []models.Location
	query.Order("created_at DESC").Find(&locations)

	c.HTML(http.StatusOK, "admin_locations.html", gin.H{
		"locations":  locations,
		"config":     LocationConfig,
		"emptyValue": EmptyValueDisplay,
		"q":          c.Query("q"),
	})
}

func (a *AdminModule) saveLocation(c *gin.Context) {
	id, _ := strconv.Atoi(c.PostForm("id"))
	name := c.PostForm("name")

	if name == "" {
		c.HTML(http.StatusBadRequest, "admin_locations.html", gin.H{
			"error":  "Name is required",
			"config": LocationConfig,
		})
		return
	}

	if id == 0 {
		location := models.Location{
			Name:        name,
			IsPublished: c.PostForm("is_published") == "1",
		}
		if err := a.db.Create(&location).Error; err != nil {
			c.HTML(http.StatusInternalServerError, "admin_locations.html", gin.H{
				"error":  "Error creating location",
				"config": LocationConfig,
			})
			return
		}
	} else {
		var location models.Location
		if err := a.db.First(&location, id).Error; err != nil {
			c.HTML(http.StatusNotFound, "404.html", gin.H{})
			return
		}

		location.Name = name
		if err := a.db.Save(&location).Error; err != nil {
			c.HTML(http.StatusInternalServerError, "admin_locations.html", gin.H{
				"error":  "Error saving location",
				"config": LocationConfig,
			})
			return
		}
	}

	cache.ClearAll()

	c.Redirect(http.StatusFound, "/admin/locations")
}

func (a *AdminModule) toggleLocation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{})
		return
	}

	var location models.Location
	if err := a.db.First(&location, id).Error; err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{})
		return
	}

	location.IsPublished = !location.IsPublished
	a.db.Save(&location)

	cache.ClearAll()

	c.Redirect(http.StatusFound, "/admin/locations")
}

func (a *AdminModule) listPosts(c *gin.Context) {
	query := a.db.Model(&models.Post{}).
		Preload("Author").Preload("Category").Preload("Location")

	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("title LIKE ? OR text LIKE ?", like, like)
	}
	query = publishedFilter(query, c.Query("is_published"), "is_published")

	if categoryID, err := strconv.Atoi(c.Query("category")); err == nil {
		query = query.Where("category_id = ?", categoryID)
	}
	if locationID, err := strconv.Atoi(c.Query("location")); err == nil {
		query = query.Where("location_id = ?", locationID)
	}
	if authorID, err := strconv.Atoi(c.Query("author")); err == nil {
		query = query.Where("author_id = ?", authorID)
	}

	var posts []models.Post
	query.Order("created_at DESC").Find(&posts)

	c.HTML(http.StatusOK, "admin_posts.html", gin.H{
		"posts":      posts,
		"config":     PostConfig,
		"emptyValue": EmptyValueDisplay,
		"q":          c.Query("q"),
	})
}

func (a *AdminModule) togglePost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{})
		return
	}

	var post models.Post
	if err := a.db.First(&post, id).Error; err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{})
		return
	}

	post.IsPublished = !post.IsPublished
	a.db.Save(&post)

	cache.ClearPage(id)

	c.Redirect(http.StatusFound, "/admin/posts")
}

// deletePost is the staff deletion path: staff may remove any post.
func (a *AdminModule) deletePost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{})
		return
	}

	var post models.Post
	if err := a.db.First(&post, id).Error; err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{})
		return
	}

	a.db.Where("post_id = ?", post.ID).Delete(&models.Comment{})
	a.db.Delete(&post)

	cache.ClearPage(id)

	c.Redirect(http.StatusFound, "/admin/posts")
}

func (a *AdminModule) statsPage(c *gin.Context) {
	topPosts := a.stats.GetTopPosts(30, 10)

	// Resolve titles; deleted posts stay in the rollup with no title
	type topEntry struct {
		analytics.PostVisits
		Title string
	}
	entries := make([]topEntry, 0, len(topPosts))
	for _, visits := range topPosts {
		entry := topEntry{PostVisits: visits, Title: EmptyValueDisplay}
		var post models.Post
		if err := a.db.First(&post, visits.PostID).Error; err == nil {
			entry.Title = post.Title
		}
		entries = append(entries, entry)
	}

	c.HTML(http.StatusOK, "admin_stats.html", gin.H{
		"visitsByDay": a.stats.GetVisitsByDay(30),
		"topPosts":    entries,
	})
}

package posts

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"papyrus/accounts"
	"papyrus/cache"
	"papyrus/models"
)

// PostsModule holds the authoring handlers: create/edit/delete for posts
// and the comment operations in comments.go.
type PostsModule struct {
	db *gorm.DB
}

func NewPostsModule(db *gorm.DB) *PostsModule {
	return &PostsModule{db: db}
}

func (p *PostsModule) RegisterRoutes(router *gin.Engine, auth *accounts.AccountsModule) {
	router.GET("/posts/create/", auth.RequireAuth, p.createPage)
	router.POST("/posts/create/", auth.RequireAuth, p.createPost)
	router.GET("/posts/:id/edit/", auth.RequireAuth, p.editPage)
	router.POST("/posts/:id/edit/", auth.RequireAuth, p.editPost)
	router.POST("/posts/:id/delete/", auth.RequireAuth, p.deletePost)

	router.POST("/posts/:id/comment/", auth.RequireAuth, p.addComment)
	router.GET("/posts/:id/edit_comment/:cid/", auth.RequireAuth, p.editCommentPage)
	router.POST("/posts/:id/edit_comment/:cid/", auth.RequireAuth, p.editCommentPost)
	router.GET("/posts/:id/delete_comment/:cid/", auth.RequireAuth, p.deleteCommentPage)
	router.POST("/posts/:id/delete_comment/:cid/", auth.RequireAuth, p.deleteComment)
}

func (p *PostsModule) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", gin.H{})
}

// formChoices loads the published categories and locations offered by
// the post form selects.
func (p *PostsModule) formChoices() ([]models.Category, []models.Location) {
	var categories []models.Category
	p.db.Where("is_published = ?", true).Order("title ASC").Find(&categories)

	var locations []models.Location
	p.db.Where("is_published = ?", true).Order("name ASC").Find(&locations)

	return categories, locations
}

var validImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".webp": true,
}

// saveImage stores an uploaded image under public/uploads/posts and
// returns its public path. The empty string with a nil error means no
// file was submitted (the image field is optional).
func (p *PostsModule) saveImage(c *gin.Context) (string, error) {
	header, err := c.FormFile("image")
	if err != nil {
		return "", nil
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !validImageExtensions[ext] {
		return "", fmt.Errorf("invalid image extension %q", ext)
	}

	filename := fmt.Sprintf("post_%s%s", uuid.New().String(), ext)
	dst := filepath.Join("public", "uploads", "posts", filename)

	if err := c.SaveUploadedFile(header, dst); err != nil {
		return "", err
	}

	return "/public/uploads/posts/" + filename, nil
}

func (p *PostsModule) createPage(c *gin.Context) {
	categories, locations := p.formChoices()

	c.HTML(http.StatusOK, "create_post.html", gin.H{
		"categories": categories,
		"locations":  locations,
	})
}

func (p *PostsModule) createPost(c *gin.Context) {
	userID := c.GetInt("user_id")

	form := bindPostForm(c)
	fieldErrors := form.Validate(p.db)

	image, err := p.saveImage(c)
	if err != nil {
		fieldErrors["image"] = "Upload a valid image file"
	}

	if len(fieldErrors) > 0 {
		categories, locations := p.formChoices()
		c.HTML(http.StatusBadRequest, "create_post.html", gin.H{
			"form":       form,
			"errors":     fieldErrors,
			"categories": categories,
			"locations":  locations,
		})
		return
	}

	var author models.User
	if err := p.db.First(&author, userID).Error; err != nil {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	post := models.Post{
		Title:       form.Title,
		Text:        form.Text,
		Image:       image,
		PubDate:     form.PubDate,
		AuthorID:    author.ID,
		CategoryID:  form.CategoryID,
		LocationID:  form.LocationID,
		IsPublished: true,
		CreatedAt:   time.Now(),
	}

	if err := p.db.Create(&post).Error; err != nil {
		categories, locations := p.formChoices()
		c.HTML(http.StatusInternalServerError, "create_post.html", gin.H{
			"form":       form,
			"error":      "Error creating post",
			"categories": categories,
			"locations":  locations,
		})
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+author.Username+"/")
}

// loadPost fetches the post named in the route, rendering the 404 page
// itself when there is none. The bool reports success.
func (p *PostsModule) loadPost(c *gin.Context) (*models.Post, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		p.notFound(c)
		return nil, false
	}

	var post models.Post
	if err := p.db.First(&post, id).Error; err != nil {
		p.notFound(c)
		return nil, false
	}

	return &post, true
}

func (p *PostsModule) editPage(c *gin.Context) {
	post, ok := p.loadPost(c)
	if !ok {
		return
	}

	// Only the author may edit; everyone else, staff included, is sent
	// back to the post page.
	if c.GetInt("user_id") != post.AuthorID {
		c.Redirect(http.StatusFound, postURL(post.ID))
		return
	}

	categories, locations := p.formChoices()

	c.HTML(http.StatusOK, "create_post.html", gin.H{
		"post": post,
		"form": &PostForm{
			Title:      post.Title,
			Text:       post.Text,
			PubDateRaw: post.PubDate.Format(pubDateLayout),
			CategoryID: post.CategoryID,
			LocationID: post.LocationID,
		},
		"categories": categories,
		"locations":  locations,
	})
}

func (p *PostsModule) editPost(c *gin.Context) {
	post, ok := p.loadPost(c)
	if !ok {
		return
	}

	if c.GetInt("user_id") != post.AuthorID {
		c.Redirect(http.StatusFound, postURL(post.ID))
		return
	}

	form := bindPostForm(c)
	fieldErrors := form.Validate(p.db)

	image, err := p.saveImage(c)
	if err != nil {
		fieldErrors["image"] = "Upload a valid image file"
	}

	if len(fieldErrors) > 0 {
		categories, locations := p.formChoices()
		c.HTML(http.StatusBadRequest, "create_post.html", gin.H{
			"post":       post,
			"form":       form,
			"errors":     fieldErrors,
			"categories": categories,
			"locations":  locations,
		})
		return
	}

	post.Title = form.Title
	post.Text = form.Text
	post.PubDate = form.PubDate
	post.CategoryID = form.CategoryID
	post.LocationID = form.LocationID
	if image != "" {
		post.Image = image
	}

	if err := p.db.Save(post).Error; err != nil {
		categories, locations := p.formChoices()
		c.HTML(http.StatusInternalServerError, "create_post.html", gin.H{
			"post":       post,
			"form":       form,
			"error":      "Error saving post",
			"categories": categories,
			"locations":  locations,
		})
		return
	}

	cache.ClearPage(int(post.ID))

	c.Redirect(http.StatusFound, postURL(post.ID))
}

func (p *PostsModule) deletePost(c *gin.Context) {
	post, ok := p.loadPost(c)
	if !ok {
		return
	}

	requester := accounts.CurrentUser(c, p.db)
	if requester == nil {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	// Authors may delete their own posts; staff may delete anyone's.
	if requester.ID != post.AuthorID && !requester.IsStaff {
		c.Redirect(http.StatusFound, postURL(post.ID))
		return
	}

	// Comments go with the post; FK cascades are off in the sqlite
	// setup, so the module removes them itself.
	p.db.Where("post_id = ?", post.ID).Delete(&models.Comment{})
	p.db.Delete(post)

	cache.ClearPage(int(post.ID))

	c.Redirect(http.StatusFound, "/")
}

func postURL(id uint) string {
	return "/posts/" + strconv.Itoa(int(id)) + "/"
}

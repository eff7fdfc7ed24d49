package posts

import (
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"papyrus/accounts"
	"papyrus/models"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.AutoMigrate(&models.User{}, &models.Category{}, &models.Location{}, &models.Post{}, &models.Comment{})
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))

	tmpl := template.New("")
	template.Must(tmpl.New("404.html").Parse("404.html"))
	template.Must(tmpl.New("create_post.html").Parse("create_post.html"))
	template.Must(tmpl.New("comment.html").Parse("comment.html"))
	router.SetHTMLTemplate(tmpl)

	router.GET("/__login/:id", func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))
		session := sessions.Default(c)
		session.Set("user_id", id)
		session.Save()
		c.Status(http.StatusNoContent)
	})

	postsModule := NewPostsModule(db)
	postsModule.RegisterRoutes(router, accounts.NewAccountsModule(db))
	return router
}

func loginCookies(router *gin.Engine, userID int) []*http.Cookie {
	req, _ := http.NewRequest("GET", "/__login/"+strconv.Itoa(userID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Result().Cookies()
}

func postForm(router *gin.Engine, path string, data url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(data.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createTestUser(db *gorm.DB, username string, staff bool) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
		IsStaff:      staff,
	}
	db.Create(user)
	return user
}

func createTestFixtures(db *gorm.DB) (*models.Category, *models.Location) {
	category := &models.Category{Title: "Travel", Slug: "travel", IsPublished: true}
	db.Create(category)
	location := &models.Location{Name: "Somewhere", IsPublished: true}
	db.Create(location)
	return category, location
}

func createTestPost(db *gorm.DB, author *models.User, category *models.Category, location *models.Location) *models.Post {
	post := &models.Post{
		Title:       "Original Title",
		Text:        "Original text",
		PubDate:     time.Now().Add(-time.Hour),
		AuthorID:    author.ID,
		CategoryID:  category.ID,
		LocationID:  location.ID,
		IsPublished: true,
		CreatedAt:   time.Now(),
	}
	db.Create(post)
	return post
}

func validPostForm(category *models.Category, location *models.Location) url.Values {
	return url.Values{
		"title":    {"A New Post"},
		"text":     {"Some text"},
		"pub_date": {"2026-08-01T10:00"},
		"category": {strconv.Itoa(category.ID)},
		"location": {strconv.Itoa(location.ID)},
	}
}

func TestCreate_RequiresAuth(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	req, _ := http.NewRequest("GET", "/posts/create/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/auth/login")
}

func TestCreatePost_SetsAuthor(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, "author", false)
	category, location := createTestFixtures(db)

	w := postForm(router, "/posts/create/", validPostForm(category, location), loginCookies(router, author.ID))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/author/", w.Header().Get("Location"))

	var post models.Post
	assert.NoError(t, db.Where("title = ?", "A New Post").First(&post).Error)
	assert.Equal(t, author.ID, post.AuthorID)
	assert.True(t, post.IsPublished)
}

func TestCreatePost_ValidationErrors(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, "author", false)
	category, location := createTestFixtures(db)

	form := validPostForm(category, location)
	form.Set("title", "")
	form.Set("pub_date", "not-a-date")

	w := postForm(router, "/posts/create/", form, loginCookies(router, author.ID))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "create_post.html")

	var count int64
	db.Model(&models.Post{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestPostFormValidate(t *testing.T) {
	db := setupTestDB()
	category, location := createTestFixtures(db)

	form := &PostForm{
		Title:      "Title",
		Text:       "Text",
		PubDateRaw: "2026-08-01T10:00",
		CategoryID: category.ID,
		LocationID: location.ID,
	}
	assert.Empty(t, form.Validate(db))
	assert.Equal(t, 2026, form.PubDate.Year())

	empty := &PostForm{}
	fieldErrors := empty.Validate(db)
	for _, field := range []string{"title", "text", "pub_date", "category", "location"} {
		assert.Contains(t, fieldErrors, field)
	}

	badRefs := &PostForm{Title: "T", Text: "T", PubDateRaw: "2026-08-01T10:00", CategoryID: 999, LocationID: 999}
	fieldErrors = badRefs.Validate(db)
	assert.Contains(t, fieldErrors, "category")
	assert.Contains(t, fieldErrors, "location")
}

func TestEditPost_NonAuthorRedirected(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, "author", false)
	staff := createTestUser(db, "moderator", true)
	category, location := createTestFixtures(db)
	post := createTestPost(db, author, category, location)

	form := validPostForm(category, location)
	form.Set("title", "Hijacked")

	// even staff cannot edit someone else's post
	w := postForm(router, fmt.Sprintf("/posts/%d/edit/", post.ID), form, loginCookies(router, staff.ID))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	var unchanged models.Post
	db.First(&unchanged, post.ID)
	assert.Equal(t, "Original Title", unchanged.Title)
}

func TestEditPost_AuthorUpdates(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, "author", false)
	category, location := createTestFixtures(db)
	post := createTestPost(db, author, category, location)

	form := validPostForm(category, location)
	form.Set("title", "Updated Title")

	w := postForm(router, fmt.Sprintf("/posts/%d/edit/", post.ID), form, loginCookies(router, author.ID))

	assert.Equal(t, http.StatusFound, w.Code)

	var updated models.Post
	db.First(&updated, post.ID)
	assert.Equal(t, "Updated Title", updated.Title)
}

func TestDeletePost_Author(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, "author", false)
	category, location := createTestFixtures(db)
	post := createTestPost(db, author, category, location)
	db.Create(&models.Comment{Text: "a comment", PostID: post.ID, AuthorID: author.ID, IsPublished: true})

	w := postForm(router, fmt.Sprintf("/posts/%d/delete/", post.ID), url.Values{}, loginCookies(router, author.ID))

	assert.Equal(t, http.StatusFound, w.Code)

	var count int64
	db.Model(&models.Post{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// comments go with the post
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDeletePost_Staff(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, "author", false)
	staff := createTestUser(db, "moderator", true)
	category, location := createTestFixtures(db)
	post := createTestPost(db, author, category, location)

	w := postForm(router, fmt.Sprintf("/posts/%d/delete/", post.ID), url.Values{}, loginCookies(router, staff.ID))

	assert.Equal(t, http.StatusFound, w.Code)

	var count int64
	db.Model(&models.Post{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDeletePost_StrangerRedirected(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, "author", false)
	stranger := createTestUser(db, "stranger", false)
	category, location := createTestFixtures(db)
	post := createTestPost(db, author, category, location)

	w := postForm(router, fmt.Sprintf("/posts/%d/delete/", post.ID), url.Values{}, loginCookies(router, stranger.ID))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	var count int64
	db.Model(&models.Post{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeletePost_Missing(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	user := createTestUser(db, "author", false)

	w := postForm(router, "/posts/999/delete/", url.Values{}, loginCookies(router, user.ID))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

package blog

import (
	"bytes"
	"html/template"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"papyrus/accounts"
	"papyrus/analytics"
	"papyrus/models"
)

type BlogModule struct {
	db    *gorm.DB
	stats *analytics.AnalyticsModule
}

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // allow raw HTML passthrough in Markdown
	),
)

func NewBlogModule(db *gorm.DB, stats *analytics.AnalyticsModule) *BlogModule {
	return &BlogModule{db: db, stats: stats}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/", b.index)
	router.GET("/posts/:id/", b.postDetail)
	router.GET("/category/:slug/", b.categoryPosts)
	router.GET("/profile/:username/", b.profile)
	router.GET("/sitemap.xml", b.sitemap)
}

// postEntry is a listing row: a post plus its comment count.
type postEntry struct {
	models.Post
	CommentCount int64
}

func (b *BlogModule) withCommentCounts(posts []models.Post) []postEntry {
	entries := make([]postEntry, 0, len(posts))
	for _, post := range posts {
		var count int64
		b.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
		entries = append(entries, postEntry{Post: post, CommentCount: count})
	}
	return entries
}

func (b *BlogModule) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", gin.H{})
}

func (b *BlogModule) index(c *gin.Context) {
	now := time.Now()

	var total int64
	b.db.Model(&models.Post{}).Scopes(VisibleScope(now)).Count(&total)
	page := paginate(total, pageParam(c))

	var posts []models.Post
	if err := b.db.Model(&models.Post{}).
		Preload("Category").Preload("Location").Preload("Author").
		Scopes(VisibleScope(now)).
		Order("posts.pub_date DESC").
		Offset(page.Offset).Limit(PostsPerPage).
		Find(&posts).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "index.html", gin.H{
			"error": "Error loading posts",
		})
		return
	}

	b.stats.TrackVisit(c, nil)

	c.HTML(http.StatusOK, "index.html", gin.H{
		"posts": b.withCommentCounts(posts),
		"page":  page,
	})
}

func (b *BlogModule) categoryPosts(c *gin.Context) {
	slug := c.Param("slug")
	now := time.Now()

	var category models.Category
	if err := b.db.Where("slug = ? AND is_published = ?", slug, true).First(&category).Error; err != nil {
		b.notFound(c)
		return
	}

	var total int64
	b.db.Model(&models.Post{}).Scopes(VisibleScope(now)).
		Where("posts.category_id = ?", category.ID).Count(&total)
	page := paginate(total, pageParam(c))

	var posts []models.Post
	if err := b.db.Model(&models.Post{}).
		Preload("Category").Preload("Location").Preload("Author").
		Scopes(VisibleScope(now)).
		Where("posts.category_id = ?", category.ID).
		Order("posts.pub_date DESC").
		Offset(page.Offset).Limit(PostsPerPage).
		Find(&posts).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "category.html", gin.H{
			"error":    "Error loading posts",
			"category": category,
		})
		return
	}

	c.HTML(http.StatusOK, "category.html", gin.H{
		"category": category,
		"posts":    b.withCommentCounts(posts),
		"page":     page,
	})
}

func (b *BlogModule) postDetail(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		b.notFound(c)
		return
	}

	var post models.Post
	if err := b.db.Preload("Category").Preload("Location").Preload("Author").
		First(&post, id).Error; err != nil {
		b.notFound(c)
		return
	}

	viewerID := accounts.CurrentUserID(c)
	if !CanView(&post, viewerID, time.Now()) {
		b.notFound(c)
		return
	}

	var comments []models.Comment
	b.db.Preload("Author").
		Where("post_id = ? AND is_published = ?", post.ID, true).
		Order("created_at ASC").
		Find(&comments)

	b.stats.TrackVisit(c, &id)

	c.HTML(http.StatusOK, "detail.html", gin.H{
		"post":     post,
		"textHTML": template.HTML(renderMarkdown(post.Text)),
		"comments": comments,
		"form":     gin.H{"text": ""},
		"isOwner":  viewerID == post.AuthorID,
	})
}

func (b *BlogModule) profile(c *gin.Context) {
	username := c.Param("username")
	now := time.Now()

	var profileUser models.User
	if err := b.db.Where("username = ?", username).First(&profileUser).Error; err != nil {
		b.notFound(c)
		return
	}

	viewerID := accounts.CurrentUserID(c)
	isOwner := viewerID == profileUser.ID

	countQuery := b.db.Model(&models.Post{}).Where("posts.author_id = ?", profileUser.ID)
	if !isOwner {
		countQuery = countQuery.Scopes(AuthorScope(now))
	}

	var total int64
	countQuery.Count(&total)
	page := paginate(total, pageParam(c))

	listQuery := b.db.Model(&models.Post{}).
		Preload("Category").Preload("Location").Preload("Author").
		Where("posts.author_id = ?", profileUser.ID)
	if !isOwner {
		listQuery = listQuery.Scopes(AuthorScope(now))
	}

	var posts []models.Post
	if err := listQuery.
		Order("posts.pub_date DESC").
		Offset(page.Offset).Limit(PostsPerPage).
		Find(&posts).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "profile.html", gin.H{
			"error":   "Error loading posts",
			"profile": profileUser,
		})
		return
	}

	c.HTML(http.StatusOK, "profile.html", gin.H{
		"profile": profileUser,
		"posts":   b.withCommentCounts(posts),
		"page":    page,
		"isOwner": isOwner,
	})
}

func (b *BlogModule) sitemap(c *gin.Context) {
	domain := strings.TrimSuffix(domainOrDefault(), "/")
	now := time.Now()

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	writeURL := func(loc, changefreq, priority string) {
		sitemap.WriteString("  <url>\n")
		sitemap.WriteString("    <loc>" + loc + "</loc>\n")
		sitemap.WriteString("    <changefreq>" + changefreq + "</changefreq>\n")
		sitemap.WriteString("    <priority>" + priority + "</priority>\n")
		sitemap.WriteString("  </url>\n")
	}

	writeURL(domain+"/", "daily", "1.0")
	writeURL(domain+"/pages/about", "monthly", "0.3")
	writeURL(domain+"/pages/rules", "monthly", "0.3")

	var categories []models.Category
	b.db.Where("is_published = ?", true).Find(&categories)
	for _, category := range categories {
		writeURL(domain+"/category/"+category.Slug+"/", "weekly", "0.7")
	}

	var posts []models.Post
	b.db.Model(&models.Post{}).Scopes(VisibleScope(now)).Find(&posts)
	for _, post := range posts {
		sitemap.WriteString("  <url>\n")
		sitemap.WriteString("    <loc>" + domain + "/posts/" + strconv.Itoa(int(post.ID)) + "/</loc>\n")
		sitemap.WriteString("    <lastmod>" + post.PubDate.Format(time.RFC3339) + "</lastmod>\n")
		sitemap.WriteString("    <changefreq>monthly</changefreq>\n")
		sitemap.WriteString("    <priority>0.6</priority>\n")
		sitemap.WriteString("  </url>\n")
	}

	sitemap.WriteString("</urlset>\n")

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, sitemap.String())
}

func domainOrDefault() string {
	d := os.Getenv("DOMAIN")
	if d == "" {
		return "http://localhost:8080"
	}
	return d
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// On conversion errors fall back to the raw text so the page still renders
		return content
	}
	return buf.String()
}

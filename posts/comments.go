package posts

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"papyrus/cache"
	emailpkg "papyrus/email"
	"papyrus/models"
)

// strictComments switches empty comment submissions from the legacy
// silent redirect to a rendered form error.
func strictComments() bool {
	return os.Getenv("strict_comments") == "1"
}

func (p *PostsModule) addComment(c *gin.Context) {
	post, ok := p.loadPost(c)
	if !ok {
		return
	}

	text := strings.TrimSpace(c.PostForm("text"))
	if text == "" {
		if strictComments() {
			c.HTML(http.StatusBadRequest, "comment.html", gin.H{
				"post":  post,
				"error": "Comment text is required",
			})
			return
		}

		// Legacy behavior: drop the invalid submission and land the
		// user back on the post as if nothing happened.
		c.Redirect(http.StatusFound, postURL(post.ID))
		return
	}

	userID := c.GetInt("user_id")

	comment := models.Comment{
		Text:        text,
		PostID:      post.ID,
		AuthorID:    userID,
		IsPublished: true,
		CreatedAt:   time.Now(),
	}

	if err := p.db.Create(&comment).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "comment.html", gin.H{
			"post":  post,
			"error": "Error saving comment",
		})
		return
	}

	cache.ClearPage(int(post.ID))

	p.notifyPostAuthor(post, userID)

	c.Redirect(http.StatusFound, postURL(post.ID))
}

// notifyPostAuthor mails the post's author about a new comment, unless
// they commented on their own post or SMTP is not configured.
func (p *PostsModule) notifyPostAuthor(post *models.Post, commenterID int) {
	if post.AuthorID == commenterID {
		return
	}

	emailService := emailpkg.NewEmailService()
	if !emailService.Configured() {
		return
	}

	var author, commenter models.User
	if err := p.db.First(&author, post.AuthorID).Error; err != nil {
		return
	}
	if err := p.db.First(&commenter, commenterID).Error; err != nil {
		return
	}

	domain := os.Getenv("DOMAIN")
	if domain == "" {
		domain = "http://localhost:8080"
	}
	link := strings.TrimSuffix(domain, "/") + postURL(post.ID)

	go func() {
		if err := emailService.SendCommentNotification(author.Email, post.Title, commenter.FullName(), link); err != nil {
			log.Printf("Error sending comment notification to %s: %v", author.Email, err)
		}
	}()
}

// loadOwnComment fetches the comment named in the route and checks it
// belongs to both the given post and the requester. Any mismatch renders
// the 404 page: a wrong post id must not reveal that the comment exists.
func (p *PostsModule) loadOwnComment(c *gin.Context) (*models.Comment, bool) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		p.notFound(c)
		return nil, false
	}

	commentID, err := strconv.Atoi(c.Param("cid"))
	if err != nil {
		p.notFound(c)
		return nil, false
	}

	var comment models.Comment
	if err := p.db.First(&comment, commentID).Error; err != nil {
		p.notFound(c)
		return nil, false
	}

	if comment.PostID != uint(postID) || comment.AuthorID != c.GetInt("user_id") {
		p.notFound(c)
		return nil, false
	}

	return &comment, true
}

func (p *PostsModule) editCommentPage(c *gin.Context) {
	comment, ok := p.loadOwnComment(c)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "comment.html", gin.H{
		"comment": comment,
		"form":    gin.H{"text": comment.Text},
	})
}

func (p *PostsModule) editCommentPost(c *gin.Context) {
	comment, ok := p.loadOwnComment(c)
	if !ok {
		return
	}

	text := strings.TrimSpace(c.PostForm("text"))
	if text == "" {
		c.HTML(http.StatusBadRequest, "comment.html", gin.H{
			"comment": comment,
			"error":   "Comment text is required",
		})
		return
	}

	comment.Text = text
	if err := p.db.Save(comment).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "comment.html", gin.H{
			"comment": comment,
			"error":   "Error saving comment",
		})
		return
	}

	cache.ClearPage(int(comment.PostID))

	c.Redirect(http.StatusFound, postURL(comment.PostID))
}

func (p *PostsModule) deleteCommentPage(c *gin.Context) {
	comment, ok := p.loadOwnComment(c)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "comment.html", gin.H{
		"comment":       comment,
		"confirmDelete": true,
	})
}

func (p *PostsModule) deleteComment(c *gin.Context) {
	comment, ok := p.loadOwnComment(c)
	if !ok {
		return
	}

	if err := p.db.Delete(comment).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "comment.html", gin.H{
			"comment": comment,
			"error":   "Error deleting comment",
		})
		return
	}

	cache.ClearPage(int(comment.PostID))

	c.Redirect(http.StatusFound, postURL(comment.PostID))
}

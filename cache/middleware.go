package cache

import (
	"bytes"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

var postPathPattern = regexp.MustCompile(`^/posts/(\d+)/?$`)

// Middleware caches rendered post detail pages for anonymous visitors.
func Middleware(maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != "GET" {
			c.Next()
			return
		}

		postID, ok := postIDFromPath(c.Request.URL.Path)
		if !ok {
			c.Next()
			return
		}

		// Logged-in viewers may see unpublished state of their own
		// posts; serve them a fresh render every time.
		session := sessions.Default(c)
		if session.Get("user_id") != nil {
			c.Next()
			return
		}

		if cached, found := ReadPage(postID, maxAge); found {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = writer

		c.Next()

		// Only cache successful HTML responses
		if c.Writer.Status() == http.StatusOK &&
			c.Writer.Header().Get("Content-Type") == "text/html; charset=utf-8" {
			WritePage(postID, writer.body.String())
		}
	}
}

// postIDFromPath extracts the post id from a /posts/<id>/ path
func postIDFromPath(path string) (int, bool) {
	matches := postPathPattern.FindStringSubmatch(path)
	if matches == nil {
		return 0, false
	}

	id, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

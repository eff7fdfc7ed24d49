package pages

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Static informational pages. No module state to carry.
func RegisterRoutes(router *gin.Engine) {
	router.GET("/pages/about", about)
	router.GET("/pages/rules", rules)
}

func about(c *gin.Context) {
	c.HTML(http.StatusOK, "about.html", gin.H{})
}

func rules(c *gin.Context) {
	c.HTML(http.StatusOK, "rules.html", gin.H{})
}

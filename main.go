package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"papyrus/accounts"
	"papyrus/admin"
	"papyrus/analytics"
	"papyrus/blog"
	"papyrus/cache"
	"papyrus/common"
	"papyrus/database"
	"papyrus/pages"
	"papyrus/posts"
)

func main() {
	_ = godotenv.Load()

	db := common.ConnectDb()
	if db == nil {
		log.Fatal("Failed to connect to database")
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	statsModule := analytics.NewAnalyticsModule(common.ConnectStatsDb())

	router := gin.Default()

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET environment variable not set")
	}

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
	})

	router.Use(sessions.Sessions("papyrus-session", store))
	router.Use(cache.Middleware(10 * time.Minute))

	router.SetFuncMap(map[string]interface{}{
		"now": func() time.Time {
			return time.Now()
		},
		"domain": func() string {
			d := os.Getenv("DOMAIN")
			if d == "" {
				return "http://localhost:8080"
			}
			return d
		},
	})

	router.LoadHTMLGlob("*/views/*.html")

	router.Static("/public", "./public")

	accountsModule := accounts.NewAccountsModule(db)
	accountsModule.RegisterRoutes(router)

	blogModule := blog.NewBlogModule(db, statsModule)
	blogModule.RegisterRoutes(router)

	postsModule := posts.NewPostsModule(db)
	postsModule.RegisterRoutes(router, accountsModule)

	adminModule := admin.NewAdminModule(db, statsModule)
	adminModule.RegisterRoutes(router)

	pages.RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

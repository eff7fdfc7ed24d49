package accounts

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"papyrus/models"
)

type AccountsModule struct {
	db *gorm.DB
}

func NewAccountsModule(db *gorm.DB) *AccountsModule {
	return &AccountsModule{db: db}
}

func (a *AccountsModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/auth/login", a.loginPage)
	router.POST("/auth/login", a.loginPost)
	router.GET("/auth/logout", a.logout)
	router.GET("/auth/registration", a.registrationPage)
	router.POST("/auth/registration", a.registrationPost)

	router.GET("/profile/edit_profile/", a.RequireAuth, a.editProfilePage)
	router.POST("/profile/edit_profile/", a.RequireAuth, a.editProfilePost)
}

// RequireAuth protects routes that need a logged-in user. Anonymous
// requests are sent to the login page.
func (a *AccountsModule) RequireAuth(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("user_id")

	if userID == nil {
		c.Redirect(http.StatusFound, "/auth/login")
		c.Abort()
		return
	}

	c.Set("user_id", userID.(int))
	c.Next()
}

// CurrentUserID returns the logged-in user's id, or 0 for anonymous
// requests. Safe to call from routes without the RequireAuth guard.
func CurrentUserID(c *gin.Context) int {
	if id, exists := c.Get("user_id"); exists {
		return id.(int)
	}

	session := sessions.Default(c)
	if id, ok := session.Get("user_id").(int); ok {
		return id
	}
	return 0
}

// CurrentUser loads the logged-in user's row, or nil for anonymous requests.
func CurrentUser(c *gin.Context, db *gorm.DB) *models.User {
	id := CurrentUserID(c)
	if id == 0 {
		return nil
	}

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil
	}
	return &user
}

func (a *AccountsModule) loginPage(c *gin.Context) {
	if CurrentUserID(c) != 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (a *AccountsModule) loginPost(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	var user models.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"error":    "Incorrect username or password",
			"username": username,
		})
		return
	}

	if !checkPasswordHash(password, user.PasswordHash) {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"error":    "Incorrect username or password",
			"username": username,
		})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

func (a *AccountsModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

func (a *AccountsModule) registrationPage(c *gin.Context) {
	if CurrentUserID(c) != 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "registration.html", gin.H{})
}

func (a *AccountsModule) registrationPost(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	firstName := strings.TrimSpace(c.PostForm("first_name"))
	lastName := strings.TrimSpace(c.PostForm("last_name"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	// Data to re-render the form with on error (never the password)
	formData := gin.H{
		"username":   username,
		"first_name": firstName,
		"last_name":  lastName,
		"email":      email,
	}

	if username == "" || email == "" || password == "" {
		formData["error"] = "Username, email and password are required"
		c.HTML(http.StatusBadRequest, "registration.html", formData)
		return
	}

	var existing models.User
	if err := a.db.Where("username = ?", username).First(&existing).Error; err == nil {
		formData["error"] = "This username is already taken"
		c.HTML(http.StatusBadRequest, "registration.html", formData)
		return
	}
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		formData["error"] = "This email is already registered"
		c.HTML(http.StatusBadRequest, "registration.html", formData)
		return
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		formData["error"] = "Error creating account"
		c.HTML(http.StatusInternalServerError, "registration.html", formData)
		return
	}

	user := models.User{
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
	}

	if err := a.db.Create(&user).Error; err != nil {
		formData["error"] = "Error creating account"
		c.HTML(http.StatusInternalServerError, "registration.html", formData)
		return
	}

	c.Redirect(http.StatusFound, "/auth/login")
}

func (a *AccountsModule) editProfilePage(c *gin.Context) {
	user := CurrentUser(c, a.db)
	if user == nil {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	c.HTML(http.StatusOK, "edit_profile.html", gin.H{
		"user": user,
	})
}

func (a *AccountsModule) editProfilePost(c *gin.Context) {
	user := CurrentUser(c, a.db)
	if user == nil {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	username := strings.TrimSpace(c.PostForm("username"))
	firstName := strings.TrimSpace(c.PostForm("first_name"))
	lastName := strings.TrimSpace(c.PostForm("last_name"))
	email := strings.TrimSpace(c.PostForm("email"))

	if username == "" || email == "" {
		c.HTML(http.StatusBadRequest, "edit_profile.html", gin.H{
			"error": "Username and email are required",
			"user":  user,
		})
		return
	}

	var existing models.User
	if err := a.db.Where("username = ? AND id <> ?", username, user.ID).First(&existing).Error; err == nil {
		c.HTML(http.StatusBadRequest, "edit_profile.html", gin.H{
			"error": "This username is already taken",
			"user":  user,
		})
		return
	}
	if err := a.db.Where("email = ? AND id <> ?", email, user.ID).First(&existing).Error; err == nil {
		c.HTML(http.StatusBadRequest, "edit_profile.html", gin.H{
			"error": "This email is already registered",
			"user":  user,
		})
		return
	}

	user.Username = username
	user.FirstName = firstName
	user.LastName = lastName
	user.Email = email

	if err := a.db.Save(user).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "edit_profile.html", gin.H{
			"error": "Error saving profile",
			"user":  user,
		})
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

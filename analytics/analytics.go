package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PostEvent is one recorded page visit. PostID is nil for visits to the
// home listing.
type PostEvent struct {
	ID        uint    `gorm:"primary_key;autoIncrement"`
	PostID    *int    `gorm:"index"`
	CookieID  string  `gorm:"not null;index"`
	Event     string  `gorm:"not null;default:'visit'"`
	IP        string  `gorm:"not null"`
	Browser   *string // nullable
	Language  *string // nullable
	CreatedAt time.Time `gorm:"index"`
}

// AnalyticsModule tracks visits in a database separate from the content DB.
// A nil module (stats DB not configured) disables tracking.
type AnalyticsModule struct {
	db *gorm.DB
}

func NewAnalyticsModule(db *gorm.DB) *AnalyticsModule {
	if db == nil {
		log.Println("Analytics DB is nil, analytics will be disabled")
		return nil
	}

	if err := db.AutoMigrate(&PostEvent{}); err != nil {
		log.Printf("Error migrating post_events table: %v", err)
		return nil
	}

	log.Println("Analytics module initialized successfully")
	return &AnalyticsModule{db: db}
}

// TrackVisit records a visit to the home listing (postID nil) or to a
// post detail page. A visitor refreshing the same page within 30 minutes
// is only counted once.
func (a *AnalyticsModule) TrackVisit(c *gin.Context, postID *int) {
	if a == nil || a.db == nil {
		return
	}

	cookieID := a.getOrCreateCookieID(c)

	thirtyMinutesAgo := time.Now().Add(-30 * time.Minute)

	var recentVisit PostEvent
	query := a.db.Where("cookie_id = ? AND created_at > ?", cookieID, thirtyMinutesAgo)

	if postID != nil {
		query = query.Where("post_id = ?", *postID)
	} else {
		query = query.Where("post_id IS NULL")
	}

	if err := query.First(&recentVisit).Error; err == nil {
		return
	}

	ip := a.getClientIP(c)
	browser := a.extractBrowser(c.Request.UserAgent())
	language := a.extractLanguage(c)

	event := PostEvent{
		PostID:    postID,
		CookieID:  cookieID,
		Event:     "visit",
		IP:        ip,
		Browser:   browser,
		Language:  language,
		CreatedAt: time.Now(),
	}

	// Insert asynchronously so tracking never slows a page render
	go func() {
		if err := a.db.Create(&event).Error; err != nil {
			log.Printf("Error saving analytics event: %v", err)
		}
	}()
}

func (a *AnalyticsModule) getOrCreateCookieID(c *gin.Context) string {
	cookieName := "papyrus_visitor_id"

	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	data := time.Now().String() + c.ClientIP() + c.Request.UserAgent()
	hash := sha256.Sum256([]byte(data))
	cookieID := hex.EncodeToString(hash[:])

	c.SetCookie(
		cookieName,
		cookieID,
		60*60*24*365*2, // 2 years
		"/",
		"",
		false, // secure - would be true behind HTTPS
		true,  // httpOnly
	)

	return cookieID
}

// getClientIP resolves the real client IP behind common proxy headers
func (a *AnalyticsModule) getClientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}

	return c.ClientIP()
}

func (a *AnalyticsModule) extractBrowser(userAgent string) *string {
	if userAgent == "" {
		return nil
	}

	ua := strings.ToLower(userAgent)
	var browser string

	// Order matters - check the more specific browsers first
	switch {
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome") && !strings.Contains(ua, "edg"):
		browser = "Chrome"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		browser = "Safari"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		browser = "Opera"
	default:
		browser = "Other"
	}

	return &browser
}

func (a *AnalyticsModule) extractLanguage(c *gin.Context) *string {
	acceptLang := c.GetHeader("Accept-Language")
	if acceptLang == "" {
		return nil
	}

	// "en-US,en;q=0.9" - take the first, most preferred language
	parts := strings.Split(acceptLang, ",")
	if len(parts) > 0 {
		lang := strings.TrimSpace(parts[0])
		lang = strings.Split(lang, ";")[0]
		return &lang
	}

	return nil
}

// DayVisits is the visit count of a single day
type DayVisits struct {
	Date  string
	Count int64
}

// PostVisits is the visit count of a single post
type PostVisits struct {
	PostID int
	Count  int64
}

// GetPostVisitCount returns the total number of visits to a post
func (a *AnalyticsModule) GetPostVisitCount(postID int) int64 {
	if a == nil || a.db == nil {
		return 0
	}

	var count int64
	a.db.Model(&PostEvent{}).Where("post_id = ?", postID).Count(&count)
	return count
}

// GetVisitsByDay returns visits per day over the last N days, with
// zero-filled entries for days without traffic
func (a *AnalyticsModule) GetVisitsByDay(days int) []DayVisits {
	if a == nil || a.db == nil {
		return []DayVisits{}
	}

	startDate := time.Now().AddDate(0, 0, -days)

	var results []struct {
		Date  string
		Count int64
	}

	a.db.Model(&PostEvent{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", startDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&results)

	dayVisits := make([]DayVisits, days)
	for i := 0; i < days; i++ {
		date := time.Now().AddDate(0, 0, -(days - 1 - i))
		dayVisits[i] = DayVisits{
			Date:  date.Format("2006-01-02"),
			Count: 0,
		}
	}

	for _, result := range results {
		for i := range dayVisits {
			if dayVisits[i].Date == result.Date {
				dayVisits[i].Count = result.Count
				break
			}
		}
	}

	return dayVisits
}

// GetTopPosts returns the N most visited posts over the last X days
func (a *AnalyticsModule) GetTopPosts(days int, limit int) []PostVisits {
	if a == nil || a.db == nil {
		return []PostVisits{}
	}

	startDate := time.Now().AddDate(0, 0, -days)

	var results []PostVisits
	a.db.Model(&PostEvent{}).
		Select("post_id as post_id, COUNT(*) as count").
		Where("post_id IS NOT NULL AND created_at >= ?", startDate).
		Group("post_id").
		Order("count DESC").
		Limit(limit).
		Scan(&results)

	return results
}

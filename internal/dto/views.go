package dto

import (
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/aggregate"
)

// AdminStats are the headline counters of the admin home.
type AdminStats struct {
	TotalUsers         int `json:"totalUsers"`
	TotalPublicLessons int `json:"totalPublicLessons"`
	TotalReports       int `json:"totalReports"`
	LessonsToday       int `json:"lessonsToday"`
}

// AdminHomeView is the admin dashboard landing page.
type AdminHomeView struct {
	Stats           AdminStats            `json:"stats"`
	UserGrowth      []aggregate.DayBucket `json:"userGrowth"`
	LessonGrowth    []aggregate.DayBucket `json:"lessonGrowth"`
	TopContributors []models.Contributor  `json:"topContributors"`
	Degraded        bool                  `json:"degraded"`
}

// UserStats are the counters of a member's home.
type UserStats struct {
	TotalLessons   int `json:"totalLessons"`
	TotalFavorites int `json:"totalFavorites"`
	TotalLikes     int `json:"totalLikes"`
}

// UserHomeView is a member's dashboard landing page.
type UserHomeView struct {
	Stats          UserStats             `json:"stats"`
	RecentLessons  []models.Lesson       `json:"recentLessons"`
	WeeklyActivity []aggregate.DayBucket `json:"weeklyActivity"`
	Degraded       bool                  `json:"degraded"`
}

// ModerationCounts summarise the moderation queue.
type ModerationCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Featured int `json:"featured"`
}

// ModerationView lists every lesson for admin review.
type ModerationView struct {
	Lessons  []models.Lesson  `json:"lessons"`
	Counts   ModerationCounts `json:"counts"`
	Degraded bool             `json:"degraded"`
}

// ReportCasesView lists report cases.
type ReportCasesView struct {
	Cases        []models.ReportCase `json:"cases"`
	TotalReports int                 `json:"totalReports"`
	Degraded     bool                `json:"degraded"`
}

// DirectoryEntry is a user row with their lesson count.
type DirectoryEntry struct {
	models.User
	LessonCount int `json:"lessonCount"`
}

// DirectoryCounts summarise the user directory.
type DirectoryCounts struct {
	Total   int `json:"total"`
	Admins  int `json:"admins"`
	Premium int `json:"premium"`
}

// UserDirectoryView is the admin user list.
type UserDirectoryView struct {
	Users    []DirectoryEntry `json:"users"`
	Counts   DirectoryCounts  `json:"counts"`
	Search   string           `json:"search,omitempty"`
	Degraded bool             `json:"degraded"`
}

// MyLessonsView lists the caller's own lessons.
type MyLessonsView struct {
	Lessons             []models.Lesson `json:"lessons"`
	Total               int             `json:"total"`
	CanUsePremiumAccess bool            `json:"canUsePremiumAccess"`
	Categories          []string        `json:"categories"`
	Tones               []string        `json:"tones"`
	Degraded            bool            `json:"degraded"`
}

// MyFavoritesView lists the caller's favorites.
type MyFavoritesView struct {
	Favorites []models.Favorite `json:"favorites"`
	Count     int               `json:"count"`
	Degraded  bool              `json:"degraded"`
}

// ProfileView is the caller's profile page.
type ProfileView struct {
	User           *models.User    `json:"user"`
	Lessons        []models.Lesson `json:"lessons"`
	LessonsCount   int             `json:"lessonsCount"`
	FavoritesCount int             `json:"favoritesCount"`
	Degraded       bool            `json:"degraded"`
}

// FeaturedLesson marks whether the viewer may open the lesson.
type FeaturedLesson struct {
	models.Lesson
	Locked bool `json:"locked"`
}

// FeaturedView is the public featured-lessons strip.
type FeaturedView struct {
	Lessons       []FeaturedLesson `json:"lessons"`
	ViewerPremium bool             `json:"viewerPremium"`
	Degraded      bool             `json:"degraded"`
}

// ContributorsView is the weekly leaderboard.
type ContributorsView struct {
	Contributors []models.Contributor `json:"contributors"`
	Degraded     bool                 `json:"degraded"`
}

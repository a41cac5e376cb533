package models

import "encoding/json"

// LessonStatus tracks moderation state.
type LessonStatus string

const (
	LessonPending  LessonStatus = "pending"
	LessonApproved LessonStatus = "approved"
)

// Lesson categories offered by the edit form.
var LessonCategories = []string{
	"Personal Growth",
	"Career",
	"Relationships",
	"Mindset",
	"Mistakes Learned",
	"Philosophy",
}

// Lesson tones offered by the edit form.
var LessonTones = []string{
	"Motivational",
	"Sad",
	"Gratitude",
	"Realization",
}

// Lesson is a user-submitted post.
type Lesson struct {
	ID              string            `json:"_id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Category        string            `json:"category"`
	Tone            string            `json:"tone"`
	Image           string            `json:"image,omitempty"`
	AuthorEmail     string            `json:"email"`
	AuthorName      string            `json:"name"`
	AuthorImage     string            `json:"authorImage,omitempty"`
	IsPrivate       Flag              `json:"isPrivate"`
	IsPremiumAccess Flag              `json:"isPremiumAccess"`
	IsFeatured      Flag              `json:"isFeatured"`
	Status          LessonStatus      `json:"status"`
	PostedAt        Timestamp         `json:"postedAt"`
	FavoritesCount  int               `json:"favorites"`
	Comments        []json.RawMessage `json:"comments,omitempty"`
}

// Approved reports whether the lesson passed moderation.
func (l Lesson) Approved() bool {
	return l.Status == LessonApproved
}

// LessonList is the {result, total} envelope of lesson listings.
type LessonList struct {
	Result []Lesson `json:"result"`
	Total  int      `json:"total"`
}

// LessonFilter maps to the query-string filters accepted by GET /lessons.
type LessonFilter struct {
	Email      string
	IsFeatured *bool
	IsPrivate  *bool
	Sort       string
}

// LessonEdit is the body of PATCH /lessons/:id/edit and of the matching
// favorites copy.
type LessonEdit struct {
	Title           string `json:"title" validate:"required,min=3,max=160"`
	Description     string `json:"description" validate:"required,min=10"`
	Category        string `json:"category" validate:"required"`
	Tone            string `json:"tone" validate:"required"`
	IsPrivate       Flag   `json:"isPrivate"`
	IsPremiumAccess Flag   `json:"isPremiumAccess"`
	Image           string `json:"image"`
}

// Apply copies the edit onto l.
func (e LessonEdit) Apply(l Lesson) Lesson {
	l.Title = e.Title
	l.Description = e.Description
	l.Category = e.Category
	l.Tone = e.Tone
	l.IsPrivate = e.IsPrivate
	l.IsPremiumAccess = e.IsPremiumAccess
	l.Image = e.Image
	return l
}

// StatusPatch is the body of PATCH /lessons/:id/status.
type StatusPatch struct {
	Status LessonStatus `json:"status"`
}

// FeaturedPatch is the body of PATCH /lessons/:id/featured.
type FeaturedPatch struct {
	IsFeatured Flag `json:"isFeatured"`
}

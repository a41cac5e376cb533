package models

// Favorite records one viewer bookmarking one lesson.
type Favorite struct {
	ID          string    `json:"_id"`
	PostID      string    `json:"postId"`
	PostTitle   string    `json:"postTitle"`
	PostImage   string    `json:"postImage,omitempty"`
	PosterEmail string    `json:"posterEmail"`
	PosterName  string    `json:"posterName"`
	PosterImage string    `json:"posterImage,omitempty"`
	FavoriteAt  Timestamp `json:"favoriteAt"`
	ViewerEmail string    `json:"viewerEmail"`
}

// Like is only counted by the user dashboard.
type Like struct {
	ID     string `json:"_id"`
	PostID string `json:"postId"`
	Email  string `json:"email"`
}

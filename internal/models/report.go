package models

import "time"

// UntitledLesson labels report cases whose reports carry no title.
const UntitledLesson = "Untitled Lesson"

// Report is one user's flag against a lesson.
type Report struct {
	ID                string    `json:"_id"`
	PostID            string    `json:"postId"`
	PostTitle         string    `json:"postTitle"`
	ReportedUserEmail string    `json:"reportedUserEmail"`
	ReportReason      string    `json:"reportReason"`
	ReportDetails     string    `json:"reportDetails,omitempty"`
	ReportedAt        Timestamp `json:"reportedAt"`
}

// ReportCase aggregates every report against one lesson.
type ReportCase struct {
	PostID         string    `json:"postId"`
	Title          string    `json:"title"`
	Count          int       `json:"count"`
	LatestReportAt time.Time `json:"latestReportAt"`
	Reports        []Report  `json:"reports"`
}

// ReportIDs lists the ids of every report in the case.
func (c ReportCase) ReportIDs() []string {
	ids := make([]string, 0, len(c.Reports))
	for _, r := range c.Reports {
		ids = append(ids, r.ID)
	}
	return ids
}

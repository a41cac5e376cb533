// Package aggregate derives view state from fetched collections. Every
// function is pure: no I/O, and inputs are never mutated.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/wisdom-gateway/internal/models"
)

// GrowthWindow is the number of days plotted by growth charts.
const GrowthWindow = 7

// DayLabel formats bucket labels, e.g. "Jan 2".
const DayLabel = "Jan 2"

// DayBucket is one point of a per-day series.
type DayBucket struct {
	Date  string    `json:"date"`
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// GroupReports folds reports into cases keyed by postId, in first-seen order.
func GroupReports(reports []models.Report) []models.ReportCase {
	index := make(map[string]int)
	cases := make([]models.ReportCase, 0)
	for _, r := range reports {
		i, ok := index[r.PostID]
		if !ok {
			title := strings.TrimSpace(r.PostTitle)
			if title == "" {
				title = models.UntitledLesson
			}
			index[r.PostID] = len(cases)
			cases = append(cases, models.ReportCase{
				PostID:         r.PostID,
				Title:          title,
				LatestReportAt: r.ReportedAt.Time,
			})
			i = len(cases) - 1
		}
		c := &cases[i]
		c.Count++
		c.Reports = append(c.Reports, r)
		if r.ReportedAt.After(c.LatestReportAt) {
			c.LatestReportAt = r.ReportedAt.Time
		}
	}
	return cases
}

// SortCasesByLatest orders cases by most recent report, keeping first-seen order on ties.
func SortCasesByLatest(cases []models.ReportCase) []models.ReportCase {
	out := append([]models.ReportCase(nil), cases...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LatestReportAt.After(out[j].LatestReportAt)
	})
	return out
}

// BucketByDay counts times per UTC calendar day and returns the most recent
// limit days in chronological order. Days without events are not synthesized.
func BucketByDay(times []time.Time, limit int) []DayBucket {
	counts := make(map[time.Time]int)
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		u := t.UTC()
		day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		counts[day]++
	}

	days := make([]time.Time, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	if limit > 0 && len(days) > limit {
		days = days[len(days)-limit:]
	}

	buckets := make([]DayBucket, 0, len(days))
	for _, day := range days {
		buckets = append(buckets, DayBucket{Date: day.Format(DayLabel), Day: day, Count: counts[day]})
	}
	return buckets
}

// SortForModeration puts lessons awaiting review first, newest first within each group.
func SortForModeration(lessons []models.Lesson) []models.Lesson {
	out := append([]models.Lesson(nil), lessons...)
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := out[i].Approved(), out[j].Approved()
		if ai != aj {
			return !ai
		}
		return out[i].PostedAt.After(out[j].PostedAt.Time)
	})
	return out
}

// SortRecent orders lessons newest first.
func SortRecent(lessons []models.Lesson) []models.Lesson {
	out := append([]models.Lesson(nil), lessons...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PostedAt.After(out[j].PostedAt.Time)
	})
	return out
}

// DedupLessons merges lists keeping the first occurrence of every id.
func DedupLessons(lists ...[]models.Lesson) []models.Lesson {
	seen := make(map[string]struct{})
	out := make([]models.Lesson, 0)
	for _, list := range lists {
		for _, l := range list {
			if _, ok := seen[l.ID]; ok {
				continue
			}
			seen[l.ID] = struct{}{}
			out = append(out, l)
		}
	}
	return out
}

// PostedTimes extracts postedAt from lessons.
func PostedTimes(lessons []models.Lesson) []time.Time {
	out := make([]time.Time, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, l.PostedAt.Time)
	}
	return out
}

// CreatedTimes extracts createdAt from users.
func CreatedTimes(users []models.User) []time.Time {
	out := make([]time.Time, 0, len(users))
	for _, u := range users {
		out = append(out, u.CreatedAt.Time)
	}
	return out
}

// CountLessonsByAuthor counts lessons per author email.
func CountLessonsByAuthor(lessons []models.Lesson) map[string]int {
	counts := make(map[string]int)
	for _, l := range lessons {
		counts[strings.ToLower(l.AuthorEmail)]++
	}
	return counts
}

// FilterUsers keeps users whose display name or email contains search, case-insensitively.
func FilterUsers(users []models.User, search string) []models.User {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return append([]models.User(nil), users...)
	}
	out := make([]models.User, 0)
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.DisplayName), needle) || strings.Contains(strings.ToLower(u.Email), needle) {
			out = append(out, u)
		}
	}
	return out
}

// CountSameDay counts lessons posted on the UTC calendar day of now.
func CountSameDay(lessons []models.Lesson, now time.Time) int {
	y, m, d := now.UTC().Date()
	count := 0
	for _, l := range lessons {
		if l.PostedAt.IsZero() {
			continue
		}
		ly, lm, ld := l.PostedAt.UTC().Date()
		if ly == y && lm == m && ld == d {
			count++
		}
	}
	return count
}

// TopN returns at most n leading elements.
func TopN[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) < n {
		n = len(items)
	}
	out := make([]T, n)
	copy(out, items[:n])
	return out
}

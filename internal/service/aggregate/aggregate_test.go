package aggregate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wisdom-gateway/internal/models"
)

func day(s string) models.Timestamp {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return models.NewTimestamp(t)
}

func TestGroupReportsExample(t *testing.T) {
	reports := []models.Report{
		{ID: "r1", PostID: "A", ReportedAt: day("2024-01-01")},
		{ID: "r2", PostID: "A", ReportedAt: day("2024-01-03")},
		{ID: "r3", PostID: "B", ReportedAt: day("2024-01-02")},
	}

	cases := GroupReports(reports)

	require.Len(t, cases, 2)
	assert.Equal(t, "A", cases[0].PostID)
	assert.Equal(t, 2, cases[0].Count)
	assert.Equal(t, "2024-01-03", cases[0].LatestReportAt.Format("2006-01-02"))
	assert.Equal(t, []string{"r1", "r2"}, cases[0].ReportIDs())
	assert.Equal(t, "B", cases[1].PostID)
	assert.Equal(t, 1, cases[1].Count)
	assert.Equal(t, "2024-01-02", cases[1].LatestReportAt.Format("2006-01-02"))
}

func TestGroupReportsCountsAndMaxima(t *testing.T) {
	reports := make([]models.Report, 0, 40)
	for i := 0; i < 40; i++ {
		reports = append(reports, models.Report{
			ID:         fmt.Sprintf("r%d", i),
			PostID:     fmt.Sprintf("p%d", i%6),
			ReportedAt: models.NewTimestamp(time.Date(2024, 3, 1+(i*7)%23, 0, 0, 0, 0, time.UTC)),
		})
	}

	cases := GroupReports(reports)

	total := 0
	for _, c := range cases {
		total += c.Count
		for _, r := range c.Reports {
			assert.False(t, r.ReportedAt.After(c.LatestReportAt), "latest must be the max of members")
		}
	}
	assert.Equal(t, len(reports), total)
}

func TestGroupReportsTitleFallback(t *testing.T) {
	cases := GroupReports([]models.Report{
		{PostID: "A", PostTitle: "  "},
		{PostID: "A", PostTitle: "Later title"},
		{PostID: "B", PostTitle: "Grit"},
	})
	assert.Equal(t, models.UntitledLesson, cases[0].Title)
	assert.Equal(t, "Grit", cases[1].Title)
	assert.Empty(t, GroupReports(nil))
}

func TestSortCasesByLatest(t *testing.T) {
	cases := []models.ReportCase{
		{PostID: "old", LatestReportAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{PostID: "new", LatestReportAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	sorted := SortCasesByLatest(cases)
	assert.Equal(t, "new", sorted[0].PostID)
	assert.Equal(t, "old", cases[0].PostID, "input must not be reordered")
}

func TestBucketByDayKeepsSevenMostRecent(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var times []time.Time
	for d := 9; d >= 0; d-- {
		times = append(times, base.AddDate(0, 0, d*2))
		if d%3 == 0 {
			times = append(times, base.AddDate(0, 0, d*2).Add(time.Hour))
		}
	}
	times = append(times, time.Time{})

	buckets := BucketByDay(times, GrowthWindow)

	require.Len(t, buckets, GrowthWindow)
	assert.Equal(t, "Jan 7", buckets[0].Date)
	assert.Equal(t, "Jan 19", buckets[6].Date)
	for i := 1; i < len(buckets); i++ {
		assert.True(t, buckets[i-1].Day.Before(buckets[i].Day))
	}
	assert.Equal(t, 2, buckets[0].Count)
	assert.Equal(t, 1, buckets[1].Count)
}

func TestBucketByDayUsesUTC(t *testing.T) {
	zone := time.FixedZone("UTC+9", 9*3600)
	buckets := BucketByDay([]time.Time{time.Date(2024, 5, 2, 3, 0, 0, 0, zone)}, GrowthWindow)
	require.Len(t, buckets, 1)
	assert.Equal(t, "May 1", buckets[0].Date)
}

func TestSortForModeration(t *testing.T) {
	lessons := []models.Lesson{
		{ID: "a1", Status: models.LessonApproved, PostedAt: day("2024-01-05")},
		{ID: "p1", Status: models.LessonPending, PostedAt: day("2024-01-01")},
		{ID: "a2", Status: models.LessonApproved, PostedAt: day("2024-01-09")},
		{ID: "p2", Status: "", PostedAt: day("2024-01-03")},
		{ID: "p3", Status: models.LessonPending, PostedAt: day("2024-01-03")},
	}

	sorted := SortForModeration(lessons)

	ids := make([]string, 0, len(sorted))
	for _, l := range sorted {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"p2", "p3", "p1", "a2", "a1"}, ids)

	seenApproved := false
	for i, l := range sorted {
		if l.Approved() {
			seenApproved = true
		} else {
			assert.False(t, seenApproved, "pending after approved at %d", i)
		}
		if i > 0 && sorted[i-1].Approved() == l.Approved() {
			assert.False(t, l.PostedAt.After(sorted[i-1].PostedAt.Time))
		}
	}
}

func TestDedupAndRecent(t *testing.T) {
	public := []models.Lesson{{ID: "1", PostedAt: day("2024-01-01")}, {ID: "2", PostedAt: day("2024-01-04")}}
	recent := []models.Lesson{{ID: "2", Title: "dup"}, {ID: "3", PostedAt: day("2024-01-02")}}

	merged := DedupLessons(public, recent)
	require.Len(t, merged, 3)
	assert.Empty(t, merged[1].Title)

	sorted := SortRecent(merged)
	assert.Equal(t, "2", sorted[0].ID)
	assert.Equal(t, "3", sorted[1].ID)
}

func TestHelpers(t *testing.T) {
	now := time.Date(2024, 1, 4, 22, 0, 0, 0, time.UTC)
	lessons := []models.Lesson{
		{AuthorEmail: "Ann@wisdom.dev", PostedAt: day("2024-01-04")},
		{AuthorEmail: "ann@wisdom.dev", PostedAt: day("2024-01-03")},
		{AuthorEmail: "bob@wisdom.dev"},
	}
	assert.Equal(t, map[string]int{"ann@wisdom.dev": 2, "bob@wisdom.dev": 1}, CountLessonsByAuthor(lessons))
	assert.Equal(t, 1, CountSameDay(lessons, now))

	users := []models.User{{Email: "ann@wisdom.dev", DisplayName: "Ann"}, {Email: "bob@wisdom.dev", DisplayName: "Bobby"}}
	assert.Len(t, FilterUsers(users, "BOB"), 1)
	assert.Len(t, FilterUsers(users, ""), 2)

	assert.Equal(t, []int{1, 2}, TopN([]int{1, 2, 3}, 2))
	assert.Equal(t, []int{1}, TopN([]int{1}, 3))
	assert.Empty(t, TopN([]int{1}, -1))
}

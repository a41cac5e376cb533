package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

// callLog records backend calls in order across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) count(prefix string) int {
	n := 0
	for _, c := range l.all() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

type fakeUsers struct {
	log        *callLog
	users      []models.User
	listErr    error
	findErr    error
	premiumErr error
	roleErr    error
	deleteErr  error
	finds      int
	mu         sync.Mutex
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	f.log.add("GET /users?email=%s", email)
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			clone := u
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) List(context.Context) ([]models.User, error) {
	f.log.add("GET /users")
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.User(nil), f.users...), nil
}

func (f *fakeUsers) Create(_ context.Context, identity models.Identity) error {
	f.log.add("POST /users %s", identity.Email)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, models.User{ID: "u-" + identity.UID, Email: identity.Email, DisplayName: identity.DisplayName, Role: models.RoleUser})
	return nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, patch models.ProfilePatch) error {
	f.log.add("PATCH /users/%s/profile", id)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].DisplayName = patch.DisplayName
			f.users[i].PhotoURL = patch.PhotoURL
		}
	}
	return nil
}

func (f *fakeUsers) SetPremium(_ context.Context, id string) error {
	f.log.add("PATCH /users/%s", id)
	if f.premiumErr != nil {
		return f.premiumErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].IsPremium = true
		}
	}
	return nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id string, role models.UserRole) error {
	f.log.add("PATCH /users/%s/role %s", id, role)
	return f.roleErr
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.log.add("DELETE /users/%s", id)
	return f.deleteErr
}

type fakeLessons struct {
	log       *callLog
	lessons   []models.Lesson
	listErr   error
	editErr   error
	deleteErr error
	filters   []models.LessonFilter
	mu        sync.Mutex
}

func (f *fakeLessons) List(_ context.Context, filter models.LessonFilter) (*models.LessonList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	f.log.add("GET /lessons")
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Lesson, 0, len(f.lessons))
	for _, l := range f.lessons {
		if filter.Email != "" && !strings.EqualFold(l.AuthorEmail, filter.Email) {
			continue
		}
		if filter.IsFeatured != nil && bool(l.IsFeatured) != *filter.IsFeatured {
			continue
		}
		if filter.IsPrivate != nil && bool(l.IsPrivate) != *filter.IsPrivate {
			continue
		}
		out = append(out, l)
	}
	return &models.LessonList{Result: out, Total: len(out)}, nil
}

func (f *fakeLessons) UpdateStatus(_ context.Context, id string, status models.LessonStatus) error {
	f.log.add("PATCH /lessons/%s/status %s", id, status)
	return nil
}

func (f *fakeLessons) UpdateFeatured(_ context.Context, id string, featured bool) error {
	f.log.add("PATCH /lessons/%s/featured %t", id, featured)
	return nil
}

func (f *fakeLessons) Edit(_ context.Context, id string, _ models.LessonEdit) error {
	f.log.add("PATCH /lessons/%s/edit", id)
	return f.editErr
}

func (f *fakeLessons) Delete(_ context.Context, id string) error {
	f.log.add("DELETE /lessons/%s", id)
	return f.deleteErr
}

type fakeReports struct {
	log       *callLog
	reports   []models.Report
	listErr   error
	deleteErr error
	failOnce  map[string]error
}

func (f *fakeReports) List(context.Context) ([]models.Report, error) {
	f.log.add("GET /reports")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Report(nil), f.reports...), nil
}

func (f *fakeReports) Delete(_ context.Context, id string) error {
	f.log.add("DELETE /reports/%s", id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if err, ok := f.failOnce[id]; ok {
		delete(f.failOnce, id)
		return err
	}
	for i, r := range f.reports {
		if r.ID == id {
			f.reports = append(f.reports[:i], f.reports[i+1:]...)
			return nil
		}
	}
	return &apiclient.Error{Status: http.StatusNotFound, Method: http.MethodDelete, Path: "/reports/" + id, Message: "report not found"}
}

type fakeFavorites struct {
	log       *callLog
	favorites []models.Favorite
	listErr   error
	deleteErr error
	syncErr   error
	onDelete  func(id string)
}

func (f *fakeFavorites) ListByEmail(_ context.Context, email string) ([]models.Favorite, error) {
	f.log.add("GET /favorites?email=%s", email)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Favorite{}
	for _, fav := range f.favorites {
		if strings.EqualFold(fav.ViewerEmail, email) {
			out = append(out, fav)
		}
	}
	return out, nil
}

func (f *fakeFavorites) Delete(_ context.Context, id string) error {
	f.log.add("DELETE /favorites/%s", id)
	if f.onDelete != nil {
		f.onDelete(id)
	}
	return f.deleteErr
}

func (f *fakeFavorites) SyncLesson(_ context.Context, lessonID string, _ models.LessonEdit) error {
	f.log.add("PATCH /favorites/%s", lessonID)
	return f.syncErr
}

type fakeLikes struct {
	likes []models.Like
	err   error
}

func (f *fakeLikes) ListByEmail(context.Context, string) ([]models.Like, error) {
	return f.likes, f.err
}

type fakeContributors struct {
	contributors []models.Contributor
	err          error
}

func (f *fakeContributors) TopOfWeek(context.Context) ([]models.Contributor, error) {
	return f.contributors, f.err
}

type fakePayments struct {
	log *callLog
	url string
	err error
}

func (f *fakePayments) CreateCheckoutSession(_ context.Context, email string) (*models.CheckoutSession, error) {
	f.log.add("POST /payment-checkout-session %s", email)
	if f.err != nil {
		return nil, f.err
	}
	return &models.CheckoutSession{URL: f.url}, nil
}

type stubSnapshotRepo struct {
	mu      sync.Mutex
	store   map[string][]byte
	deleted []string
}

func (s *stubSnapshotRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubSnapshotRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubSnapshotRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if key == pattern || (strings.HasSuffix(pattern, "*") && strings.HasPrefix(key, prefix)) {
			delete(s.store, key)
		}
	}
	return nil
}

type recordingDashboard struct {
	admin int
	users []string
}

func (d *recordingDashboard) InvalidateAdmin(context.Context) { d.admin++ }

func (d *recordingDashboard) InvalidateUser(_ context.Context, email string) {
	d.users = append(d.users, email)
}

func memberSession(email string) *models.Session {
	return &models.Session{
		Identity: models.Identity{UID: "uid-" + email, Email: email, DisplayName: "Member"},
		UserID:   "id-" + email,
		Role:     models.RoleUser,
	}
}

func ts(value string) models.Timestamp {
	parsed, err := models.ParseTimestamp(value)
	if err != nil {
		panic(err)
	}
	return models.NewTimestamp(parsed)
}

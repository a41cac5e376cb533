package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/aggregate"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
	"github.com/noah-isme/wisdom-gateway/pkg/export"
)

const userListKey = "users"

type userAdminStore interface {
	userLister
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	Delete(ctx context.Context, id string) error
}

type directoryRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// UserAdminService backs the admin user directory.
type UserAdminService struct {
	viewSupport
	users     userAdminStore
	lessons   lessonLister
	registry  *reconcile.Registry
	runner    *reconcile.Runner
	dashboard dashboardInvalidator
	profiles  *ProfileStore
	csv       directoryRenderer
}

// UserAdminServiceParams groups constructor dependencies.
type UserAdminServiceParams struct {
	Users     userAdminStore
	Lessons   lessonLister
	Registry  *reconcile.Registry
	Runner    *reconcile.Runner
	Dashboard dashboardInvalidator
	Profiles  *ProfileStore
	CSV       directoryRenderer
	Metrics   *MetricsService
	Logger    *zap.Logger
	Config    ViewConfig
}

// NewUserAdminService constructs a UserAdminService.
func NewUserAdminService(params UserAdminServiceParams) *UserAdminService {
	csv := params.CSV
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &UserAdminService{
		viewSupport: newViewSupport(params.Logger, params.Metrics, params.Config),
		users:       params.Users,
		lessons:     params.Lessons,
		registry:    params.Registry,
		runner:      params.Runner,
		dashboard:   params.Dashboard,
		profiles:    params.Profiles,
		csv:         csv,
	}
}

// Directory lists users with their lesson counts, filtered by search.
func (s *UserAdminService) Directory(ctx context.Context, search string) (*dto.UserDirectoryView, error) {
	users, counts, err := s.load(ctx)
	if err != nil {
		s.degraded("user_directory", err)
		return &dto.UserDirectoryView{Users: []dto.DirectoryEntry{}, Search: search, Degraded: true}, nil
	}
	s.list().Replace(users)
	return s.directory(users, counts, search), nil
}

// ToggleRole flips a user between user and admin once the backend accepts it.
// The current role is re-read from the backend first, so the flip always
// starts from the stored role. Demotion asks for confirmation.
func (s *UserAdminService) ToggleRole(ctx context.Context, actor *models.Session, id string, confirmed bool) (dto.ActionResponse[models.User], error) {
	list, target, err := s.reload(ctx, id)
	if err != nil {
		return dto.ActionResponse[models.User]{}, err
	}
	if actor != nil && strings.EqualFold(actor.Email(), target.Email) {
		return dto.ActionResponse[models.User]{}, appErrors.Clone(appErrors.ErrForbidden, "you cannot change your own role")
	}
	next := target.Role.Normalize().Toggle()

	var confirm *reconcile.Confirmation
	if next == models.RoleUser {
		confirm = &reconcile.Confirmation{
			Title:      "Remove admin access?",
			Message:    fmt.Sprintf("%s will lose access to the admin dashboard.", displayName(target)),
			ActionText: "Demote",
			Danger:     true,
		}
	}
	res, err := s.runner.Run(ctx, reconcile.Mutation{
		Action:    "user.role",
		Policy:    reconcile.PolicyAfterSuccess,
		Confirm:   confirm,
		Confirmed: confirmed,
		Apply: func() func() {
			return list.Update(id, func(u models.User) models.User {
				u.Role = next
				return u
			})
		},
		Remote:  func(ctx context.Context) error { return s.users.UpdateRole(ctx, id, next) },
		Success: fmt.Sprintf("%s is now %s", displayName(target), next),
		Failure: "Could not change the role",
	})
	if res.Applied {
		s.afterMutation(ctx, target.Email)
	}
	return dto.NewActionResponse(res, list.Snapshot()), err
}

// DeleteUser removes a user record after confirmation.
func (s *UserAdminService) DeleteUser(ctx context.Context, actor *models.Session, id string, confirmed bool) (dto.ActionResponse[models.User], error) {
	list, target, err := s.lookup(ctx, id)
	if err != nil {
		return dto.ActionResponse[models.User]{}, err
	}
	if actor != nil && strings.EqualFold(actor.Email(), target.Email) {
		return dto.ActionResponse[models.User]{}, appErrors.Clone(appErrors.ErrForbidden, "you cannot delete your own account here")
	}
	res, err := s.runner.Run(ctx, reconcile.Mutation{
		Action: "user.delete",
		Policy: reconcile.PolicyAfterSuccess,
		Confirm: &reconcile.Confirmation{
			Title:      "Delete this user?",
			Message:    fmt.Sprintf("%s will be removed permanently.", displayName(target)),
			ActionText: "Delete",
			Danger:     true,
		},
		Confirmed: confirmed,
		Apply:     func() func() { return list.Remove(id) },
		Remote:    func(ctx context.Context) error { return s.users.Delete(ctx, id) },
		Success:   "User deleted",
		Failure:   "Could not delete the user",
	})
	if res.Applied {
		s.afterMutation(ctx, target.Email)
	}
	return dto.NewActionResponse(res, list.Snapshot()), err
}

// ExportCSV renders the filtered directory as CSV.
func (s *UserAdminService) ExportCSV(ctx context.Context, search string) ([]byte, error) {
	users, counts, err := s.load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "users are unavailable")
	}
	view := s.directory(users, counts, search)
	data := export.Dataset{Headers: []string{"name", "email", "role", "premium", "lessons", "joined"}}
	for _, entry := range view.Users {
		joined := ""
		if !entry.CreatedAt.IsZero() {
			joined = entry.CreatedAt.UTC().Format("2006-01-02")
		}
		data.Rows = append(data.Rows, map[string]string{
			"name":    entry.DisplayName,
			"email":   entry.Email,
			"role":    string(entry.Role.Normalize()),
			"premium": strconv.FormatBool(bool(entry.IsPremium)),
			"lessons": strconv.Itoa(entry.LessonCount),
			"joined":  joined,
		})
	}
	return s.csv.Render(data)
}

func (s *UserAdminService) load(ctx context.Context) ([]models.User, map[string]int, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var (
		users   []models.User
		lessons *models.LessonList
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.users.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		lessons, err = s.lessons.List(gctx, models.LessonFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	all, _ := lessonsOf(lessons)
	if users == nil {
		users = []models.User{}
	}
	return users, aggregate.CountLessonsByAuthor(all), nil
}

func (s *UserAdminService) directory(users []models.User, lessonCounts map[string]int, search string) *dto.UserDirectoryView {
	view := &dto.UserDirectoryView{Users: []dto.DirectoryEntry{}, Search: search}
	view.Counts.Total = len(users)
	for _, u := range users {
		if u.Role.Normalize() == models.RoleAdmin {
			view.Counts.Admins++
		}
		if u.IsPremium {
			view.Counts.Premium++
		}
	}
	for _, u := range aggregate.FilterUsers(users, search) {
		view.Users = append(view.Users, dto.DirectoryEntry{User: u, LessonCount: lessonCounts[strings.ToLower(u.Email)]})
	}
	return view
}

func (s *UserAdminService) list() *reconcile.List[models.User] {
	return reconcile.ListFor(s.registry, userListKey, userID)
}

func (s *UserAdminService) lookup(ctx context.Context, id string) (*reconcile.List[models.User], models.User, error) {
	list := s.list()
	target, ok := list.Find(id)
	if !ok {
		view, err := s.Directory(ctx, "")
		if err != nil {
			return nil, models.User{}, err
		}
		if view.Degraded {
			return nil, models.User{}, appErrors.Clone(appErrors.ErrUpstream, "users are unavailable")
		}
		if target, ok = list.Find(id); !ok {
			return nil, models.User{}, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
	}
	return list, target, nil
}

func (s *UserAdminService) reload(ctx context.Context, id string) (*reconcile.List[models.User], models.User, error) {
	bctx, cancel := s.bounded(ctx)
	defer cancel()
	users, err := s.users.List(bctx)
	if err != nil {
		return nil, models.User{}, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "users are unavailable")
	}
	list := s.list()
	list.Replace(users)
	target, ok := list.Find(id)
	if !ok {
		return nil, models.User{}, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return list, target, nil
}

func (s *UserAdminService) afterMutation(ctx context.Context, email string) {
	if s.dashboard != nil {
		s.dashboard.InvalidateAdmin(ctx)
	}
	if s.profiles != nil {
		s.profiles.Invalidate(email)
	}
}

func displayName(u models.User) string {
	if strings.TrimSpace(u.DisplayName) != "" {
		return u.DisplayName
	}
	return u.Email
}

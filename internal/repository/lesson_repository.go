package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
)

// LessonRepository reads and mutates the backend lessons collection.
type LessonRepository struct {
	remote
}

// NewLessonRepository constructs a lesson repository.
func NewLessonRepository(client *apiclient.Client) *LessonRepository {
	return &LessonRepository{remote{client: client}}
}

// List returns the {result,total} envelope for the filter.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) (*models.LessonList, error) {
	query := url.Values{}
	if filter.Email != "" {
		query.Set("email", filter.Email)
	}
	boolQuery(query, "isFeatured", filter.IsFeatured)
	boolQuery(query, "isPrivate", filter.IsPrivate)
	if filter.Sort != "" {
		query.Set("sort", filter.Sort)
	}

	var list models.LessonList
	if err := r.public().Get(ctx, "/lessons", query, &list); err != nil {
		return nil, err
	}
	if list.Result == nil {
		list.Result = []models.Lesson{}
	}
	return &list, nil
}

// UpdateStatus moves a lesson through moderation.
func (r *LessonRepository) UpdateStatus(ctx context.Context, id string, status models.LessonStatus) error {
	client, err := r.secure(ctx)
	if err != nil {
		return err
	}
	return client.Patch(ctx, "/lessons/"+escape(id)+"/status", models.StatusPatch{Status: status}, nil)
}

// UpdateFeatured toggles the featured flag.
func (r *LessonRepository) UpdateFeatured(ctx context.Context, id string, featured bool) error {
	client, err := r.secure(ctx)
	if err != nil {
		return err
	}
	return client.Patch(ctx, "/lessons/"+escape(id)+"/featured", models.FeaturedPatch{IsFeatured: models.Flag(featured)}, nil)
}

// Edit applies an owner's content edit.
func (r *LessonRepository) Edit(ctx context.Context, id string, edit models.LessonEdit) error {
	client, err := r.secure(ctx)
	if err != nil {
		return err
	}
	return client.Patch(ctx, "/lessons/"+escape(id)+"/edit", edit, nil)
}

// Delete removes a lesson.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	client, err := r.secure(ctx)
	if err != nil {
		return err
	}
	return client.Delete(ctx, "/lessons/"+escape(id), nil)
}

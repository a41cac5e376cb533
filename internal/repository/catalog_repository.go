package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
)

// ContributorRepository reads the weekly leaderboard.
type ContributorRepository struct {
	remote
}

// NewContributorRepository constructs a contributor repository.
func NewContributorRepository(client *apiclient.Client) *ContributorRepository {
	return &ContributorRepository{remote{client: client}}
}

// TopOfWeek returns the backend-computed leaderboard.
func (r *ContributorRepository) TopOfWeek(ctx context.Context) ([]models.Contributor, error) {
	var board models.ContributorBoard
	if err := r.public().Get(ctx, "/top-contributors-week", nil, &board); err != nil {
		return nil, err
	}
	if board.Contributors == nil {
		board.Contributors = []models.Contributor{}
	}
	return board.Contributors, nil
}

// LikeRepository reads the likes a viewer gave.
type LikeRepository struct {
	remote
}

// NewLikeRepository constructs a like repository.
func NewLikeRepository(client *apiclient.Client) *LikeRepository {
	return &LikeRepository{remote{client: client}}
}

// ListByEmail returns the viewer's likes.
func (r *LikeRepository) ListByEmail(ctx context.Context, email string) ([]models.Like, error) {
	var likes []models.Like
	if err := r.public().Get(ctx, "/likes", url.Values{"email": {email}}, &likes); err != nil {
		return nil, err
	}
	if likes == nil {
		likes = []models.Like{}
	}
	return likes, nil
}

// PaymentRepository starts checkout sessions on the backend.
type PaymentRepository struct {
	remote
}

// NewPaymentRepository constructs a payment repository.
func NewPaymentRepository(client *apiclient.Client) *PaymentRepository {
	return &PaymentRepository{remote{client: client}}
}

// CreateCheckoutSession asks the backend for a processor redirect URL.
func (r *PaymentRepository) CreateCheckoutSession(ctx context.Context, email string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	if err := r.public().Post(ctx, "/payment-checkout-session", map[string]string{"email": email}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
	"github.com/noah-isme/wisdom-gateway/pkg/events"
)

const (
	paymentGuardPrefix = "payment:applied:"
	localGuardSize     = 8192
)

type checkoutCreator interface {
	CreateCheckoutSession(ctx context.Context, email string) (*models.CheckoutSession, error)
}

type premiumWriter interface {
	SetPremium(ctx context.Context, id string) error
}

type guardBackend interface {
	Available() bool
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// OneShotGuard lets exactly one caller through per key within its TTL. Redis
// backs it when available; otherwise keys live in process memory.
type OneShotGuard struct {
	backend guardBackend
	ttl     time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	local *expirable.LRU[string, struct{}]
}

// NewOneShotGuard constructs a guard. backend may be nil.
func NewOneShotGuard(backend guardBackend, ttl time.Duration, logger *zap.Logger) *OneShotGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OneShotGuard{
		backend: backend,
		ttl:     ttl,
		logger:  logger,
		local:   expirable.NewLRU[string, struct{}](localGuardSize, nil, ttl),
	}
}

// Acquire reports whether the caller is the first to claim key.
func (g *OneShotGuard) Acquire(ctx context.Context, key string) bool {
	if g.backend != nil && g.backend.Available() {
		ok, err := g.backend.Acquire(ctx, key, g.ttl)
		if err == nil {
			return ok
		}
		g.logger.Warn("guard backend unavailable, using local guard", zap.String("key", key), zap.Error(err))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.local.Get(key); ok {
		return false
	}
	g.local.Add(key, struct{}{})
	return true
}

// Release gives key back so a later attempt can claim it.
func (g *OneShotGuard) Release(ctx context.Context, key string) {
	if g.backend != nil && g.backend.Available() {
		if err := g.backend.Release(ctx, key); err != nil {
			g.logger.Warn("guard release failed", zap.String("key", key), zap.Error(err))
		}
	}
	g.local.Remove(key)
}

// PaymentService runs the premium checkout and its confirmation.
type PaymentService struct {
	payments checkoutCreator
	users    premiumWriter
	profiles *ProfileStore
	guard    *OneShotGuard
	bus      events.Bus
	runner   *reconcile.Runner
	logger   *zap.Logger
}

// PaymentServiceParams groups constructor dependencies.
type PaymentServiceParams struct {
	Payments checkoutCreator
	Users    premiumWriter
	Profiles *ProfileStore
	Guard    *OneShotGuard
	Bus      events.Bus
	Runner   *reconcile.Runner
	Logger   *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(params PaymentServiceParams) *PaymentService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	guard := params.Guard
	if guard == nil {
		guard = NewOneShotGuard(nil, 0, logger)
	}
	runner := params.Runner
	if runner == nil {
		runner = reconcile.NewRunner(logger, nil)
	}
	return &PaymentService{
		payments: params.Payments,
		users:    params.Users,
		profiles: params.Profiles,
		guard:    guard,
		bus:      params.Bus,
		runner:   runner,
		logger:   logger,
	}
}

// Checkout opens a checkout session and returns the processor URL.
func (s *PaymentService) Checkout(ctx context.Context, session *models.Session) (*dto.CheckoutResponse, error) {
	if s.isPremium(ctx, session) {
		return nil, appErrors.Clone(appErrors.ErrAlreadyApplied, "you already have premium access")
	}
	checkout, err := s.payments.CreateCheckoutSession(ctx, session.Email())
	if err != nil {
		s.logger.Error("checkout session failed", zap.String("email", session.Email()), zap.Error(err))
		return nil, reconcile.Upstream(err, "could not start checkout")
	}
	if checkout == nil || strings.TrimSpace(checkout.URL) == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "payment processor returned no checkout url")
	}
	return &dto.CheckoutResponse{URL: checkout.URL}, nil
}

// ConfirmSuccess upgrades the caller to premium. It issues the PATCH at most
// once per checkout session id.
func (s *PaymentService) ConfirmSuccess(ctx context.Context, session *models.Session, sessionID string) (*dto.PaymentSuccessResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session_id is required")
	}

	key := paymentGuardPrefix + sessionID
	if !s.guard.Acquire(ctx, key) {
		s.logger.Info("payment already applied", zap.String("session_id", sessionID), zap.String("email", session.Email()))
		return &dto.PaymentSuccessResponse{
			AlreadyApplied: true,
			Notice:         reconcile.Notice{Level: reconcile.LevelSuccess, Message: "Your premium access is already active"},
		}, nil
	}

	userID, err := s.userID(ctx, session)
	if err != nil {
		s.guard.Release(ctx, key)
		return nil, err
	}

	res, err := s.runner.Run(ctx, reconcile.Mutation{
		Action:  "payment.confirm",
		Policy:  reconcile.PolicyAfterSuccess,
		Remote:  func(ctx context.Context) error { return s.users.SetPremium(ctx, userID) },
		Success: "Payment successful. Premium access unlocked",
		Failure: "Payment received but your account could not be upgraded yet",
	})
	if err != nil {
		s.guard.Release(ctx, key)
		s.logger.Error("premium upgrade failed",
			zap.String("session_id", sessionID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return &dto.PaymentSuccessResponse{Notice: res.Notice}, err
	}

	out := &dto.PaymentSuccessResponse{Applied: true, Notice: res.Notice}
	if s.profiles != nil {
		user, refreshErr := s.profiles.Refresh(ctx, session.Email())
		if refreshErr != nil {
			s.logger.Warn("profile refresh after payment failed", zap.String("email", session.Email()), zap.Error(refreshErr))
		}
		out.User = user
	}
	if s.bus != nil {
		evt := events.Event{Topic: events.TopicPremiumUpdated, Subject: session.Email()}
		if pubErr := s.bus.Publish(ctx, evt); pubErr != nil {
			s.logger.Warn("premium-updated publish failed", zap.String("email", session.Email()), zap.Error(pubErr))
		}
	}
	return out, nil
}

func (s *PaymentService) userID(ctx context.Context, session *models.Session) (string, error) {
	if session.UserID != "" {
		return session.UserID, nil
	}
	if s.profiles != nil {
		user, err := s.profiles.Get(ctx, session.Email())
		if err != nil {
			return "", reconcile.Upstream(err, "could not load your account")
		}
		if user != nil && user.ID != "" {
			return user.ID, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrNotFound, "no account found for this session")
}

func (s *PaymentService) isPremium(ctx context.Context, session *models.Session) bool {
	if session.IsPremium {
		return true
	}
	if s.profiles == nil {
		return false
	}
	user, err := s.profiles.Get(ctx, session.Email())
	return err == nil && user != nil && bool(user.IsPremium)
}

package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/events"
)

type profileLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// ProfileChange is delivered to ProfileStore subscribers. An empty Email means
// every entry was dropped.
type ProfileChange struct {
	Email string
	User  *models.User
}

const profileCacheSize = 4096

// ProfileStore is the single process-wide source of backend user records
// keyed by email. Identity resolution, premium checks and dashboard caches all
// read through it, and it notifies subscribers when a record is refreshed.
type ProfileStore struct {
	users   profileLookup
	logger  *zap.Logger
	entries *expirable.LRU[string, *models.User]

	mu sync.RWMutex
	// generation advances on every invalidation; loads started before it
	// moved do not write their result back.
	generation uint64
	subs       map[uint64]func(ProfileChange)
	nextSub    uint64

	group singleflight.Group
}

// NewProfileStore constructs a ProfileStore.
func NewProfileStore(users profileLookup, ttl time.Duration, logger *zap.Logger) *ProfileStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileStore{
		users:   users,
		logger:  logger,
		entries: expirable.NewLRU[string, *models.User](profileCacheSize, nil, ttl),
		subs:    make(map[uint64]func(ProfileChange)),
	}
}

// Get returns the record for email, nil when the backend has none.
func (s *ProfileStore) Get(ctx context.Context, email string) (*models.User, error) {
	key := profileKey(email)
	if key == "" {
		return nil, nil
	}
	if user, ok := s.entries.Get(key); ok {
		return cloneUser(user), nil
	}
	user, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return cloneUser(user), nil
}

// Refresh re-fetches the record for email and notifies subscribers. It never
// shares a lookup that started before the call.
func (s *ProfileStore) Refresh(ctx context.Context, email string) (*models.User, error) {
	key := profileKey(email)
	if key == "" {
		return nil, nil
	}
	s.Invalidate(key)
	s.group.Forget(key)
	user, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	s.notify(ProfileChange{Email: key, User: cloneUser(user)})
	return cloneUser(user), nil
}

// Invalidate drops the entry for email, or every entry when email is empty.
func (s *ProfileStore) Invalidate(email string) {
	key := profileKey(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if key == "" {
		s.entries.Purge()
		return
	}
	s.entries.Remove(key)
}

// Subscribe registers fn for change notifications.
func (s *ProfileStore) Subscribe(fn func(ProfileChange)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// HandlePremiumUpdated is the event bus handler for events.TopicPremiumUpdated.
func (s *ProfileStore) HandlePremiumUpdated(ctx context.Context, evt events.Event) error {
	if evt.Subject == "" {
		s.Invalidate("")
		s.notify(ProfileChange{})
		return nil
	}
	_, err := s.Refresh(ctx, evt.Subject)
	return err
}

func (s *ProfileStore) load(ctx context.Context, key string) (*models.User, error) {
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		s.mu.RLock()
		started := s.generation
		s.mu.RUnlock()
		user, err := s.users.FindByEmail(ctx, key)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.generation == started {
			s.entries.Add(key, user)
		}
		s.mu.Unlock()
		return user, nil
	})
	if err != nil {
		s.logger.Warn("profile lookup failed", zap.String("email", key), zap.Error(err))
		return nil, err
	}
	user, _ := v.(*models.User)
	return user, nil
}

func (s *ProfileStore) notify(change ProfileChange) {
	s.mu.RLock()
	subs := make([]func(ProfileChange), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(change)
	}
}

func profileKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

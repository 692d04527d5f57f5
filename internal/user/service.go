package user

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"user_api/internal/auth"
	"user_api/internal/cache"
	"user_api/internal/observability"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	publishTimeout = 2 * time.Second

	// reinvalidateDelay bounds how long a read that raced a write can keep
	// the old row in the cache.
	reinvalidateDelay = time.Second
)

type UserServiceInterface interface {
	ListUsers(ctx context.Context) ([]*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, id string) error
	SignIn(ctx context.Context, email, password string) (*SignInResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
}

// UserCacheStore is satisfied by *cache.UserCache.
type UserCacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher is satisfied by *queue.Publisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, v interface{}) error
}

type UserService struct {
	repo      UserRepositoryInterface
	cache     UserCacheStore
	publisher EventPublisher
	tokens    *auth.TokenManager
	metrics   *observability.Metrics

	reinvalidateDelay time.Duration
}

// NewUserService wires the service. cache and publisher may be nil, which
// disables read-through caching and event publishing respectively.
func NewUserService(
	repo UserRepositoryInterface,
	cache UserCacheStore,
	publisher EventPublisher,
	tokens *auth.TokenManager,
	metrics *observability.Metrics,
) UserServiceInterface {
	return &UserService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		tokens:    tokens,
		metrics:   metrics,

		reinvalidateDelay: reinvalidateDelay,
	}
}

func (s *UserService) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	if s.cachedInto(ctx, cache.AllUsersKey, "users", &users) {
		return users, nil
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		s.count("list", err)
		return nil, err
	}

	s.store(ctx, cache.AllUsersKey, users)
	s.count("list", nil)
	return users, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*User, error) {
	id, err := canonicalID(id)
	if err != nil {
		s.count("get", err)
		return nil, err
	}

	var cached User
	if s.cachedInto(ctx, cache.UserKey(id), "user", &cached) {
		return &cached, nil
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.count("get", err)
		return nil, err
	}

	s.store(ctx, cache.UserKey(id), user)
	s.count("get", nil)
	return user, nil
}

func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	hashedPassword, err := auth.GeneratePasswordHash(req.Password)
	if err != nil {
		s.count("create", err)
		return nil, errors.New("failed to hash password")
	}

	user := &User{
		ID:       uuid.NewString(),
		Username: strings.TrimSpace(req.Username),
		Email:    normalizeEmail(req.Email),
		Password: hashedPassword,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.count("create", err)
		return nil, err
	}

	s.invalidate(ctx, cache.AllUsersKey)
	s.publish(ctx, EventCreated, user.ID)
	s.count("create", nil)
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	id, err := canonicalID(id)
	if err != nil {
		s.count("update", err)
		return nil, err
	}

	// hash before the row lock is taken
	var hashedPassword string
	if req.Password != "" {
		hashedPassword, err = auth.GeneratePasswordHash(req.Password)
		if err != nil {
			s.count("update", err)
			return nil, errors.New("failed to hash password")
		}
	}

	username := strings.TrimSpace(req.Username)
	user, err := s.repo.Update(ctx, id, func(u *User) {
		if username != "" {
			u.Username = username
		}
		if req.Email != "" {
			u.Email = normalizeEmail(req.Email)
		}
		if hashedPassword != "" {
			u.Password = hashedPassword
		}
	})
	if err != nil {
		s.count("update", err)
		return nil, err
	}

	s.invalidate(ctx, cache.UserKey(id), cache.AllUsersKey)
	s.publish(ctx, EventUpdated, id)
	s.count("update", nil)
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	id, err := canonicalID(id)
	if err != nil {
		s.count("delete", err)
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.count("delete", err)
		return err
	}

	s.invalidate(ctx, cache.UserKey(id), cache.AllUsersKey)
	s.publish(ctx, EventDeleted, id)
	s.count("delete", nil)
	return nil
}

// SignIn checks email and password and issues a token pair. Unknown email
// and wrong password both yield ErrInvalidCredentials.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*SignInResponse, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.signInOutcome("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		s.signInOutcome("error")
		return nil, err
	}

	if err := auth.ComparePasswordHash(user.Password, password); err != nil {
		s.signInOutcome("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.tokens.GenerateTokenPair(user.ID)
	if err != nil {
		s.signInOutcome("error")
		return nil, err
	}

	s.publish(ctx, EventSignedIn, user.ID)
	s.signInOutcome("success")
	return &SignInResponse{User: user, TokenPair: *tokens}, nil
}

func (s *UserService) RefreshToken(_ context.Context, refreshToken string) (*auth.TokenPair, error) {
	return s.tokens.RefreshTokenPair(refreshToken)
}

// cachedInto reports whether key was found in the cache and decoded into dst.
func (s *UserService) cachedInto(ctx context.Context, key, keyType string, dst interface{}) bool {
	if s.cache == nil {
		return false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to read cache")
	}
	if err == nil && data != nil && json.Unmarshal(data, dst) == nil {
		if s.metrics != nil {
			s.metrics.CacheHitsTotal.WithLabelValues(keyType).Inc()
		}
		return true
	}

	if s.metrics != nil {
		s.metrics.CacheMissesTotal.WithLabelValues(keyType).Inc()
	}
	return false
}

func (s *UserService) store(ctx context.Context, key string, v interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to set cache")
	}
}

// invalidate deletes keys now and once more after reinvalidateDelay, so a
// concurrent GetUser that read the old row before the write cannot leave it
// cached for the full TTL.
func (s *UserService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	s.deleteKeys(ctx, keys)

	ctx = context.WithoutCancel(ctx)
	time.AfterFunc(s.reinvalidateDelay, func() {
		s.deleteKeys(ctx, keys)
	})
}

func (s *UserService) deleteKeys(ctx context.Context, keys []string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logrus.WithError(err).WithField("keys", keys).Warn("Failed to invalidate cache")
	}
}

// publish is best effort: the write has already committed.
func (s *UserService) publish(ctx context.Context, eventType EventType, userID string) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := UserEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishJSON(ctx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event_type": eventType,
			"user_id":    userID,
		}).Warn("Failed to publish user event")
	}
}

func (s *UserService) count(operation string, err error) {
	if s.metrics == nil {
		return
	}

	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrUserNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrEmailTaken):
		outcome = "conflict"
	default:
		outcome = "error"
	}
	s.metrics.UserOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func (s *UserService) signInOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.SignInAttemptsTotal.WithLabelValues(outcome).Inc()
	}
}

// canonicalID maps every spelling uuid.Parse accepts (upper case, braces,
// urn:uuid:) to the lower-case hyphenated form used for cache keys.
func canonicalID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrUserNotFound
	}
	return parsed.String(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

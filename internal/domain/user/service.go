package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/event"
	"membership-app-go/pkg/phone"
)

const (
	DefaultLimit = 25
	MaxLimit     = 200

	modelUser = "User"
)

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

func WithPhoneRegion(region string) Option {
	return func(s *Service) {
		s.phoneRegion = region
	}
}

type Service struct {
	repo        Repository
	now         func() time.Time
	bcryptCost  int
	phoneRegion string
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		now:         time.Now,
		bcryptCost:  bcrypt.DefaultCost,
		phoneRegion: phone.DefaultRegion,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, int64, error) {
	filter.UserType = strings.TrimSpace(strings.ToLower(filter.UserType))
	if filter.UserType != "" && !IsValidType(filter.UserType) {
		return nil, 0, ErrInvalidUserType
	}
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}

	items, total, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []User{}
	}
	return items, total, nil
}

// Register creates an account. Duplicate usernames, emails and phone numbers
// surface as sentinel.ErrUniquenessViolation from the repository.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	user, err := s.newUser(input)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	actorID := input.ActorID
	if actorID == "" {
		actorID = user.ID
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return event.Dispatch(ctx, tx, s.now(), event.Audit{
			ActorID:     actorID,
			Action:      audit.ActionCreate,
			ModelName:   modelUser,
			ObjectID:    user.ID,
			Description: fmt.Sprintf("Registered %s account %s", user.UserType, user.Username),
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) newUser(input RegisterInput) (*User, error) {
	user := &User{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(input.Username),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		UserType:  strings.TrimSpace(strings.ToLower(input.UserType)),
		IsActive:  true,
	}
	if user.UserType == "" {
		user.UserType = TypeMember
	}

	if user.Username == "" || user.Email == "" || input.Password == "" {
		return nil, ErrMissingRequiredFields
	}
	if !IsValidType(user.UserType) {
		return nil, ErrInvalidUserType
	}
	if err := validation.Validate(user.Email, is.Email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	if raw := strings.TrimSpace(input.PhoneNumber); raw != "" {
		normalized, err := phone.NormalizeInRegion(raw, s.phoneRegion)
		if err != nil {
			return nil, ErrInvalidPhone
		}
		user.PhoneNumber = &normalized
	}
	return user, nil
}

// Authenticate checks the password and records the attempt in the audit log
// whether or not it succeeds.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.recordFailedLogin(ctx, user, username)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.recordFailedLogin(ctx, user, username)
		return nil, ErrInactiveUser
	}

	now := s.now().UTC()
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.TouchLastLogin(ctx, user.ID, now); err != nil {
			return err
		}
		return event.Dispatch(ctx, tx, now, event.Audit{
			ActorID:     user.ID,
			Action:      audit.ActionLogin,
			ModelName:   modelUser,
			ObjectID:    user.ID,
			Description: fmt.Sprintf("User %s logged in", user.Username),
		})
	})
	if err != nil {
		return nil, err
	}
	user.LastLoginAt = &now
	return user, nil
}

// recordFailedLogin is best effort. A failure to write the audit row must not
// change the answer given to the caller.
func (s *Service) recordFailedLogin(ctx context.Context, user *User, username string) {
	record := event.Audit{
		Action:      audit.ActionLogin,
		ModelName:   modelUser,
		ObjectID:    "failed",
		Description: fmt.Sprintf("Failed login attempt for %s", username),
		Metadata:    map[string]any{"username": username},
	}
	if user != nil {
		record.ActorID = user.ID
	}
	_ = s.repo.Transaction(ctx, func(tx Repository) error {
		return event.Dispatch(ctx, tx, s.now(), record)
	})
}

func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		return event.Dispatch(ctx, tx, s.now(), event.Audit{
			ActorID:     user.ID,
			Action:      audit.ActionLogout,
			ModelName:   modelUser,
			ObjectID:    user.ID,
			Description: fmt.Sprintf("User %s logged out", user.Username),
		})
	})
}

func (s *Service) VerifyUsers(ctx context.Context, ids []string, actorID string) (int64, error) {
	return s.bulkUpdate(ctx, ids, actorID, "Verified", func(tx Repository) (int64, error) {
		return tx.SetVerified(ctx, ids, true)
	})
}

func (s *Service) DeactivateUsers(ctx context.Context, ids []string, actorID string) (int64, error) {
	return s.bulkUpdate(ctx, ids, actorID, "Deactivated", func(tx Repository) (int64, error) {
		return tx.SetActive(ctx, ids, false)
	})
}

func (s *Service) bulkUpdate(ctx context.Context, ids []string, actorID, verb string, update func(Repository) (int64, error)) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var affected int64
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		var err error
		affected, err = update(tx)
		if err != nil || affected == 0 {
			return err
		}
		objectID := "bulk"
		if len(ids) == 1 {
			objectID = ids[0]
		}
		return event.Dispatch(ctx, tx, s.now(), event.Audit{
			ActorID:     actorID,
			Action:      audit.ActionUpdate,
			ModelName:   modelUser,
			ObjectID:    objectID,
			Description: fmt.Sprintf("%s %d users", verb, affected),
			Metadata:    map[string]any{"user_ids": ids},
		})
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

package biz

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/safesocial/safesocial-backend/internal/pkg/errors"
)

// ErrNotFound is returned by repos when a record does not exist.
var ErrNotFound = errors.New("record not found")

// User represents the domain model. Accounts are keyed by wallet
// address; the display name is chosen during onboarding and must be
// unique across the app.
type User struct {
	ID            string
	WalletAddress string
	Name          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserRepo defines the interface for user data operations
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByWallet(ctx context.Context, walletAddress string) (*User, error)
	GetByName(ctx context.Context, name string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
	UpdateName(ctx context.Context, id, name string) error

	AddFriend(ctx context.Context, userID, friendID string) error
	RemoveFriend(ctx context.Context, userID, friendID string) error
	ListFriends(ctx context.Context, userID string) ([]*User, error)
}

// UserUseCase contains business logic for user operations
type UserUseCase struct {
	repo UserRepo
}

func NewUserUseCase(repo UserRepo) *UserUseCase {
	return &UserUseCase{repo: repo}
}

func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*User, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrUserNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return user, nil
}

func (uc *UserUseCase) GetUserByWallet(ctx context.Context, walletAddress string) (*User, error) {
	user, err := uc.repo.GetByWallet(ctx, strings.ToLower(walletAddress))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrUserNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return user, nil
}

func (uc *UserUseCase) ListUsers(ctx context.Context, page, pageSize int) ([]*User, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return uc.repo.List(ctx, offset, pageSize)
}

// CheckNameExists reports whether a display name is already taken.
// The frontend polls this during onboarding.
func (uc *UserUseCase) CheckNameExists(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, apperrors.New(apperrors.ErrValidationFailed, "name is required")
	}
	_, err := uc.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return true, nil
}

// SetName assigns the display name during onboarding. Names are
// first-come first-served.
func (uc *UserUseCase) SetName(ctx context.Context, userID, name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.New(apperrors.ErrValidationFailed, "name is required")
	}

	existing, err := uc.repo.GetByName(ctx, name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if existing != nil && existing.ID != userID {
		return nil, apperrors.New(apperrors.ErrUserNameTaken)
	}

	if err := uc.repo.UpdateName(ctx, userID, name); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrUserNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return uc.GetUser(ctx, userID)
}

// AddFriend records a friendship edge from userID to the named user.
func (uc *UserUseCase) AddFriend(ctx context.Context, userID, friendName string) (*User, error) {
	friend, err := uc.repo.GetByName(ctx, strings.TrimSpace(friendName))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrUserNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if friend.ID == userID {
		return nil, apperrors.New(apperrors.ErrValidationFailed, "cannot add yourself as a friend")
	}

	if err := uc.repo.AddFriend(ctx, userID, friend.ID); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return friend, nil
}

func (uc *UserUseCase) RemoveFriend(ctx context.Context, userID, friendID string) error {
	if err := uc.repo.RemoveFriend(ctx, userID, friendID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return nil
}

func (uc *UserUseCase) ListFriends(ctx context.Context, userID string) ([]*User, error) {
	friends, err := uc.repo.ListFriends(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return friends, nil
}

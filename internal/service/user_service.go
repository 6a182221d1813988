package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/shop-backoffice/internal/model"
	"github.com/iliyamo/shop-backoffice/internal/repository"
	"github.com/iliyamo/shop-backoffice/internal/utils"
)

// UserStore is the persistence the user directory needs. *repository.UserRepo
// implements it.
type UserStore interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u model.User) error
	Delete(ctx context.Context, id uint64) error
}

// SessionRevoker ends a user's refresh sessions. *repository.TokenRepo
// implements it.
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// UserService is the user directory.
type UserService struct {
	users      UserStore
	sessions   SessionRevoker
	bcryptCost int
	now        func() time.Time
}

func NewUserService(users UserStore, sessions SessionRevoker, bcryptCost int) *UserService {
	return &UserService{users: users, sessions: sessions, bcryptCost: bcryptCost, now: time.Now}
}

// NewUserInput is the payload of registration and admin creation.
type NewUserInput struct {
	Username string
	Email    *string
	Password string
}

// UpdateUserInput is the payload of an admin update. An empty Password
// keeps the current hash; an empty Role keeps the current role.
type UpdateUserInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

func normalizeEmail(e *string) *string {
	if e == nil {
		return nil
	}
	v := strings.TrimSpace(*e)
	if v == "" {
		return nil
	}
	return &v
}

// Register creates a Client account.
func (s *UserService) Register(ctx context.Context, in NewUserInput) (model.User, error) {
	return s.create(ctx, in, model.RoleClient)
}

// CreateAdmin creates an Admin account on behalf of an admin caller.
func (s *UserService) CreateAdmin(ctx context.Context, caller Caller, in NewUserInput) (model.User, error) {
	if err := requireAdmin(caller); err != nil {
		return model.User{}, err
	}
	return s.create(ctx, in, model.RoleAdmin)
}

func (s *UserService) create(ctx context.Context, in NewUserInput, role string) (model.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return model.User{}, invalid("username is required")
	}
	if in.Password == "" {
		return model.User{}, invalid("password is required")
	}
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return model.User{}, err
	}
	if exists {
		return model.User{}, repository.ErrUsernameTaken
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return model.User{}, invalid("password must be at most 72 bytes")
		}
		return model.User{}, err
	}
	u := model.User{
		Username:     username,
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Authenticate checks a username/password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns one user. Users may read themselves; admins anyone.
func (s *UserService) Get(ctx context.Context, caller Caller, id uint64) (model.User, error) {
	if err := requireUser(caller); err != nil {
		return model.User{}, err
	}
	if caller.UserID != id && !caller.IsAdmin() {
		return model.User{}, repository.ErrForbidden
	}
	return s.users.GetByID(ctx, id)
}

// List returns every user (admin only).
func (s *UserService) List(ctx context.Context, caller Caller) ([]model.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// Update rewrites a user's username and email, and the password hash only
// when a new password is given. A username held by another user is a
// conflict; keeping one's own username (in any casing) is not.
func (s *UserService) Update(ctx context.Context, caller Caller, id uint64, in UpdateUserInput) (model.User, error) {
	if err := requireAdmin(caller); err != nil {
		return model.User{}, err
	}
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" {
		return model.User{}, invalid("username and email are required")
	}
	role := in.Role
	if role != "" && role != model.RoleAdmin && role != model.RoleClient {
		return model.User{}, invalid("role must be %s or %s", model.RoleAdmin, model.RoleClient)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	holder, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil && holder.ID != id:
		return model.User{}, repository.ErrUsernameTaken
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return model.User{}, err
	}

	u.Username = username
	u.Email = &email
	if role != "" {
		u.Role = role
	}
	passwordChanged := in.Password != ""
	if passwordChanged {
		hash, err := utils.HashPassword(in.Password, s.bcryptCost)
		if err != nil {
			if errors.Is(err, utils.ErrPasswordTooLong) {
				return model.User{}, invalid("password must be at most 72 bytes")
			}
			return model.User{}, err
		}
		u.PasswordHash = hash
	}
	if err := s.users.Update(ctx, u); err != nil {
		return model.User{}, err
	}
	if passwordChanged && s.sessions != nil {
		if err := s.sessions.RevokeAllForUser(ctx, id); err != nil {
			return model.User{}, err
		}
	}
	return u, nil
}

// Delete removes a user (admin only). Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, caller Caller, id uint64) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if caller.UserID == id {
		return invalid("cannot delete your own account")
	}
	return s.users.Delete(ctx, id)
}

// EnsureAdmin creates an Admin with the given credentials unless the
// username is already taken. It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return false, nil
	}
	_, err := s.create(ctx, NewUserInput{Username: username, Password: password}, model.RoleAdmin)
	if errors.Is(err, repository.ErrUsernameTaken) {
		return false, nil
	}
	return err == nil, err
}

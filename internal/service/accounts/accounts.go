// Package accounts holds the user account rules shared by the API and the HTML views
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/store"
	"github.com/rs/zerolog/log"
)

var (
	// ErrForbidden is returned when the actor may not perform a change
	ErrForbidden = errors.New("the user doesn't have enough privileges")

	// ErrInvalidInput is returned for missing or malformed fields
	ErrInvalidInput = errors.New("invalid input")
)

// UserStore is the persistence accounts need
// *store.Store satisfies it
type UserStore interface {
	CreateUser(ctx context.Context, u store.User) (*store.User, error)
	GetUser(ctx context.Context, id string) (*store.User, error)
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
	UpdateUser(ctx context.Context, id string, upd store.UserUpdate) (*store.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// NewUser is the input for account creation
type NewUser struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	FullName    *string `json:"full_name,omitempty"`
	Password    string  `json:"password"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsSuperuser bool    `json:"is_superuser"`
}

// Patch is a partial account update
type Patch struct {
	Username    *string `json:"username,omitempty"`
	Email       *string `json:"email,omitempty"`
	FullName    *string `json:"full_name,omitempty"`
	Password    *string `json:"password,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
}

// Service applies account rules on top of a UserStore
type Service struct {
	Users UserStore
}

// NewService creates a Service
func NewService(users UserStore) *Service {
	return &Service{Users: users}
}

// Authenticate checks a username/password pair
// Unknown users and wrong passwords both yield auth.ErrBadCredentials
func (s *Service) Authenticate(ctx context.Context, username, password string) (*store.User, error) {
	u, err := s.Users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, auth.ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.HashedPassword, password); err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, auth.ErrInactiveUser
	}
	return u, nil
}

// Register creates an account with a hashed password
func (s *Service) Register(ctx context.Context, in NewUser) (*store.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	return s.Users.CreateUser(ctx, store.User{
		Username:       in.Username,
		Email:          in.Email,
		FullName:       in.FullName,
		HashedPassword: hash,
		IsActive:       active,
		IsSuperuser:    in.IsSuperuser,
	})
}

// Update applies a patch to the account id on behalf of actor
// Only superusers may edit other accounts or change activation and privilege flags.
func (s *Service) Update(ctx context.Context, actor *store.User, id string, p Patch) (*store.User, error) {
	if !auth.CanAccess(actor, id) {
		return nil, ErrForbidden
	}
	if (p.IsActive != nil || p.IsSuperuser != nil) && !auth.IsSuperuser(actor) {
		return nil, ErrForbidden
	}

	upd := store.UserUpdate{
		Username:    trimmed(p.Username),
		Email:       trimmed(p.Email),
		FullName:    p.FullName,
		IsActive:    p.IsActive,
		IsSuperuser: p.IsSuperuser,
	}
	if p.Password != nil && *p.Password != "" {
		hash, err := auth.HashPassword(*p.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		upd.HashedPassword = &hash
	}
	return s.Users.UpdateUser(ctx, id, upd)
}

// Get loads the account id on behalf of actor
func (s *Service) Get(ctx context.Context, actor *store.User, id string) (*store.User, error) {
	if !auth.CanAccess(actor, id) {
		return nil, ErrForbidden
	}
	return s.Users.GetUser(ctx, id)
}

// Delete removes the account id on behalf of actor
// Superusers cannot delete themselves.
func (s *Service) Delete(ctx context.Context, actor *store.User, id string) error {
	if !auth.CanAccess(actor, id) {
		return ErrForbidden
	}
	if actor.IsSuperuser && actor.ID == id {
		return ErrForbidden
	}
	return s.Users.DeleteUser(ctx, id)
}

// EnsureSuperuser creates the seed superuser when it does not exist yet
func (s *Service) EnsureSuperuser(ctx context.Context, username, email, password string) (*store.User, error) {
	u, err := s.Users.GetUserByUsername(ctx, username)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if email == "" {
		email = username + "@localhost"
	}
	u, err = s.Register(ctx, NewUser{
		Username:    username,
		Email:       email,
		Password:    password,
		IsSuperuser: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create superuser: %w", err)
	}
	log.Ctx(ctx).Info().Str("username", username).Msg("created first superuser")
	return u, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

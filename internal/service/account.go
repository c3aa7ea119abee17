package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/stayhub/internal/model"
	"github.com/iliyamo/stayhub/internal/repository"
	"github.com/iliyamo/stayhub/internal/utils"
)

// UserStore is the subset of repository.UserRepo the account flow needs.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenIssuer signs session claims.
type TokenIssuer interface {
	Issue(claims utils.SessionClaims) (string, error)
}

// AccountService answers register, login and profile requests.
type AccountService struct {
	users      UserStore
	tokens     TokenIssuer
	bcryptCost int
}

func NewAccountService(users UserStore, tokens TokenIssuer, bcryptCost int) *AccountService {
	if users == nil || tokens == nil {
		panic("nil dependency passed to NewAccountService")
	}
	return &AccountService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// Register hashes password and stores a new user.  A taken email yields
// repository.ErrEmailExists; missing fields yield *model.ValidationError.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = repository.NormalizeEmail(email)

	ve := &model.ValidationError{}
	if name == "" {
		ve.Problems = append(ve.Problems, "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		ve.Problems = append(ve.Problems, "a valid email is required")
	}
	if password == "" {
		ve.Problems = append(ve.Problems, "password is required")
	}
	if len(ve.Problems) > 0 {
		return nil, ve
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return nil, &model.ValidationError{Problems: []string{"password must be at most 72 bytes"}}
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.users.Create(ctx, name, email, hash)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load new user: %w", err)
	}
	return &u, nil
}

// Login checks the password and issues a session token.  An unknown email
// yields repository.ErrUserNotFound, a wrong password ErrInvalidCredentials;
// neither returns a token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(utils.SessionClaims{UserID: strconv.FormatUint(u.ID, 10), Email: u.Email})
	if err != nil {
		return nil, "", fmt.Errorf("issue session token: %w", err)
	}
	return &u, token, nil
}

// Profile loads the user behind an authenticated identity.  A token whose
// user no longer exists is treated as unauthenticated.
func (s *AccountService) Profile(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	id, err := strconv.ParseUint(userID, 10, 64)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

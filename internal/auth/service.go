package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Actor is an authenticated, role-bearing identity making a request. Actors
// are constructed only by Service.ResolveActor.
type Actor struct {
	ID     string
	Email  string
	Role   Role
	Active bool
}

// Account is the identity store's view of a user. The password hash never
// leaves this package.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
}

// ErrAccountNotFound is returned by Directory implementations when the
// subject does not exist.
var ErrAccountNotFound = errors.New("auth: account not found")

// Directory looks up accounts in the identity store.
type Directory interface {
	AccountByID(ctx context.Context, id string) (Account, error)
	AccountByEmail(ctx context.Context, email string) (Account, error)
}

// TokenPair carries freshly issued access and refresh tokens.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Service is the single choke point for authentication: it exchanges
// credentials or refresh tokens for token pairs and resolves bearer tokens
// into actors. Every authenticated request passes through ResolveActor.
type Service struct {
	dir    Directory
	tokens *TokenService
	hasher PasswordHasher
}

// NewService constructs the authentication service.
func NewService(dir Directory, tokens *TokenService, hasher PasswordHasher) (*Service, error) {
	if dir == nil {
		return nil, errors.New("auth: directory is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	return &Service{dir: dir, tokens: tokens, hasher: hasher}, nil
}

// Authenticate verifies email/password credentials and issues a token pair.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (TokenPair, Actor, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenPair{}, Actor{}, ErrInvalidCredentials
	}
	account, err := s.dir.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return TokenPair{}, Actor{}, ErrInvalidCredentials
		}
		return TokenPair{}, Actor{}, err
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		return TokenPair{}, Actor{}, ErrInvalidCredentials
	}
	if !account.Active {
		return TokenPair{}, Actor{}, ErrInactive
	}
	pair, err := s.mintPair(account)
	if err != nil {
		return TokenPair{}, Actor{}, err
	}
	return pair, actorFromAccount(account), nil
}

// Refresh exchanges a valid refresh token for a fresh token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, Actor, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, Actor{}, err
	}
	account, err := s.dir.AccountByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return TokenPair{}, Actor{}, ErrUnauthenticated
		}
		return TokenPair{}, Actor{}, err
	}
	if !account.Active {
		return TokenPair{}, Actor{}, ErrInactive
	}
	pair, err := s.mintPair(account)
	if err != nil {
		return TokenPair{}, Actor{}, err
	}
	return pair, actorFromAccount(account), nil
}

// MintPair issues a token pair for an already-verified account, used right
// after signup.
func (s *Service) MintPair(account Account) (TokenPair, error) {
	return s.mintPair(account)
}

// ResolveActor turns a bearer token into an actor, failing closed: bad or
// expired tokens and unknown subjects yield ErrUnauthenticated; deactivated
// accounts yield the actor together with ErrInactive so callers may still
// permit self-read.
func (s *Service) ResolveActor(ctx context.Context, accessToken string) (Actor, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return Actor{}, ErrUnauthenticated
	}
	account, err := s.dir.AccountByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Actor{}, ErrUnauthenticated
		}
		return Actor{}, err
	}
	actor := actorFromAccount(account)
	if !account.Active {
		return actor, ErrInactive
	}
	return actor, nil
}

func (s *Service) mintPair(account Account) (TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccess(account.ID, account.Email)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(account.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func actorFromAccount(a Account) Actor {
	return Actor{ID: a.ID, Email: a.Email, Role: a.Role, Active: a.Active}
}

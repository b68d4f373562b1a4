package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer = "sauda"

	// kindRefresh marks refresh tokens. Access tokens carry no kind claim;
	// absence means access. The discriminator is checked explicitly at
	// verification time, never inferred from expiry.
	kindRefresh = "refresh"
)

// Claims are the JWT claims minted by TokenService. Email is a denormalized
// display value present on access tokens only.
type Claims struct {
	Email string `json:"email,omitempty"`
	Kind  string `json:"kind,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the two token kinds with an HS256
// symmetric secret held in process-wide configuration. Rotating the secret
// invalidates all outstanding tokens.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption configures TokenService.
type TokenOption func(*TokenService)

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) {
		if v := strings.TrimSpace(issuer); v != "" {
			s.issuer = v
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenService constructs a TokenService.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, opts ...TokenOption) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token TTLs must be positive")
	}
	s := &TokenService{
		secret:     []byte(secret),
		issuer:     defaultIssuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueAccess signs a short-lived access token for the subject.
func (s *TokenService) IssueAccess(subjectID, email string) (string, time.Time, error) {
	return s.sign(subjectID, email, "", s.accessTTL)
}

// IssueRefresh signs a longer-lived refresh token carrying only subject and kind.
func (s *TokenService) IssueRefresh(subjectID string) (string, time.Time, error) {
	return s.sign(subjectID, "", kindRefresh, s.refreshTTL)
}

func (s *TokenService) sign(subjectID, email, kind string, ttl time.Duration) (string, time.Time, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return "", time.Time{}, errors.New("auth: subject is required")
	}
	now := s.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Email: email,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyAccess validates an access token and returns its claims. A refresh
// token fails with ErrWrongTokenKind even when its signature is good.
func (s *TokenService) VerifyAccess(token string) (Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.Kind != "" {
		return Claims{}, ErrWrongTokenKind
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token. A structurally valid access token
// is rejected by its kind claim, not by trusting the caller's intent.
func (s *TokenService) VerifyRefresh(token string) (Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.Kind != kindRefresh {
		return Claims{}, ErrWrongTokenKind
	}
	return claims, nil
}

func (s *TokenService) parse(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{},
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}

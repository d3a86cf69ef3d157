package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-oauth2/oauth2/v4"
	oauthmodels "github.com/go-oauth2/oauth2/v4/models"
	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionIssuer   = "fantasy-hoops-dashboard"
	sessionAudience = "dashboard"
)

// SessionClaims are the claims carried by a bearer session
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionIssuer mints and verifies HS256 bearer sessions for non-browser clients.
// It also satisfies oauth2.AccessGenerate.
type SessionIssuer struct {
	SignedKey    []byte
	SignedMethod jwt.SigningMethod
	ttl          time.Duration
	now          func() time.Time
}

var _ oauth2.AccessGenerate = (*SessionIssuer)(nil)

func NewSessionIssuer(key []byte, ttl time.Duration) *SessionIssuer {
	return &SessionIssuer{
		SignedKey:    key,
		SignedMethod: jwt.SigningMethodHS256,
		ttl:          ttl,
		now:          time.Now,
	}
}

// WithClock replaces the time source for both issuing and verifying
func (s *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	s.now = now
	return s
}

// Issue signs a session for the account and returns it with its expiry
func (s *SessionIssuer) Issue(accountGUID string) (string, time.Time, error) {
	createdAt := s.now().UTC().Truncate(time.Second)
	data := &oauth2.GenerateBasic{
		Client:   &oauthmodels.Client{ID: sessionAudience, UserID: accountGUID},
		UserID:   accountGUID,
		CreateAt: createdAt,
		TokenInfo: &oauthmodels.Token{
			ClientID:        sessionAudience,
			UserID:          accountGUID,
			AccessCreateAt:  createdAt,
			AccessExpiresIn: s.ttl,
		},
	}
	access, _, err := s.Token(context.Background(), data, false)
	if err != nil {
		return "", time.Time{}, err
	}
	return access, createdAt.Add(s.ttl), nil
}

// Token generates the signed access token. Refresh tokens are never issued;
// a client whose session expires goes through login again.
func (s *SessionIssuer) Token(ctx context.Context, data *oauth2.GenerateBasic, isGenRefresh bool) (string, string, error) {
	userID := data.UserID
	if userID == "" && data.Client != nil {
		userID = data.Client.GetUserID()
	}
	if userID == "" {
		return "", "", fmt.Errorf("cannot generate session: no account id available")
	}

	issuedAt := data.CreateAt
	expiresIn := s.ttl
	if data.TokenInfo != nil {
		issuedAt = data.TokenInfo.GetAccessCreateAt()
		expiresIn = data.TokenInfo.GetAccessExpiresIn()
	}
	if issuedAt.IsZero() {
		issuedAt = s.now()
	}

	audience := sessionAudience
	if data.Client != nil && data.Client.GetID() != "" {
		audience = data.Client.GetID()
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(expiresIn)),
		},
	}
	access, err := jwt.NewWithClaims(s.SignedMethod, claims).SignedString(s.SignedKey)
	if err != nil {
		return "", "", err
	}
	return access, "", nil
}

// Verify checks signature then expiry and returns the account GUID.
// No storage is consulted.
func (s *SessionIssuer) Verify(token string) (string, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.SignedKey, nil
	},
		jwt.WithValidMethods([]string{s.SignedMethod.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(sessionIssuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrSignatureInvalid
	}
	return claims.Subject, nil
}

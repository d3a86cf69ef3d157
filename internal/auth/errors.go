package auth

import (
	"errors"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// SetLogger replaces the package logger, used by main to share one configured instance
func SetLogger(l *logrus.Logger) {
	if l != nil {
		log = l
	}
}

// Login flow
var (
	ErrStateMismatch       = errors.New("login state mismatch")
	ErrProviderAuth        = errors.New("provider rejected the grant")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrIdentityResolution  = errors.New("provider returned no account identifier")
)

// Stored credentials
var (
	ErrRefreshFailed   = errors.New("provider rejected the refresh token")
	ErrNoCredential    = errors.New("account has no stored credential")
	ErrAccountNotFound = errors.New("account not found")
)

// Exchange codes
var (
	ErrCodeNotFound    = errors.New("exchange code not found")
	ErrCodeExpired     = errors.New("exchange code expired")
	ErrCodeAlreadyUsed = errors.New("exchange code already used")
)

// Bearer sessions
var (
	ErrSignatureInvalid = errors.New("bearer signature invalid")
	ErrTokenExpired     = errors.New("bearer token expired")
)

// IsCodeMisuse reports whether err is one of the exchange code failures
func IsCodeMisuse(err error) bool {
	return errors.Is(err, ErrCodeNotFound) || errors.Is(err, ErrCodeExpired) || errors.Is(err, ErrCodeAlreadyUsed)
}

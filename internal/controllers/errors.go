package controllers

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/auth"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/fantasy"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/gin-gonic/gin"
	oautherrors "github.com/go-oauth2/oauth2/v4/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// SetLogger replaces the package logger
func SetLogger(l *logrus.Logger) {
	if l != nil {
		log = l
	}
}

// LoginPath is where clients are sent when they must authenticate again
const LoginPath = "/auth/login"

type authFailure struct {
	status  int
	code    error
	message string
	relogin bool
}

// classifyAuthError maps a lifecycle failure to what the client is told.
// Provider bodies and internal causes stay in the server log.
func classifyAuthError(err error) authFailure {
	switch {
	case errors.Is(err, auth.ErrStateMismatch):
		return authFailure{http.StatusBadRequest, oautherrors.ErrInvalidRequest, "Login could not be verified. Please log in again.", true}
	case auth.IsCodeMisuse(err):
		return authFailure{http.StatusBadRequest, oautherrors.ErrInvalidGrant, "Login code is invalid or expired. Please log in again.", true}
	case errors.Is(err, auth.ErrProviderAuth):
		return authFailure{http.StatusBadRequest, oautherrors.ErrInvalidGrant, "Yahoo did not accept the login. Please log in again.", true}
	case errors.Is(err, auth.ErrRefreshFailed), errors.Is(err, auth.ErrNoCredential), errors.Is(err, auth.ErrAccountNotFound):
		return authFailure{http.StatusUnauthorized, oautherrors.ErrAccessDenied, "Your Yahoo authorization has ended. Please log in again.", true}
	case errors.Is(err, auth.ErrProviderUnavailable), errors.Is(err, fantasy.ErrUpstreamUnavailable):
		return authFailure{http.StatusServiceUnavailable, oautherrors.ErrTemporarilyUnavailable, "Yahoo is not responding. Please try again shortly.", false}
	case errors.Is(err, auth.ErrIdentityResolution):
		return authFailure{http.StatusBadGateway, oautherrors.ErrServerError, "Could not identify your Yahoo account. Please try again later.", false}
	case errors.Is(err, fantasy.ErrUpstreamUnauthorized):
		return authFailure{http.StatusBadGateway, oautherrors.ErrServerError, "Yahoo refused the request.", false}
	default:
		return authFailure{http.StatusInternalServerError, oautherrors.ErrServerError, "Something went wrong on our side.", false}
	}
}

func respondAuthError(c *gin.Context, err error) {
	f := classifyAuthError(err)
	entry := log.WithError(err).WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"status": f.status,
	})
	if f.status >= 500 {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	body := gin.H{
		"error":             f.code.Error(),
		"error_description": f.message,
	}
	if f.relogin {
		body["login_url"] = LoginPath
	}
	c.AbortWithStatusJSON(f.status, body)
}

func respondAPIError(c *gin.Context, status int, code, message string, details ...map[string]interface{}) {
	c.AbortWithStatusJSON(status, models.NewAPIError(code, message, details...))
}

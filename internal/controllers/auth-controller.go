package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/auth"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/middleware"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/services"
	"github.com/gin-gonic/gin"
	oautherrors "github.com/go-oauth2/oauth2/v4/errors"
	"github.com/google/uuid"
)

const loginCookie = "login_session"

// LoginFlow is the part of the token lifecycle the browser-facing routes drive
type LoginFlow interface {
	BeginLogin(ctx context.Context, sessionKey string) (string, string, error)
	TakeExpectedState(ctx context.Context, sessionKey string) (string, error)
	CompleteLogin(ctx context.Context, code, returnedState, expectedState string) (*models.Account, error)
	HasCredential(ctx context.Context, accountGUID string) (bool, error)
}

// CodeBroker issues and redeems exchange codes
type CodeBroker interface {
	Issue(ctx context.Context, accountGUID string) (string, error)
	Redeem(ctx context.Context, code string) (string, error)
}

// SessionMinter issues bearer sessions
type SessionMinter interface {
	Issue(accountGUID string) (string, time.Time, error)
}

type AuthControllerConfig struct {
	FrontendURL   string
	CookieSecure  bool
	LoginStateTTL time.Duration
}

type AuthController struct {
	login    LoginFlow
	codes    CodeBroker
	sessions SessionMinter
	accounts services.AccountService
	cfg      AuthControllerConfig
}

func NewAuthController(login LoginFlow, codes CodeBroker, sessions SessionMinter, accounts services.AccountService, cfg AuthControllerConfig) *AuthController {
	if cfg.LoginStateTTL <= 0 {
		cfg.LoginStateTTL = 10 * time.Minute
	}
	return &AuthController{login: login, codes: codes, sessions: sessions, accounts: accounts, cfg: cfg}
}

// ExchangeRequest carries the one-time code handed to the dashboard
type ExchangeRequest struct {
	Code string `json:"code" form:"code"`
}

// ExchangeResponse is the bearer session returned to the dashboard
type ExchangeResponse struct {
	BearerToken string    `json:"bearer_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int64     `json:"expires_in"`
}

// MeResponse describes the signed in account
type MeResponse struct {
	GUID          string    `json:"guid"`
	DisplayName   string    `json:"display_name"`
	CreatedAt     time.Time `json:"created_at"`
	LastLoginAt   time.Time `json:"last_login_at"`
	LeagueCount   int64     `json:"league_count"`
	HasValidToken bool      `json:"has_valid_token"`
}

// Login godoc
// @Summary Start Yahoo login
// @Description Redirects the browser to Yahoo with a fresh anti-forgery state bound to this browser
// @Tags auth
// @Success 302
// @Failure 500 {object} models.OAuth2Error
// @Router /auth/login [get]
func (ac *AuthController) Login(c *gin.Context) {
	sessionKey := uuid.NewString()
	authURL, _, err := ac.login.BeginLogin(c.Request.Context(), sessionKey)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(loginCookie, sessionKey, int(ac.cfg.LoginStateTTL.Seconds()), "/auth", "", ac.cfg.CookieSecure, true)
	c.Redirect(http.StatusFound, authURL)
}

// Callback godoc
// @Summary Yahoo OAuth callback
// @Description Completes the login and redirects to the dashboard with a one-time exchange code
// @Tags auth
// @Param code query string true "Authorization grant"
// @Param state query string true "Anti-forgery state"
// @Success 302
// @Failure 400 {object} models.OAuth2Error
// @Failure 503 {object} models.OAuth2Error
// @Router /auth/callback [get]
func (ac *AuthController) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	sessionKey, _ := c.Cookie(loginCookie)
	c.SetCookie(loginCookie, "", -1, "/auth", "", ac.cfg.CookieSecure, true)

	if providerErr := c.Query("error"); providerErr != "" {
		log.WithField("provider_error", providerErr).Warn("Provider returned an error to the callback")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":             oautherrors.ErrAccessDenied.Error(),
			"error_description": "Yahoo login was not completed. Please log in again.",
			"login_url":         LoginPath,
		})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.NewOAuth2Error(oautherrors.ErrInvalidRequest.Error(), "Missing authorization code."))
		return
	}

	expected, err := ac.login.TakeExpectedState(ctx, sessionKey)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	account, err := ac.login.CompleteLogin(ctx, code, c.Query("state"), expected)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	exchangeCode, err := ac.codes.Issue(ctx, account.GUID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	target, err := url.Parse(ac.cfg.FrontendURL)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	q := target.Query()
	q.Set("code", exchangeCode)
	target.RawQuery = q.Encode()

	log.WithField("account_id", account.GUID).Info("Issued exchange code, redirecting to dashboard")
	c.Redirect(http.StatusFound, target.String())
}

// Exchange godoc
// @Summary Redeem exchange code
// @Description Trades the one-time code from the callback redirect for a bearer session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ExchangeRequest true "Exchange code"
// @Success 200 {object} ExchangeResponse
// @Failure 400 {object} models.OAuth2Error
// @Failure 429 {object} models.OAuth2Error
// @Router /auth/exchange [post]
func (ac *AuthController) Exchange(c *gin.Context) {
	var req ExchangeRequest
	if err := c.ShouldBind(&req); err != nil || req.Code == "" {
		req.Code = c.Query("code")
	}
	if req.Code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.NewOAuth2Error(oautherrors.ErrInvalidRequest.Error(), "Missing exchange code."))
		return
	}

	accountGUID, err := ac.codes.Redeem(c.Request.Context(), req.Code)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	token, expiresAt, err := ac.sessions.Issue(accountGUID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, ExchangeResponse{
		BearerToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.UTC(),
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	})
}

// Me godoc
// @Summary Current account
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MeResponse
// @Failure 401 {object} models.OAuth2Error
// @Router /auth/me [get]
func (ac *AuthController) Me(c *gin.Context) {
	accountID, _ := middleware.AccountID(c)
	profile, err := ac.accounts.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			respondAuthError(c, auth.ErrAccountNotFound)
			return
		}
		respondAuthError(c, err)
		return
	}

	hasToken, err := ac.login.HasCredential(c.Request.Context(), accountID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		GUID:          profile.Account.GUID,
		DisplayName:   profile.Account.DisplayName,
		CreatedAt:     profile.Account.CreatedAt.UTC(),
		LastLoginAt:   profile.Account.LastLoginAt.UTC(),
		LeagueCount:   profile.LeagueCount,
		HasValidToken: hasToken,
	})
}

// Status godoc
// @Summary Authentication status
// @Description Reports whether the presented bearer session is valid. Never fails.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/status [get]
func (ac *AuthController) Status(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	body := gin.H{"authenticated": ok, "login_url": LoginPath}
	if ok {
		body["account_id"] = accountID
	}
	c.JSON(http.StatusOK, body)
}

// Logout godoc
// @Summary Log out
// @Description Drops any pending login. Bearer sessions are stateless and are discarded by the client.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [get]
func (ac *AuthController) Logout(c *gin.Context) {
	if sessionKey, err := c.Cookie(loginCookie); err == nil && sessionKey != "" {
		if _, err := ac.login.TakeExpectedState(c.Request.Context(), sessionKey); err != nil {
			log.WithError(err).Warn("Failed to drop pending login state")
		}
	}
	c.SetCookie(loginCookie, "", -1, "/auth", "", ac.cfg.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged_out", "login_url": LoginPath})
}

package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/fantasy"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/middleware"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/services"
	"github.com/gin-gonic/gin"
)

type LeagueController struct {
	leagues services.LeagueService
}

func NewLeagueController(leagues services.LeagueService) *LeagueController {
	return &LeagueController{leagues: leagues}
}

// ListLeagues godoc
// @Summary List the account's leagues
// @Description Leagues are pulled from Yahoo on first use or when sync=true
// @Tags leagues
// @Produce json
// @Security BearerAuth
// @Param sync query bool false "Pull the league list from Yahoo first"
// @Success 200 {array} models.UserLeague
// @Failure 401 {object} models.OAuth2Error
// @Failure 503 {object} models.OAuth2Error
// @Router /api/v1/leagues [get]
func (lc *LeagueController) ListLeagues(c *gin.Context) {
	accountID, _ := middleware.AccountID(c)
	ctx := c.Request.Context()

	leagues, err := lc.leagues.ListUserLeagues(ctx, accountID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	if c.Query("sync") == "true" || len(leagues) == 0 {
		leagues, err = lc.leagues.SyncUserLeagues(ctx, accountID)
		if err != nil {
			respondAuthError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, leagues)
}

// GetLeagueResource godoc
// @Summary League data
// @Description Returns a league document from cache or Yahoo. refresh=true bypasses the cache subject to a per-league cooldown.
// @Tags leagues
// @Produce json
// @Security BearerAuth
// @Param league_key path string true "League key, e.g. 428.l.12345"
// @Param resource path string true "standings, scoreboard, transactions, teams or settings"
// @Param week query int false "Scoreboard week"
// @Param refresh query bool false "Force a fetch from Yahoo"
// @Success 200 {object} services.ResourceResult
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.OAuth2Error
// @Failure 404 {object} models.APIError
// @Failure 429 {object} models.APIError
// @Router /api/v1/leagues/{league_key}/{resource} [get]
func (lc *LeagueController) GetLeagueResource(c *gin.Context) {
	accountID, _ := middleware.AccountID(c)
	leagueKey := c.Param("league_key")
	resource := c.Param("resource")

	week := 0
	if raw := c.Query("week"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondAPIError(c, http.StatusBadRequest, models.ErrBadRequest, "week must be a positive integer")
			return
		}
		week = parsed
	}

	result, err := lc.leagues.GetResource(c.Request.Context(), accountID, leagueKey, resource, week, c.Query("refresh") == "true")
	if err != nil {
		respondLeagueError(c, err, leagueKey, resource)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondLeagueError maps league data failures, falling back to the auth mapping
func respondLeagueError(c *gin.Context, err error, leagueKey, resource string) {
	var cooldown *services.CooldownError
	switch {
	case errors.As(err, &cooldown):
		seconds := int(cooldown.Remaining.Seconds()) + 1
		c.Header("Retry-After", strconv.Itoa(seconds))
		respondAPIError(c, http.StatusTooManyRequests, models.ErrLeagueOnCooldown, "League was refreshed recently",
			map[string]interface{}{"retry_after_seconds": seconds})
	case errors.Is(err, fantasy.ErrUnknownResource):
		respondAPIError(c, http.StatusNotFound, models.ErrUnknownResource, "Unknown league resource",
			map[string]interface{}{"resource": resource})
	case errors.Is(err, fantasy.ErrUpstreamNotFound):
		respondAPIError(c, http.StatusNotFound, models.ErrLeagueNotFound, "League not found on Yahoo",
			map[string]interface{}{"league_key": leagueKey})
	default:
		respondAuthError(c, err)
	}
}

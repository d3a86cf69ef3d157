package middleware

import (
	"context"
	"net/http"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/gin-gonic/gin"
)

// LeagueMembership answers whether an account belongs to a league
type LeagueMembership interface {
	HasAccess(ctx context.Context, accountGUID, leagueKey string) (bool, error)
}

// RequireLeagueAccess lets a session reach only the leagues of its own account.
// It must run after BearerAuth.
func RequireLeagueAccess(membership LeagueMembership, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := AccountID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "User not authenticated"))
			c.Abort()
			return
		}

		leagueKey := c.Param(param)
		if leagueKey == "" {
			c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "League key is required"))
			c.Abort()
			return
		}

		allowed, err := membership.HasAccess(c.Request.Context(), accountID, leagueKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Could not check league membership"))
			c.Abort()
			return
		}
		if !allowed {
			// not found rather than forbidden, so league keys cannot be enumerated
			c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrLeagueNotFound, "League not found for this account",
				map[string]interface{}{"league_key": leagueKey}))
			c.Abort()
			return
		}

		c.Next()
	}
}

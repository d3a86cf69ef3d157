package controllers

import (
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/fantasy"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/middleware"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/services"
	"github.com/gin-gonic/gin"
)

type TransactionController struct {
	transactions services.TransactionService
}

func NewTransactionController(transactions services.TransactionService) *TransactionController {
	return &TransactionController{transactions: transactions}
}

// TransactionPage is one page of stored transactions
type TransactionPage struct {
	Transactions []models.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// Sync godoc
// @Summary Sync league transactions
// @Description Pulls new transactions from Yahoo into the store. Spends the league cooldown; a sync on cooldown is skipped and reported.
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param league_key path string true "League key"
// @Success 200 {object} services.TransactionSync
// @Failure 401 {object} models.OAuth2Error
// @Failure 404 {object} models.APIError
// @Failure 503 {object} models.OAuth2Error
// @Router /api/v1/leagues/{league_key}/transactions/sync [post]
func (tc *TransactionController) Sync(c *gin.Context) {
	accountID, _ := middleware.AccountID(c)
	leagueKey := c.Param("league_key")

	result, err := tc.transactions.Sync(c.Request.Context(), accountID, leagueKey)
	if err != nil {
		respondLeagueError(c, err, leagueKey, fantasy.ResourceTransactions)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SyncStatus godoc
// @Summary Transaction sync status
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param league_key path string true "League key"
// @Success 200 {object} services.TransactionSyncStatus
// @Router /api/v1/leagues/{league_key}/transactions/sync-status [get]
func (tc *TransactionController) SyncStatus(c *gin.Context) {
	status, err := tc.transactions.SyncStatus(c.Request.Context(), c.Param("league_key"))
	if err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// List godoc
// @Summary Stored transactions
// @Description Newest first. team_key matches either side of a move or trade.
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param league_key path string true "League key"
// @Param type query string false "add, drop, add/drop or trade"
// @Param team_key query string false "Team involved"
// @Param limit query int false "Page size, at most 200"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} TransactionPage
// @Failure 400 {object} models.APIError
// @Router /api/v1/leagues/{league_key}/transactions/history [get]
func (tc *TransactionController) List(c *gin.Context) {
	filter := services.TransactionFilter{
		TeamKey: c.Query("team_key"),
		Type:    c.Query("type"),
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondAPIError(c, http.StatusBadRequest, models.ErrBadRequest, name+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	txns, total, err := tc.transactions.List(c.Request.Context(), c.Param("league_key"), filter)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	page := filter.Normalized()
	c.JSON(http.StatusOK, TransactionPage{Transactions: txns, Total: total, Limit: page.Limit, Offset: page.Offset})
}

// Stats godoc
// @Summary Transaction statistics
// @Description Manager activity and the most added and dropped players
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param league_key path string true "League key"
// @Success 200 {object} services.TransactionStats
// @Router /api/v1/leagues/{league_key}/transactions/stats [get]
func (tc *TransactionController) Stats(c *gin.Context) {
	stats, err := tc.transactions.Stats(c.Request.Context(), c.Param("league_key"))
	if err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

package fantasy

import (
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/payload"
	"github.com/tidwall/gjson"
)

const leagueTransactionsPath = "fantasy_content.league.1.transactions"

// ParseTransactions extracts the transactions of a league/transactions document,
// newest first as Yahoo lists them. Entries without an id are skipped, as are
// players without a player id.
func ParseTransactions(raw []byte, leagueKey string) []models.Transaction {
	if key := payload.LookupString(raw, "fantasy_content.league.0.league_key", ""); key != "" {
		leagueKey = key
	}

	var txns []models.Transaction
	payload.Each(raw, leagueTransactionsPath, func(_ string, entry gjson.Result) bool {
		meta := entry.Get("transaction.0")
		id := meta.Get("transaction_id").String()
		if id == "" {
			return true
		}

		metaRaw := []byte(meta.Raw)
		timestamp := int64(payload.LookupInt(metaRaw, "timestamp", 0))
		date := time.Now().UTC()
		if timestamp > 0 {
			date = time.Unix(timestamp, 0).UTC()
		}

		txn := models.Transaction{
			TransactionID:   id,
			LeagueKey:       leagueKey,
			Type:            payload.LookupString(metaRaw, "type", ""),
			Status:          payload.LookupString(metaRaw, "status", ""),
			Timestamp:       timestamp,
			TransactionDate: date,
			TraderTeamKey:   optional(payload.LookupString(metaRaw, "trader_team_key", "")),
			TradeeTeamKey:   optional(payload.LookupString(metaRaw, "tradee_team_key", "")),
		}
		entry.Get("transaction.1.players").ForEach(func(key, value gjson.Result) bool {
			if key.Str == "count" {
				return true
			}
			if player, ok := parseTransactionPlayer(value.Get("player")); ok {
				txn.Players = append(txn.Players, player)
			}
			return true
		})
		txns = append(txns, txn)
		return true
	})
	return txns
}

// parseTransactionPlayer reads [[attributes...], {transaction_data}]. Yahoo sends
// transaction_data as an object for adds and drops and as a one element list for trades.
func parseTransactionPlayer(player gjson.Result) (models.TransactionPlayer, bool) {
	attrs := player.Get("0")
	id := attribute(attrs, "player_id").String()
	if id == "" {
		return models.TransactionPlayer{}, false
	}

	data := player.Get("1.transaction_data")
	if data.IsArray() {
		data = data.Get("0")
	}
	return models.TransactionPlayer{
		PlayerID:            id,
		PlayerName:          attribute(attrs, "name").Get("full").String(),
		NBATeam:             attribute(attrs, "editorial_team_abbr").String(),
		Position:            attribute(attrs, "display_position").String(),
		ActionType:          data.Get("type").String(),
		SourceType:          data.Get("source_type").String(),
		SourceTeamKey:       data.Get("source_team_key").String(),
		SourceTeamName:      data.Get("source_team_name").String(),
		DestinationType:     data.Get("destination_type").String(),
		DestinationTeamKey:  data.Get("destination_team_key").String(),
		DestinationTeamName: data.Get("destination_team_name").String(),
	}, true
}

// attribute finds key in a list of single-key objects
func attribute(list gjson.Result, key string) gjson.Result {
	var found gjson.Result
	list.ForEach(func(_, item gjson.Result) bool {
		if v := item.Get(key); v.Exists() {
			found = v
			return false
		}
		return true
	})
	return found
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

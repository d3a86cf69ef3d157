package fantasy

import (
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/payload"
	"github.com/tidwall/gjson"
)

const userGamesPath = "fantasy_content.users.0.user.1.games"

// League is the subset of league metadata the dashboard keeps
type League struct {
	LeagueKey string
	LeagueID  string
	Name      string
	Season    string
	NumTeams  int
}

// ParseUserLeagues extracts leagues from a users/games/leagues document.
// Entries without a league key are skipped.
func ParseUserLeagues(raw []byte) []League {
	var leagues []League
	payload.Each(raw, userGamesPath, func(_ string, game gjson.Result) bool {
		game.Get("game.1.leagues").ForEach(func(key, entry gjson.Result) bool {
			if key.Str == "count" {
				return true
			}
			league := []byte(entry.Get("league.0").Raw)
			l := League{
				LeagueKey: payload.LookupString(league, "league_key", ""),
				LeagueID:  payload.LookupString(league, "league_id", ""),
				Name:      payload.LookupString(league, "name", ""),
				Season:    payload.LookupString(league, "season", ""),
				NumTeams:  payload.LookupInt(league, "num_teams", 0),
			}
			if l.LeagueKey != "" {
				leagues = append(leagues, l)
			}
			return true
		})
		return true
	})
	return leagues
}

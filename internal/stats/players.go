package stats

import (
	"math"
	"sort"

	"github.com/thebtf/realmstats/internal/sessions"
	"github.com/thebtf/realmstats/pkg/models"
)

// RollupPlayers folds every session into per-player totals, most games first.
// Characters without a final score count as scoring 0.
func RollupPlayers(source SessionSource) ([]models.PlayerAggregate, error) {
	entries, err := source.LoadAll()
	if err != nil {
		return nil, err
	}
	return FoldPlayers(entries, source.FinalScores), nil
}

type playerAcc struct {
	agg     *models.PlayerAggregate
	hasBest bool
}

// FoldPlayers builds player aggregates from loaded sessions. Sessions are folded in
// slice order and characters within a session alphabetically.
func FoldPlayers(entries []sessions.Entry, scoresFor func(id string) models.FinalScores) []models.PlayerAggregate {
	byName := make(map[string]*playerAcc)
	var order []string

	for _, e := range entries {
		scores := scoresFor(e.ID)
		for _, character := range sortedKeys(e.Record.CharacterToPlayer) {
			player := e.Record.CharacterToPlayer[character]
			score := scores.ScoreFor(character)

			acc, ok := byName[player]
			if !ok {
				acc = &playerAcc{agg: &models.PlayerAggregate{
					Name:             player,
					CharactersPlayed: []string{},
					CharacterCounts:  map[string]int{},
				}}
				byName[player] = acc
				order = append(order, player)
			}
			p := acc.agg

			p.TotalGames++
			p.TotalScore += score
			if !acc.hasBest || score > p.BestScore {
				acc.hasBest = true
				p.BestScore = score
				p.BestSessionID = e.ID
				p.BestSessionTitle = e.Record.DisplayTitle()
			}
			if _, seen := p.CharacterCounts[character]; !seen {
				p.CharactersPlayed = append(p.CharactersPlayed, character)
			}
			p.CharacterCounts[character]++
		}
	}

	out := make([]models.PlayerAggregate, 0, len(order))
	for _, name := range order {
		p := byName[name].agg
		p.AverageScore = averageScore(p.TotalScore, p.TotalGames)
		if top := topCounts(p.CharacterCounts, 1); len(top) > 0 {
			p.MostPlayedCharacter = top[0].Name
			p.MostPlayedCharacterCount = top[0].Count
		}
		out = append(out, *p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalGames != out[j].TotalGames {
			return out[i].TotalGames > out[j].TotalGames
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// averageScore rounds half up, and is 0 for a player without games.
func averageScore(total int64, games int) int64 {
	if games == 0 {
		return 0
	}
	return int64(math.Floor(float64(total)/float64(games) + 0.5))
}

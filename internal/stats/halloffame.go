package stats

import (
	"sort"

	"github.com/thebtf/realmstats/pkg/models"
)

// BuildHallOfFame derives the records document from master stats. Every comparison
// treats zero and negative scores as real scores; only non-numeric scores are ignored.
// Ties at the top are all returned.
func BuildHallOfFame(ms *models.MasterStats) models.HallOfFame {
	return models.HallOfFame{
		HighestScoringCharacter: highestScoringCharacter(ms),
		MostPlayedCharacter:     mostPlayedCharacter(ms),
		HighestScoringPlayer:    highestScoringPlayer(ms),
	}
}

func highestScoringCharacter(ms *models.MasterStats) models.HighestScoringCharacter {
	type best struct {
		score int64
		rows  []models.CharacterScoreRow
	}

	var (
		bests    []best
		top      int64
		topFound bool
	)
	for _, name := range sortedKeys(ms.Characters) {
		var (
			b     best
			found bool
		)
		for _, g := range ms.Characters[name].Games {
			if !g.Score.Valid {
				continue
			}
			if !found || g.Score.Value > b.score {
				b.score = g.Score.Value
				found = true
			}
		}
		if !found {
			continue
		}
		for _, g := range ms.Characters[name].Games {
			if g.Score.Valid && g.Score.Value == b.score {
				b.rows = append(b.rows, models.CharacterScoreRow{
					Character:    name,
					Score:        g.Score.Value,
					SessionID:    g.SessionID,
					SessionTitle: g.SessionTitle,
				})
			}
		}
		bests = append(bests, b)
		if !topFound || b.score > top {
			top = b.score
			topFound = true
		}
	}

	out := models.HighestScoringCharacter{Characters: []models.CharacterScoreRow{}}
	if !topFound {
		return out
	}
	for _, b := range bests {
		if b.score == top {
			out.Characters = append(out.Characters, b.rows...)
		}
	}
	out.Score = &top
	return out
}

func mostPlayedCharacter(ms *models.MasterStats) models.MostPlayedCharacter {
	rows := make([]models.CharacterPlaysRow, 0, len(ms.Characters))
	for name, cs := range ms.Characters {
		rows = append(rows, models.CharacterPlaysRow{Character: name, Plays: cs.TotalPlays})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Plays != rows[j].Plays {
			return rows[i].Plays > rows[j].Plays
		}
		return rows[i].Character < rows[j].Character
	})

	out := models.MostPlayedCharacter{Characters: []models.CharacterPlaysRow{}}
	if len(rows) == 0 {
		return out
	}
	out.Plays = rows[0].Plays
	for _, r := range rows {
		if r.Plays != out.Plays {
			break
		}
		out.Characters = append(out.Characters, r)
	}
	return out
}

func highestScoringPlayer(ms *models.MasterStats) models.HighestScoringPlayer {
	bestByPlayer := make(map[string]*models.PlayerScoreRow)
	var order []string

	for _, session := range ms.Sessions {
		for _, character := range sortedKeys(session.Scores) {
			score := session.Scores[character].TotalScore
			if !score.Valid {
				continue
			}
			player, ok := session.Characters[character]
			if !ok || player == "" {
				continue
			}
			cur, seen := bestByPlayer[player]
			if !seen {
				order = append(order, player)
			}
			if !seen || score.Value > cur.Score {
				bestByPlayer[player] = &models.PlayerScoreRow{
					Player:       player,
					Score:        score.Value,
					Character:    character,
					SessionID:    session.SessionID,
					SessionTitle: session.SessionTitle,
				}
			}
		}
	}

	out := models.HighestScoringPlayer{Players: []models.PlayerScoreRow{}}
	if len(order) == 0 {
		return out
	}

	top := bestByPlayer[order[0]].Score
	for _, p := range order[1:] {
		if s := bestByPlayer[p].Score; s > top {
			top = s
		}
	}
	for _, p := range order {
		row := bestByPlayer[p]
		if row.Score != top {
			continue
		}
		if mp := playerMostPlayed(ms, p); mp != nil {
			row.MostPlayedCharacter = mp.Name
			row.MostPlayedCharacterCount = mp.Count
		}
		out.Players = append(out.Players, *row)
	}
	out.Score = &top
	out.MostPlayedCharacter = out.Players[0].MostPlayedCharacter
	return out
}

// playerMostPlayed counts how often player controlled each character across all sessions.
func playerMostPlayed(ms *models.MasterStats, player string) *models.NamedCount {
	counts := make(map[string]int)
	for _, session := range ms.Sessions {
		for character, p := range session.Characters {
			if p == player {
				counts[character]++
			}
		}
	}
	top := topCounts(counts, 1)
	if len(top) == 0 {
		return nil
	}
	return &top[0]
}

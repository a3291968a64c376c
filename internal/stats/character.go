package stats

import (
	"errors"

	"github.com/goccy/go-json"

	"github.com/thebtf/realmstats/pkg/models"
)

// TopListSize is the length of the killers and killed-by lists.
const TopListSize = 5

// ErrCharacterNotFound is returned when a character has no entry in master stats.
var ErrCharacterNotFound = errors.New("character not found in statistics")

var (
	emptyTreasures = json.RawMessage(`{"found":{},"sold":{}}`)
	emptyMonsters  = json.RawMessage(`{}`)
)

// CharacterStats returns one character's statistics with its top killers and victims.
func CharacterStats(ms *models.MasterStats, name string) (*models.CharacterStatsView, error) {
	cs, ok := ms.Characters[name]
	if !ok {
		return nil, ErrCharacterNotFound
	}

	view := &models.CharacterStatsView{
		Character:      name,
		Stats:          cs,
		TopKillers:     topCounts(cs.Killers, TopListSize),
		TopKilled:      topCounts(cs.Killed, TopListSize),
		Treasures:      emptyTreasures,
		MonstersKilled: emptyMonsters,
	}
	if t, ok := ms.Treasures.ByCharacter[name]; ok && present(t) {
		view.Treasures = t
	}
	if m, ok := ms.Monsters.KilledByCharacter[name]; ok && present(m) {
		view.MonstersKilled = m
	}
	return view, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

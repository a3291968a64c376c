// Package stats derives session, player and hall-of-fame rollups from parsed session data.
package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thebtf/realmstats/internal/sessions"
	"github.com/thebtf/realmstats/internal/titles"
	"github.com/thebtf/realmstats/pkg/models"
)

// DaysPerMonth is the length of a game month.
const DaysPerMonth = 28

// Session orderings accepted by SortSummaries.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortName   = "name"
)

// SessionSource provides session records and their final scores.
type SessionSource interface {
	LoadAll() ([]sessions.Entry, error)
	Entry(id string) (*sessions.Entry, error)
	FinalScores(id string) models.FinalScores
}

// Aggregator builds session summaries, resolving display names through a title lookup.
type Aggregator struct {
	source SessionSource
	lookup titles.Lookup
}

// NewAggregator creates an aggregator. A nil lookup disables title overrides.
func NewAggregator(source SessionSource, lookup titles.Lookup) *Aggregator {
	return &Aggregator{source: source, lookup: lookup}
}

// SummarizeAll summarizes every readable session, ordered by the given sort key.
func (a *Aggregator) SummarizeAll(order string) ([]models.SessionSummary, error) {
	entries, err := a.source.LoadAll()
	if err != nil {
		return nil, err
	}

	out := make([]models.SessionSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, Summarize(e, a.lookup))
	}
	SortSummaries(out, order)
	return out, nil
}

// Summarize summarizes a single session by id.
func (a *Aggregator) Summarize(id string) (*models.SessionSummary, error) {
	entry, err := a.source.Entry(id)
	if err != nil {
		return nil, err
	}
	sum := Summarize(*entry, a.lookup)
	return &sum, nil
}

// Summarize derives the turn, battle and action counts of one session.
func Summarize(e sessions.Entry, lookup titles.Lookup) models.SessionSummary {
	rec := e.Record

	sum := models.SessionSummary{
		ID:           e.ID,
		LastModified: e.ModTime,
		Days:         len(rec.Days),
	}

	unique := make(map[string]struct{})
	for _, day := range rec.Days {
		sum.TotalCharacterTurns += len(day.CharacterTurns)
		sum.TotalBattles += len(day.Battles)
		for _, turn := range day.CharacterTurns {
			sum.TotalActions += len(turn.Actions)
			if !turn.IsHQ() {
				unique[turn.Character] = struct{}{}
			}
		}
		for _, b := range day.Battles {
			if b.IsReal() {
				sum.Battles++
			}
		}
	}
	sum.UniqueCharacters = len(unique)

	players := make(map[string]struct{}, len(rec.CharacterToPlayer))
	for _, p := range rec.CharacterToPlayer {
		players[p] = struct{}{}
	}
	sum.Characters = len(rec.CharacterToPlayer)
	sum.Players = len(players)
	sum.FinalDay = FinalDay(sum.Days)

	var override titles.Override
	var hasOverride bool
	if lookup != nil {
		override, hasOverride = lookup(e.ID)
	}

	sum.Name = rec.DisplayTitle()
	sum.MainTitle = sum.Name
	if hasOverride && override.MainTitle != "" {
		sum.MainTitle = override.MainTitle
	}

	switch {
	case hasOverride && override.Subtitle != "":
		sum.Subtitle = override.Subtitle
	case sum.Characters == 0:
		sum.Subtitle = "No character data"
	default:
		sum.Subtitle = fmt.Sprintf("%d characters, %d players", sum.Characters, sum.Players)
	}
	return sum
}

// FinalDay formats the last played day of a session lasting totalDays days as "{month}m{day}d".
func FinalDay(totalDays int) string {
	n := totalDays - 1
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%dm%dd", n/DaysPerMonth+1, n%DaysPerMonth+1)
}

// SortSummaries orders summaries in place. Unknown orders fall back to newest first.
func SortSummaries(list []models.SessionSummary, order string) {
	switch order {
	case SortOldest:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].LastModified.Before(list[j].LastModified)
		})
	case SortName:
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].MainTitle) < strings.ToLower(list[j].MainTitle)
		})
	default:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].LastModified.After(list[j].LastModified)
		})
	}
}

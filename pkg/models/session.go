// Package models contains the session and statistics documents served by realmstats.
package models

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// HQMarker marks headquarters entries in character turns. Headquarters is not a player character.
const HQMarker = "HQ"

// SessionRecord is one parsed game session as written by the log parser.
type SessionRecord struct {
	ID                string               `json:"-"`
	SessionName       string               `json:"sessionName,omitempty"`
	SessionTitle      string               `json:"sessionTitle,omitempty"`
	Days              map[string]DayRecord `json:"days"`
	CharacterToPlayer map[string]string    `json:"characterToPlayer"`
	Players           json.RawMessage      `json:"players,omitempty"`
}

// DisplayTitle resolves the session's own title: sessionTitle, then sessionName, then the folder id.
func (s *SessionRecord) DisplayTitle() string {
	if s.SessionTitle != "" {
		return s.SessionTitle
	}
	if s.SessionName != "" {
		return s.SessionName
	}
	return s.ID
}

// DayRecord holds the turns and battles of a single game day.
type DayRecord struct {
	CharacterTurns []CharacterTurn `json:"characterTurns"`
	Battles        []Battle        `json:"battles"`
}

// CharacterTurn is one character's turn within a day.
type CharacterTurn struct {
	Character string            `json:"character"`
	Actions   []json.RawMessage `json:"actions"`
}

// IsHQ reports whether the turn belongs to a headquarters entry.
func (t CharacterTurn) IsHQ() bool {
	return strings.Contains(t.Character, HQMarker)
}

// Battle is a fight within a day.
type Battle struct {
	Rounds []Round `json:"rounds"`
}

// Round is a single combat round.
type Round struct {
	Actions []json.RawMessage `json:"actions"`
}

// IsReal reports whether at least one round carries actions.
func (b Battle) IsReal() bool {
	for _, r := range b.Rounds {
		if len(r.Actions) > 0 {
			return true
		}
	}
	return false
}

// FinalScore is a character's end-of-session score.
type FinalScore struct {
	TotalScore Score `json:"totalScore"`
	IsDead     bool  `json:"isDead"`
}

// FinalScores maps character name to final score.
type FinalScores map[string]FinalScore

// ScoreFor returns the character's total score, defaulting to 0 when absent.
func (f FinalScores) ScoreFor(character string) int64 {
	fs, ok := f[character]
	if !ok || !fs.TotalScore.Valid {
		return 0
	}
	return fs.TotalScore.Value
}

// SessionSummary is the per-session rollup returned by the listing endpoint.
type SessionSummary struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	TotalCharacterTurns int       `json:"totalCharacterTurns"`
	TotalBattles        int       `json:"totalBattles"`
	TotalActions        int       `json:"totalActions"`
	UniqueCharacters    int       `json:"uniqueCharacters"`
	Players             int       `json:"players"`
	LastModified        time.Time `json:"lastModified"`
	MainTitle           string    `json:"mainTitle"`
	Subtitle            string    `json:"subtitle"`
	Characters          int       `json:"characters"`
	Days                int       `json:"days"`
	Battles             int       `json:"battles"`
	FinalDay            string    `json:"finalDay"`
}

package models

import "github.com/goccy/go-json"

// MasterStats is the cross-session rollup produced by the stats builder.
type MasterStats struct {
	Characters map[string]CharacterStats `json:"characters"`
	Sessions   []MasterSession          `json:"sessions"`
	Treasures  TreasureStats            `json:"treasures"`
	Monsters   MonsterStats             `json:"monsters"`
}

// CharacterStats is one character's slice of the master stats.
type CharacterStats struct {
	Games      []CharacterGame `json:"games"`
	Killers    map[string]int  `json:"killers"`
	Killed     map[string]int  `json:"killed"`
	Players    json.RawMessage `json:"players,omitempty"`
	TotalPlays int             `json:"totalPlays"`
}

// CharacterGame is a single game played by a character.
type CharacterGame struct {
	Score        Score  `json:"score"`
	SessionID    string `json:"sessionId"`
	SessionTitle string `json:"sessionTitle"`
}

// MasterSession is a session entry in the master stats.
type MasterSession struct {
	SessionID    string                  `json:"sessionId"`
	SessionTitle string                  `json:"sessionTitle"`
	Scores       map[string]SessionScore `json:"scores"`
	Characters   map[string]string       `json:"characters"`
}

// SessionScore is a character's score within a master stats session.
type SessionScore struct {
	TotalScore Score `json:"totalScore"`
}

// TreasureStats holds per-character treasure documents, passed through verbatim.
type TreasureStats struct {
	ByCharacter map[string]json.RawMessage `json:"byCharacter"`
}

// MonsterStats holds per-character monster kill documents, passed through verbatim.
type MonsterStats struct {
	KilledByCharacter map[string]json.RawMessage `json:"killedByCharacter"`
}

// PlayerAggregate is a per-player rollup built fresh on each request.
type PlayerAggregate struct {
	Name                     string         `json:"name"`
	TotalGames               int            `json:"totalGames"`
	TotalScore               int64          `json:"totalScore"`
	BestScore                int64          `json:"bestScore"`
	AverageScore             int64          `json:"averageScore"`
	CharactersPlayed         []string       `json:"charactersPlayed"`
	CharacterCounts          map[string]int `json:"characterCounts"`
	BestSessionID            string         `json:"bestSessionId"`
	BestSessionTitle         string         `json:"bestSessionTitle"`
	MostPlayedCharacter      string         `json:"mostPlayedCharacter"`
	MostPlayedCharacterCount int            `json:"mostPlayedCharacterCount"`
}

// NamedCount is a name with an occurrence count.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CharacterScoreRow is one character game achieving the top score.
type CharacterScoreRow struct {
	Character    string `json:"character"`
	Score        int64  `json:"score"`
	SessionID    string `json:"sessionId"`
	SessionTitle string `json:"sessionTitle"`
}

// CharacterPlaysRow is a character with its total plays.
type CharacterPlaysRow struct {
	Character string `json:"character"`
	Plays     int    `json:"plays"`
}

// PlayerScoreRow is a player's single best game.
type PlayerScoreRow struct {
	Player                   string `json:"player"`
	Score                    int64  `json:"score"`
	Character                string `json:"character"`
	SessionID                string `json:"sessionId"`
	SessionTitle             string `json:"sessionTitle"`
	MostPlayedCharacter      string `json:"mostPlayedCharacter"`
	MostPlayedCharacterCount int    `json:"mostPlayedCharacterCount"`
}

// HighestScoringCharacter lists every character game tied at the top score.
type HighestScoringCharacter struct {
	Characters []CharacterScoreRow `json:"characters"`
	Score      *int64              `json:"score"`
}

// MostPlayedCharacter lists every character tied at the most plays.
type MostPlayedCharacter struct {
	Characters []CharacterPlaysRow `json:"characters"`
	Plays      int                 `json:"plays"`
}

// HighestScoringPlayer lists every player tied at the top score.
type HighestScoringPlayer struct {
	Players             []PlayerScoreRow `json:"players"`
	Score               *int64           `json:"score"`
	MostPlayedCharacter string           `json:"mostPlayedCharacter"`
}

// HallOfFame is the records document.
type HallOfFame struct {
	HighestScoringCharacter HighestScoringCharacter `json:"highestScoringCharacter"`
	MostPlayedCharacter     MostPlayedCharacter     `json:"mostPlayedCharacter"`
	HighestScoringPlayer    HighestScoringPlayer    `json:"highestScoringPlayer"`
}

// CharacterStatsView is a character's statistics with derived top-5 lists.
type CharacterStatsView struct {
	Character      string          `json:"character"`
	Stats          CharacterStats  `json:"stats"`
	TopKillers     []NamedCount    `json:"topKillers"`
	TopKilled      []NamedCount    `json:"topKilled"`
	Treasures      json.RawMessage `json:"treasures"`
	MonstersKilled json.RawMessage `json:"monstersKilled"`
}

package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/realmstats/internal/sessions"
	"github.com/thebtf/realmstats/internal/titles"
	"github.com/thebtf/realmstats/pkg/models"
)

func TestFinalDay(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{days: 0, want: "1m1d"},
		{days: 1, want: "1m1d"},
		{days: 2, want: "1m2d"},
		{days: 28, want: "1m28d"},
		{days: 29, want: "2m1d"},
		{days: 56, want: "2m28d"},
		{days: 59, want: "3m3d"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FinalDay(tt.days), "days=%d", tt.days)
	}
}

func decodeRecord(t *testing.T, id, doc string) *models.SessionRecord {
	t.Helper()
	var rec models.SessionRecord
	require.NoError(t, json.Unmarshal([]byte(doc), &rec))
	rec.ID = id
	if rec.CharacterToPlayer == nil {
		rec.CharacterToPlayer = map[string]string{}
	}
	return &rec
}

const twoDaySession = `{
	"sessionName": "raw-name",
	"days": {
		"1": {
			"characterTurns": [
				{"character": "Amazon", "actions": [{}, {}, {}]},
				{"character": "Amazon HQ", "actions": [{}]},
				{"character": "Berserker", "actions": []}
			],
			"battles": [
				{"rounds": [{"actions": []}]},
				{"rounds": [{"actions": []}, {"actions": [{}]}]}
			]
		},
		"2": {
			"characterTurns": [
				{"character": "Amazon", "actions": [{}]},
				{"character": "HQ", "actions": [{}, {}]}
			],
			"battles": []
		}
	},
	"characterToPlayer": {"Amazon": "Ann", "Berserker": "Bob", "Captain": "Ann"}
}`

func TestSummarize_Counts(t *testing.T) {
	rec := decodeRecord(t, "game_123", twoDaySession)
	mod := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	sum := Summarize(sessions.Entry{ID: "game_123", Record: rec, ModTime: mod}, nil)

	assert.Equal(t, "game_123", sum.ID)
	assert.Equal(t, 5, sum.TotalCharacterTurns)
	assert.Equal(t, 2, sum.TotalBattles)
	assert.Equal(t, 1, sum.Battles)
	assert.Equal(t, 7, sum.TotalActions)
	assert.Equal(t, 2, sum.UniqueCharacters, "HQ entries are not characters")
	assert.Equal(t, 3, sum.Characters)
	assert.Equal(t, 2, sum.Players)
	assert.Equal(t, 2, sum.Days)
	assert.Equal(t, "1m2d", sum.FinalDay)
	assert.Equal(t, mod, sum.LastModified)
	assert.Equal(t, "raw-name", sum.Name)
	assert.Equal(t, "raw-name", sum.MainTitle)
	assert.Equal(t, "3 characters, 2 players", sum.Subtitle)
}

func TestSummarize_TitleResolution(t *testing.T) {
	overrides := titles.New(map[string]titles.Override{
		"game_999": {MainTitle: "The Long Night", Subtitle: "Nobody survived"},
		"other":    {MainTitle: "Titled Only"},
	})

	tests := []struct {
		name         string
		id           string
		doc          string
		lookup       titles.Lookup
		wantTitle    string
		wantSubtitle string
	}{
		{
			name:         "prefix override",
			id:           "game_123",
			doc:          twoDaySession,
			lookup:       overrides.LookupPrefix,
			wantTitle:    "The Long Night",
			wantSubtitle: "Nobody survived",
		},
		{
			name:         "exact override misses other timestamp",
			id:           "game_123",
			doc:          twoDaySession,
			lookup:       overrides.Lookup,
			wantTitle:    "raw-name",
			wantSubtitle: "3 characters, 2 players",
		},
		{
			name:         "override without subtitle falls back",
			id:           "other",
			doc:          `{"characterToPlayer": {"Amazon": "Ann"}}`,
			lookup:       overrides.Lookup,
			wantTitle:    "Titled Only",
			wantSubtitle: "1 characters, 1 players",
		},
		{
			name:         "session title beats session name",
			id:           "x",
			doc:          `{"sessionTitle": "Title", "sessionName": "Name"}`,
			lookup:       overrides.Lookup,
			wantTitle:    "Title",
			wantSubtitle: "No character data",
		},
		{
			name:         "folder id last",
			id:           "folder_1",
			doc:          `{}`,
			lookup:       nil,
			wantTitle:    "folder_1",
			wantSubtitle: "No character data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := decodeRecord(t, tt.id, tt.doc)
			sum := Summarize(sessions.Entry{ID: tt.id, Record: rec}, tt.lookup)
			assert.Equal(t, tt.wantTitle, sum.MainTitle)
			assert.Equal(t, tt.wantSubtitle, sum.Subtitle)
		})
	}
}

func writeSession(t *testing.T, root, id, doc string, mod time.Time) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0750))
	path := filepath.Join(dir, sessions.SessionFile)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestAggregator_SummarizeAll(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeSession(t, root, "a_old", `{"sessionTitle": "Old"}`, base)
	writeSession(t, root, "b_new", `{"sessionTitle": "New"}`, base.Add(30*time.Minute))
	writeSession(t, root, "c_mid", `{"sessionTitle": "mid"}`, base.Add(10*time.Minute))
	writeSession(t, root, "d_bad", `{"days": `, base.Add(40*time.Minute))

	agg := NewAggregator(sessions.NewStore(root), nil)

	list, err := agg.SummarizeAll("")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"b_new", "c_mid", "a_old"}, summaryIDs(list))

	list, err = agg.SummarizeAll(SortOldest)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_old", "c_mid", "b_new"}, summaryIDs(list))

	list, err = agg.SummarizeAll(SortName)
	require.NoError(t, err)
	assert.Equal(t, []string{"c_mid", "b_new", "a_old"}, summaryIDs(list))
}

func TestAggregator_MissingRoot(t *testing.T) {
	agg := NewAggregator(sessions.NewStore(filepath.Join(t.TempDir(), "nope")), nil)

	list, err := agg.SummarizeAll(SortNewest)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = agg.Summarize("anything")
	assert.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestAggregator_Summarize(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "game_1", twoDaySession, time.Now())

	sum, err := NewAggregator(sessions.NewStore(root), nil).Summarize("game_1")
	require.NoError(t, err)
	assert.Equal(t, 7, sum.TotalActions)
}

func summaryIDs(list []models.SessionSummary) []string {
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}

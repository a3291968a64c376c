package sessions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const sampleSession = `{
	"sessionName": "learn-the-realm",
	"sessionTitle": "Learning Game",
	"days": {
		"1": {"characterTurns": [{"character": "Amazon", "actions": [{}, {}]}], "battles": []}
	},
	"characterToPlayer": {"Amazon": "P1", "Berserker": "P2"},
	"notes": {"parser": "v2"}
}`

// StoreSuite is a test suite for the filesystem session store.
type StoreSuite struct {
	suite.Suite
	root  string
	store *Store
}

func (s *StoreSuite) SetupTest() {
	s.root = s.T().TempDir()
	s.store = NewStore(s.root)
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) writeFile(id, name, content string) string {
	dir := filepath.Join(s.root, id)
	s.Require().NoError(os.MkdirAll(dir, 0750))
	path := filepath.Join(dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0644))
	return path
}

func (s *StoreSuite) TestListIDs_MissingRoot() {
	store := NewStore(filepath.Join(s.root, "does-not-exist"))

	ids, err := store.ListIDs()
	s.NoError(err)
	s.NotNil(ids)
	s.Empty(ids)

	entries, err := store.LoadAll()
	s.NoError(err)
	s.Empty(entries)
}

func (s *StoreSuite) TestListIDs_OnlyDirectories() {
	s.writeFile("b_2", SessionFile, sampleSession)
	s.writeFile("a_1", SessionFile, sampleSession)
	s.Require().NoError(os.WriteFile(filepath.Join(s.root, "stray.json"), []byte("{}"), 0644))

	ids, err := s.store.ListIDs()
	s.NoError(err)
	s.Equal([]string{"a_1", "b_2"}, ids)
}

func (s *StoreSuite) TestGet() {
	s.writeFile("game1", SessionFile, sampleSession)

	rec, err := s.store.Get("game1")
	s.Require().NoError(err)
	s.Equal("game1", rec.ID)
	s.Equal("Learning Game", rec.SessionTitle)
	s.Equal("learn-the-realm", rec.SessionName)
	s.Len(rec.Days, 1)
	s.Len(rec.Days["1"].CharacterTurns[0].Actions, 2)
	s.Equal("P2", rec.CharacterToPlayer["Berserker"])
}

func (s *StoreSuite) TestGet_NotFound() {
	_, err := s.store.Get("missing")
	s.ErrorIs(err, ErrNotFound)

	s.Require().NoError(os.MkdirAll(filepath.Join(s.root, "empty"), 0750))
	_, err = s.store.Get("empty")
	s.ErrorIs(err, ErrNotFound)

	for _, id := range []string{"", ".", "..", "../etc", `a\b`} {
		_, err = s.store.Get(id)
		s.ErrorIs(err, ErrNotFound, "id %q", id)
	}
}

func (s *StoreSuite) TestGet_DefaultsMissingFields() {
	s.writeFile("bare", SessionFile, `{}`)

	rec, err := s.store.Get("bare")
	s.Require().NoError(err)
	s.NotNil(rec.Days)
	s.NotNil(rec.CharacterToPlayer)
	s.Equal("bare", rec.DisplayTitle())
}

func (s *StoreSuite) TestLoadAll_SkipsMalformed() {
	s.writeFile("good", SessionFile, sampleSession)
	s.writeFile("broken", SessionFile, `{"days": [`)
	s.Require().NoError(os.MkdirAll(filepath.Join(s.root, "no-file"), 0750))

	_, err := s.store.Get("broken")
	s.Error(err)
	s.NotErrorIs(err, ErrNotFound)

	entries, err := s.store.LoadAll()
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("good", entries[0].ID)
	s.False(entries[0].ModTime.IsZero())
}

func (s *StoreSuite) TestLoad_ReparsesChangedFile() {
	path := s.writeFile("game1", SessionFile, sampleSession)

	rec, err := s.store.Get("game1")
	s.Require().NoError(err)
	s.Equal("Learning Game", rec.SessionTitle)

	s.Require().NoError(os.WriteFile(path, []byte(`{"sessionTitle": "Renamed Game"}`), 0644))
	later := time.Now().Add(time.Minute)
	s.Require().NoError(os.Chtimes(path, later, later))

	rec, err = s.store.Get("game1")
	s.Require().NoError(err)
	s.Equal("Renamed Game", rec.SessionTitle)
}

func (s *StoreSuite) TestFinalScores() {
	s.writeFile("game1", ScoresFile, `{"Amazon": {"totalScore": -2, "isDead": true}}`)
	s.writeFile("game2", ScoresFile, `not json`)

	scores := s.store.FinalScores("game1")
	s.Equal(int64(-2), scores.ScoreFor("Amazon"))
	s.True(scores["Amazon"].IsDead)

	s.Empty(s.store.FinalScores("game2"))
	s.Empty(s.store.FinalScores("missing"))
	s.Empty(s.store.FinalScores("../escape"))
}

func (s *StoreSuite) TestReassign() {
	path := s.writeFile("S", SessionFile, sampleSession)
	now := time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC)

	res, err := s.store.reassignAt("S", "Amazon", "P3", now)
	s.Require().NoError(err)
	s.Equal("P1", res.PreviousPlayer)
	s.Equal("P3", res.NewPlayer)
	s.Equal(filepath.Join(s.root, "S", "parsed_session.backup-20260314T150926.535897932Z.json"), res.BackupPath)

	backup, err := os.ReadFile(res.BackupPath)
	s.Require().NoError(err)
	s.Equal(sampleSession, string(backup))

	rec, err := s.store.Get("S")
	s.Require().NoError(err)
	s.Equal(map[string]string{"Amazon": "P3", "Berserker": "P2"}, rec.CharacterToPlayer)
	s.Equal("Learning Game", rec.SessionTitle)
	s.Len(rec.Days, 1)

	var doc map[string]interface{}
	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal(data, &doc))
	s.Equal(map[string]interface{}{"parser": "v2"}, doc["notes"])
}

func (s *StoreSuite) TestReassign_CharacterNotFound() {
	path := s.writeFile("S", SessionFile, `{"characterToPlayer": {"Alice": "P1"}}`)

	_, err := s.store.Reassign("S", "Bob", "P2")
	s.ErrorIs(err, ErrCharacterNotFound)

	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Equal(`{"characterToPlayer": {"Alice": "P1"}}`, string(data))

	files, err := os.ReadDir(filepath.Join(s.root, "S"))
	s.Require().NoError(err)
	s.Len(files, 1, "no backup should be written")
}

func (s *StoreSuite) TestReassign_SessionNotFound() {
	_, err := s.store.Reassign("nope", "Alice", "P2")
	s.ErrorIs(err, ErrNotFound)
}

func TestReassign_SingleCharacter(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "S"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "S", SessionFile), []byte(`{"characterToPlayer":{"Alice":"P1"}}`), 0644))

	store := NewStore(root)
	res, err := store.Reassign("S", "Alice", "P2")
	require.NoError(t, err)

	rec, err := store.Get("S")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Alice": "P2"}, rec.CharacterToPlayer)
	assert.FileExists(t, res.BackupPath)
	assert.WithinDuration(t, time.Now(), res.At, time.Minute)
}

func (s *StoreSuite) TestLoadAll_DropsDeletedSessionsFromCache() {
	s.writeFile("a_1", SessionFile, sampleSession)
	s.writeFile("b_2", SessionFile, sampleSession)

	entries, err := s.store.LoadAll()
	s.Require().NoError(err)
	s.Len(entries, 2)
	s.Len(s.store.cache, 2)

	s.Require().NoError(os.RemoveAll(filepath.Join(s.root, "b_2")))

	entries, err = s.store.LoadAll()
	s.Require().NoError(err)
	s.Len(entries, 1)
	s.Len(s.store.cache, 1)
	s.Contains(s.store.cache, "a_1")
}

func (s *StoreSuite) TestGet_DeletedSessionFileDropsCache() {
	path := s.writeFile("a_1", SessionFile, sampleSession)
	_, err := s.store.Get("a_1")
	s.Require().NoError(err)

	s.Require().NoError(os.Remove(path))
	_, err = s.store.Get("a_1")
	s.ErrorIs(err, ErrNotFound)
	s.NotContains(s.store.cache, "a_1")
}

// Package sessions reads parsed game-session records from the sessions directory.
package sessions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/realmstats/pkg/models"
)

const (
	// SessionFile is the parsed session document inside a session folder.
	SessionFile = "parsed_session.json"
	// ScoresFile is the optional final scores document inside a session folder.
	ScoresFile = "final_scores.json"
)

var (
	// ErrNotFound is returned when a session folder or its session file is absent.
	ErrNotFound = errors.New("session not found")
	// ErrCharacterNotFound is returned when a character is not part of a session.
	ErrCharacterNotFound = errors.New("character not found in session")
)

// Entry is a loaded session together with its backing file modification time.
type Entry struct {
	ID      string
	Record  *models.SessionRecord
	ModTime time.Time
}

type cachedRecord struct {
	modTime time.Time
	size    int64
	record  *models.SessionRecord
}

// Store reads session records from a root directory of session folders.
// Parsed records are cached per file and re-read when the file's mtime or size changes.
type Store struct {
	root string

	mu    sync.Mutex
	cache map[string]cachedRecord

	writeMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{
		root:  dir,
		cache: make(map[string]cachedRecord),
		locks: make(map[string]*sync.Mutex),
	}
}

// ListIDs returns the names of the session folders under the root.
// A missing root yields an empty list.
func (s *Store) ListIDs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Get returns the session record with the given id.
func (s *Store) Get(id string) (*models.SessionRecord, error) {
	entry, err := s.load(id)
	if err != nil {
		return nil, err
	}
	return entry.Record, nil
}

// Entry returns the session record with its modification time.
func (s *Store) Entry(id string) (*Entry, error) {
	return s.load(id)
}

// LoadAll loads every session under the root. Folders without a session file are
// ignored and malformed session files are skipped with a warning.
func (s *Store) LoadAll() ([]Entry, error) {
	ids, err := s.ListIDs()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.load(id)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Warn().Err(err).Str("session", id).Msg("Skipping unreadable session")
			}
			continue
		}
		entries = append(entries, *entry)
	}
	s.prune(ids)
	return entries, nil
}

// prune drops cached records for sessions that are no longer listed.
func (s *Store) prune(ids []string) {
	live := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		live[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.cache {
		if _, ok := live[id]; !ok {
			delete(s.cache, id)
		}
	}
}

// FinalScores returns the session's final scores. A missing file yields an empty map;
// a malformed file is logged and treated as empty.
func (s *Store) FinalScores(id string) models.FinalScores {
	path, ok := s.filePath(id, ScoresFile)
	if !ok {
		return models.FinalScores{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("session", id).Str("path", path).Msg("Failed to read final scores")
		}
		return models.FinalScores{}
	}

	var scores models.FinalScores
	if err := json.Unmarshal(data, &scores); err != nil {
		log.Warn().Err(err).Str("session", id).Str("path", path).Msg("Malformed final scores, ignoring")
		return models.FinalScores{}
	}
	if scores == nil {
		scores = models.FinalScores{}
	}
	return scores
}

func (s *Store) load(id string) (*Entry, error) {
	path, ok := s.filePath(id, SessionFile)
	if !ok {
		return nil, ErrNotFound
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.invalidate(id)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat session %s: %w", id, err)
	}

	s.mu.Lock()
	cached, hit := s.cache[id]
	s.mu.Unlock()
	if hit && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return &Entry{ID: id, Record: cached.record, ModTime: cached.modTime}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	record, err := decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("parse session %s: %w", id, err)
	}
	record.ID = id

	s.mu.Lock()
	s.cache[id] = cachedRecord{modTime: info.ModTime(), size: info.Size(), record: record}
	s.mu.Unlock()

	return &Entry{ID: id, Record: record, ModTime: info.ModTime()}, nil
}

func (s *Store) invalidate(id string) {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
}

// filePath resolves a file inside a session folder, rejecting ids that escape the root.
func (s *Store) filePath(id, name string) (string, bool) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", false
	}
	return filepath.Join(s.root, id, name), true
}

func decodeRecord(data []byte) (*models.SessionRecord, error) {
	var record models.SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	if record.Days == nil {
		record.Days = map[string]models.DayRecord{}
	}
	if record.CharacterToPlayer == nil {
		record.CharacterToPlayer = map[string]string{}
	}
	return &record, nil
}

package sessions

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const backupTimeLayout = "20060102T150405.000000000Z"

// ReassignResult describes a completed reassignment.
type ReassignResult struct {
	SessionID      string    `json:"sessionId"`
	Character      string    `json:"character"`
	PreviousPlayer string    `json:"previousPlayer"`
	NewPlayer      string    `json:"newPlayer"`
	BackupPath     string    `json:"backupPath"`
	At             time.Time `json:"at"`
}

// Reassign changes the player controlling character in session id.
// The current file is copied to a timestamped backup before it is rewritten;
// every other field of the document is preserved.
func (s *Store) Reassign(id, character, player string) (*ReassignResult, error) {
	return s.reassignAt(id, character, player, time.Now().UTC())
}

func (s *Store) reassignAt(id, character, player string, now time.Time) (*ReassignResult, error) {
	path, ok := s.filePath(id, SessionFile)
	if !ok {
		return nil, ErrNotFound
	}

	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat session %s: %w", id, err)
	}
	original, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(original, &doc); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", id, err)
	}
	var mapping map[string]string
	if raw, ok := doc["characterToPlayer"]; ok {
		if err := json.Unmarshal(raw, &mapping); err != nil {
			return nil, fmt.Errorf("parse characterToPlayer in %s: %w", id, err)
		}
	}
	previous, ok := mapping[character]
	if !ok {
		return nil, ErrCharacterNotFound
	}

	mapping[character] = player
	raw, err := json.Marshal(mapping)
	if err != nil {
		return nil, fmt.Errorf("encode characterToPlayer: %w", err)
	}
	doc["characterToPlayer"] = raw

	updated, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", id, err)
	}

	backup := filepath.Join(filepath.Dir(path), "parsed_session.backup-"+now.Format(backupTimeLayout)+".json")
	if err := os.WriteFile(backup, original, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("write backup for %s: %w", id, err)
	}
	if err := writeFileAtomic(path, updated, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("write session %s: %w", id, err)
	}
	s.invalidate(id)

	log.Info().
		Str("session", id).
		Str("character", character).
		Str("from", previous).
		Str("to", player).
		Str("backup", backup).
		Msg("Character reassigned")

	return &ReassignResult{
		SessionID:      id,
		Character:      character,
		PreviousPlayer: previous,
		NewPlayer:      player,
		BackupPath:     backup,
		At:             now,
	}, nil
}

// sessionLock returns the in-process write lock for a session.
func (s *Store) sessionLock(id string) *sync.Mutex {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".parsed_session-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

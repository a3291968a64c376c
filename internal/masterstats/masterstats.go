// Package masterstats loads the cross-session master stats document built by the stats builder.
package masterstats

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/thebtf/realmstats/pkg/models"
)

// ErrNotFound is returned when the master stats file does not exist.
var ErrNotFound = errors.New("master stats not found")

// Loader reads the master stats file, reusing the parsed document until the file changes.
type Loader struct {
	path  string
	group singleflight.Group

	mu      sync.RWMutex
	doc     *models.MasterStats
	modTime time.Time
	size    int64
}

// NewLoader creates a loader for the master stats file at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load returns the current master stats document.
func (l *Loader) Load() (*models.MasterStats, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat master stats: %w", err)
	}

	l.mu.RLock()
	if l.doc != nil && l.modTime.Equal(info.ModTime()) && l.size == info.Size() {
		doc := l.doc
		l.mu.RUnlock()
		return doc, nil
	}
	l.mu.RUnlock()

	v, err, _ := l.group.Do(l.path, func() (interface{}, error) {
		return l.reload()
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.MasterStats), nil
}

func (l *Loader) reload() (*models.MasterStats, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat master stats: %w", err)
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read master stats: %w", err)
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse master stats: %w", err)
	}

	l.mu.Lock()
	l.doc = doc
	l.modTime = info.ModTime()
	l.size = info.Size()
	l.mu.Unlock()

	log.Debug().
		Str("path", l.path).
		Int("characters", len(doc.Characters)).
		Int("sessions", len(doc.Sessions)).
		Msg("Master stats loaded")
	return doc, nil
}

// Decode parses a master stats document and fills absent mappings with empty ones.
func Decode(data []byte) (*models.MasterStats, error) {
	var doc models.MasterStats
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Characters == nil {
		doc.Characters = map[string]models.CharacterStats{}
	}
	for name, cs := range doc.Characters {
		if cs.Killers == nil {
			cs.Killers = map[string]int{}
		}
		if cs.Killed == nil {
			cs.Killed = map[string]int{}
		}
		if cs.Games == nil {
			cs.Games = []models.CharacterGame{}
		}
		doc.Characters[name] = cs
	}
	if doc.Sessions == nil {
		doc.Sessions = []models.MasterSession{}
	}
	if doc.Treasures.ByCharacter == nil {
		doc.Treasures.ByCharacter = map[string]json.RawMessage{}
	}
	if doc.Monsters.KilledByCharacter == nil {
		doc.Monsters.KilledByCharacter = map[string]json.RawMessage{}
	}
	return &doc, nil
}

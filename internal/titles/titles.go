// Package titles reads human-authored session title overrides.
package titles

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Override replaces a session's generated display name.
type Override struct {
	MainTitle string `json:"mainTitle" yaml:"mainTitle"`
	Subtitle  string `json:"subtitle" yaml:"subtitle"`
}

// Lookup resolves an override for a session id.
type Lookup func(sessionID string) (Override, bool)

// Store holds title overrides keyed by session id or session id prefix.
type Store struct {
	byKey    map[string]Override
	byPrefix map[string]Override
}

// Load reads overrides from path. JSON is expected unless the extension is .yml or .yaml.
// A missing file yields an empty store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("read titles: %w", err)
	}

	overrides := map[string]Override{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &overrides)
	default:
		err = json.Unmarshal(data, &overrides)
	}
	if err != nil {
		return nil, fmt.Errorf("parse titles %s: %w", path, err)
	}
	return New(overrides), nil
}

// New builds a store from a key to override mapping.
// When several keys share a prefix, the lexically smallest key serves prefix lookups.
func New(overrides map[string]Override) *Store {
	s := &Store{
		byKey:    make(map[string]Override, len(overrides)),
		byPrefix: make(map[string]Override, len(overrides)),
	}
	owner := make(map[string]string, len(overrides))
	for key, o := range overrides {
		s.byKey[key] = o
		p := Prefix(key)
		if cur, ok := owner[p]; ok && cur < key {
			continue
		}
		owner[p] = key
		s.byPrefix[p] = o
	}
	return s
}

// Len returns the number of overrides.
func (s *Store) Len() int {
	return len(s.byKey)
}

// Lookup matches the full session id against override keys.
func (s *Store) Lookup(sessionID string) (Override, bool) {
	o, ok := s.byKey[sessionID]
	return o, ok
}

// LookupPrefix truncates both the override keys and sessionID at the first '_'
// and compares the results. Used for session ids of the form <name>_<timestamp>.
func (s *Store) LookupPrefix(sessionID string) (Override, bool) {
	o, ok := s.byPrefix[Prefix(sessionID)]
	return o, ok
}

// Prefix returns id up to its first '_'.
func Prefix(id string) string {
	if i := strings.IndexByte(id, '_'); i >= 0 {
		return id[:i]
	}
	return id
}

package gorm

import (
	"context"
	"fmt"
)

// DefaultListLimit bounds List when no limit is given.
const DefaultListLimit = 50

// ReassignmentStore records and lists character reassignments.
type ReassignmentStore struct {
	store *Store
}

// NewReassignmentStore creates a new reassignment store.
func NewReassignmentStore(store *Store) *ReassignmentStore {
	return &ReassignmentStore{store: store}
}

// Record stores a reassignment and returns its id.
func (s *ReassignmentStore) Record(ctx context.Context, r *Reassignment) (int64, error) {
	if err := s.store.DB.WithContext(ctx).Create(r).Error; err != nil {
		return 0, fmt.Errorf("record reassignment: %w", err)
	}
	return r.ID, nil
}

// List returns the most recent reassignments, optionally restricted to one session.
func (s *ReassignmentStore) List(ctx context.Context, sessionID string, limit int) ([]Reassignment, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := s.store.DB.WithContext(ctx).Model(&Reassignment{})
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}

	out := []Reassignment{}
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list reassignments: %w", err)
	}
	return out, nil
}

package models

import (
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// Score is a signed integer score. Zero and negative values are valid scores;
// Valid is false only when the source value was missing, null or non-numeric.
type Score struct {
	Value int64
	Valid bool
}

// NewScore returns a valid score.
func NewScore(v int64) Score {
	return Score{Value: v, Valid: true}
}

// UnmarshalJSON accepts any JSON value. Numbers become valid scores, everything else is invalid.
func (s *Score) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n, ok := v.(float64)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		*s = Score{}
		return nil
	}
	*s = Score{Value: int64(math.Round(n)), Valid: true}
	return nil
}

// MarshalJSON writes the integer value, or null for an invalid score.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(s.Value, 10)), nil
}

// Package ordering holds the index arithmetic behind drag-to-reorder.
package ordering

import (
	"errors"
	"fmt"
)

var ErrOutOfRange = errors.New("index out of range")

// Move returns a copy of s with the element at from relocated to to. The
// input slice is not modified.
func Move[T any](s []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(s) {
		return nil, fmt.Errorf("%w: from=%d len=%d", ErrOutOfRange, from, len(s))
	}
	if to < 0 || to >= len(s) {
		return nil, fmt.Errorf("%w: to=%d len=%d", ErrOutOfRange, to, len(s))
	}
	out := make([]T, 0, len(s))
	out = append(out, s[:from]...)
	out = append(out, s[from+1:]...)
	out = append(out[:to], append([]T{s[from]}, out[to:]...)...)
	return out, nil
}

// IsPermutation reports whether got holds exactly the ids in want, each once.
func IsPermutation(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	seen := make(map[string]int, len(want))
	for _, id := range want {
		seen[id]++
	}
	for _, id := range got {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

// IndexOf returns the position of id in ids, or -1.
func IndexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

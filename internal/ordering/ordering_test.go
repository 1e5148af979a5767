package ordering

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove(t *testing.T) {
	src := []string{"a", "b", "c", "d"}

	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward", 0, 2, []string{"b", "c", "a", "d"}},
		{"backward", 3, 1, []string{"a", "d", "b", "c"}},
		{"to end", 1, 3, []string{"a", "c", "d", "b"}},
		{"to start", 2, 0, []string{"c", "a", "b", "d"}},
		{"same place", 2, 2, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Move(src, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"a", "b", "c", "d"}, src, "input must be untouched")
		})
	}
}

func TestMoveOutOfRange(t *testing.T) {
	_, err := Move([]int{1, 2}, 2, 0)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = Move([]int{1, 2}, 0, -1)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = Move([]int{}, 0, 0)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestIsPermutation(t *testing.T) {
	assert.True(t, IsPermutation([]string{"a", "b", "c"}, []string{"c", "a", "b"}))
	assert.True(t, IsPermutation(nil, []string{}))
	assert.False(t, IsPermutation([]string{"a", "b"}, []string{"a", "a"}))
	assert.False(t, IsPermutation([]string{"a", "b"}, []string{"a"}))
	assert.False(t, IsPermutation([]string{"a", "b"}, []string{"a", "z"}))
}

func TestIndexOf(t *testing.T) {
	assert.Equal(t, 1, IndexOf([]string{"a", "b"}, "b"))
	assert.Equal(t, -1, IndexOf([]string{"a", "b"}, "z"))
}

package pkguid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDVersions(t *testing.T) {
	tests := []struct {
		name string
		gen  *UUID
		want uuid.Version
	}{
		{name: "time ordered", gen: NewTimeUUID(), want: 7},
		{name: "random", gen: NewRandomUUID(), want: 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := uuid.Parse(tc.gen.Generate())
			require.NoError(t, err)
			assert.Equal(t, tc.want, id.Version())
			assert.Equal(t, uuid.RFC4122, id.Variant())
		})
	}
}

func TestRandomUUIDUnique(t *testing.T) {
	gen := NewRandomUUID()
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id := gen.Generate()
		_, dup := seen[id]
		require.False(t, dup, "duplicate key %s", id)
		seen[id] = struct{}{}
	}
}

func TestTimeUUIDSortsByCreation(t *testing.T) {
	gen := NewTimeUUID()
	// the first 48 bits hold the unix millisecond timestamp
	prev := gen.Generate()[:13]
	for range 100 {
		next := gen.Generate()[:13]
		assert.LessOrEqual(t, prev, next)
		prev = next
	}
}

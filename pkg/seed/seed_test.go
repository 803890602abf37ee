package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	assert.Equal(t, Hash("TAG-001-2025-03-14"), Hash("TAG-001-2025-03-14"))
	assert.NotEqual(t, Hash("TAG-001-2025-03-14"), Hash("TAG-002-2025-03-14"))
	assert.GreaterOrEqual(t, Hash("anything"), int64(0))
	assert.Equal(t, int64(0), Hash(""))
}

func TestUnitRange(t *testing.T) {
	for s := int64(0); s < 2000; s++ {
		v := Unit(s)
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestBetween(t *testing.T) {
	for s := int64(0); s < 500; s++ {
		v := Between(s, -2.4, 2.4)
		require.GreaterOrEqual(t, v, -2.4)
		require.Less(t, v, 2.4)
	}
	assert.Equal(t, Between(42, -2.4, 2.4), Between(42, -2.4, 2.4))
}

func TestChoice(t *testing.T) {
	assert.Equal(t, "", Choice(nil, 9))
	items := []string{"a", "b", "c"}
	got := Choice(items, 7)
	assert.Contains(t, items, got)
	assert.Equal(t, got, Choice(items, 7))
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAddRemoveCard(t *testing.T) {
	e, _ := newTestEngine(t, Config{})

	n, err := e.SAdd("ns", "S", "a", "b", "a")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "duplicate member within one call counts once")

	card, err := e.SCard("ns", "S")
	require.NoError(t, err)
	assert.Equal(t, 2, card)

	ok, err := e.SIsMember("ns", "S", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := e.SRem("ns", "S", "a", "missing")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestSetPopRemovesMember(t *testing.T) {
	e, _ := newTestEngine(t, Config{})
	e.SAdd("ns", "S", "only")

	m, ok, err := e.SPop("ns", "S")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "only", m)

	card, _ := e.SCard("ns", "S")
	assert.Equal(t, 0, card)
}

package aof

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/cachegrid/internal/engine"
)

func TestCompactReproducesKeyspace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.aof")

	eng := newTestEngine()
	_, err := eng.Set("default", "str", []byte("hello"), engine.SetOptions{})
	require.NoError(t, err)
	_, err = eng.HSet("default", "h", "f1", []byte("v1"))
	require.NoError(t, err)
	_, err = eng.RPush("default", "L", []byte("a"), []byte("b"))
	require.NoError(t, err)
	_, err = eng.SAdd("default", "s", "m1", "m2")
	require.NoError(t, err)
	_, err = eng.ZAdd("default", "z", map[string]float64{"member": 2.5})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("stale garbage that should be replaced\n"), 0o644))

	n, err := Compact(path, eng, time.Now)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	replayed := newTestEngine()
	res, err := Replay(path, replayed)
	require.NoError(t, err)
	assert.Equal(t, n, res.Applied)
	assert.Equal(t, 0, res.Skipped)

	val, ok, err := replayed.Get("default", "str")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", string(val))

	fv, ok, err := replayed.HGet("default", "h", "f1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", string(fv))

	elems, err := replayed.LRange("default", "L", 0, -1)
	require.NoError(t, err)
	require.Len(t, elems, 2)

	members, err := replayed.SMembers("default", "s")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"m1", "m2"}, members)

	score, ok, err := replayed.ZScore("default", "z", "member")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.5, score)
}

func TestCompactPreservesRemainingTTL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.aof")

	eng := newTestEngine()
	opts := engine.SetOptions{TTL: time.Hour}
	_, err := eng.Set("default", "x", []byte("1"), opts)
	require.NoError(t, err)

	_, err = Compact(path, eng, time.Now)
	require.NoError(t, err)

	replayed := newTestEngine()
	_, err = Replay(path, replayed)
	require.NoError(t, err)
	assert.Greater(t, replayed.TTL("default", "x"), int64(0))
}

func TestCompactOmitsAbsentNamespaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.aof")
	eng := newTestEngine()

	n, err := Compact(path, eng, time.Now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

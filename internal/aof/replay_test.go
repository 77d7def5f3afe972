package aof

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/cachegrid/internal/engine"
)

func newTestEngine() *engine.Engine {
	return engine.New(engine.Config{MaxMemoryBytes: 1 << 20, Now: time.Now})
}

func TestReplayMissingFileIsFreshEngine(t *testing.T) {
	eng := newTestEngine()
	res, err := Replay(filepath.Join(t.TempDir(), "missing.aof"), eng)
	require.NoError(t, err)
	assert.Equal(t, ReplayResult{}, res)
}

func TestReplaySkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.aof")

	good := Encode(Record{Timestamp: time.Unix(0, 1), Op: OpSet, Namespace: "default", Key: "k", Args: [][]byte{[]byte("v")}})
	content := good + "\n" + "garbage-line-not-enough-fields" + "\n" + good + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	eng := newTestEngine()
	res, err := Replay(path, eng)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 1, res.Skipped)

	val, ok, err := eng.Get("default", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(val))
}

// TestReplayReproducesScenarioF matches the spec's crash-recovery scenario:
// SET x 1 EX 3600, HSET h f v, RPUSH L a b, then restart and replay.
func TestReplayReproducesScenarioF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.aof")

	w, err := Open(Config{Path: path, Policy: FsyncAlways})
	require.NoError(t, err)

	expiresAt := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	require.NoError(t, w.Append(Record{
		Timestamp: time.Unix(0, 1), Op: OpSet, Namespace: "default", Key: "x",
		Args: [][]byte{[]byte("1"), []byte(expiresAt)},
	}))
	require.NoError(t, w.Append(Record{
		Timestamp: time.Unix(0, 2), Op: OpHSet, Namespace: "default", Key: "h",
		Args: [][]byte{[]byte("f"), []byte("v")},
	}))
	require.NoError(t, w.Append(Record{
		Timestamp: time.Unix(0, 3), Op: OpRPush, Namespace: "default", Key: "L",
		Args: [][]byte{[]byte("a"), []byte("b")},
	}))
	require.NoError(t, w.Close())

	eng := newTestEngine()
	res, err := Replay(path, eng)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, 0, res.Skipped)

	val, ok, err := eng.Get("default", "x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(val))
	assert.Greater(t, eng.TTL("default", "x"), int64(0))

	fv, ok, err := eng.HGet("default", "h", "f")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(fv))

	elems, err := eng.LRange("default", "L", 0, -1)
	require.NoError(t, err)
	require.Len(t, elems, 2)
	assert.Equal(t, "a", string(elems[0]))
	assert.Equal(t, "b", string(elems[1]))
}

func TestReplayDelAndExpire(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.aof")
	expiresAt := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	content := Encode(Record{Timestamp: time.Unix(0, 1), Op: OpSet, Namespace: "default", Key: "a", Args: [][]byte{[]byte("1")}}) + "\n" +
		Encode(Record{Timestamp: time.Unix(0, 2), Op: OpSet, Namespace: "default", Key: "b", Args: [][]byte{[]byte("2")}}) + "\n" +
		Encode(Record{Timestamp: time.Unix(0, 3), Op: OpDel, Namespace: "default", Key: "a"}) + "\n" +
		Encode(Record{Timestamp: time.Unix(0, 4), Op: OpExpire, Namespace: "default", Key: "b", Args: [][]byte{[]byte(expiresAt)}}) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	eng := newTestEngine()
	res, err := Replay(path, eng)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Applied)

	_, ok, err := eng.Get("default", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	val, ok, err := eng.Get("default", "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", string(val))
	assert.Greater(t, eng.TTL("default", "b"), int64(0))
}

func TestReplaySetAddZAdd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.aof")
	content := Encode(Record{Timestamp: time.Unix(0, 1), Op: OpSAdd, Namespace: "default", Key: "s", Args: [][]byte{[]byte("x"), []byte("y")}}) + "\n" +
		Encode(Record{Timestamp: time.Unix(0, 2), Op: OpZAdd, Namespace: "default", Key: "z", Args: [][]byte{[]byte("1.5"), []byte("m1")}}) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	eng := newTestEngine()
	res, err := Replay(path, eng)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)

	members, err := eng.SMembers("default", "s")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, members)

	score, ok, err := eng.ZScore("default", "z", "m1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.5, score)
}

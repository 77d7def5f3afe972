package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArrayCommand(t *testing.T) {
	var p Parser
	p.Feed([]byte("*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"))

	cmd, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, cmd.Argv, 3)
	assert.Equal(t, "SET", string(cmd.Argv[0]))
	assert.Equal(t, "foo", string(cmd.Argv[1]))
	assert.Equal(t, "bar", string(cmd.Argv[2]))
}

func TestParseIncompleteFrame(t *testing.T) {
	var p Parser
	p.Feed([]byte("*3\r\n$3\r\nSET\r\n$3\r\nfo"))

	_, err := p.Parse()
	assert.ErrorIs(t, err, Incomplete)

	p.Feed([]byte("o\r\n$3\r\nbar\r\n"))
	cmd, err := p.Parse()
	require.NoError(t, err)
	assert.Equal(t, "foo", string(cmd.Argv[1]))
}

func TestParsePipelinedCommands(t *testing.T) {
	var p Parser
	p.Feed([]byte("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n"))

	first, err := p.Parse()
	require.NoError(t, err)
	assert.Equal(t, "PING", string(first.Argv[0]))

	second, err := p.Parse()
	require.NoError(t, err)
	assert.Equal(t, "PING", string(second.Argv[0]))

	_, err = p.Parse()
	assert.ErrorIs(t, err, Incomplete)
}

func TestParseInlineCommand(t *testing.T) {
	var p Parser
	p.Feed([]byte("PING\r\n"))

	cmd, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, cmd.Argv, 1)
	assert.Equal(t, "PING", string(cmd.Argv[0]))
}

func TestParseNullArrayAndBulk(t *testing.T) {
	var p Parser
	p.Feed([]byte("*-1\r\n"))
	cmd, err := p.Parse()
	require.NoError(t, err)
	assert.Empty(t, cmd.Argv)

	p.Feed([]byte("*2\r\n$3\r\nGET\r\n$-1\r\n"))
	cmd, err = p.Parse()
	require.NoError(t, err)
	require.Len(t, cmd.Argv, 2)
	assert.Nil(t, cmd.Argv[1])
}

// TestEncodeParseRoundTrip checks that encoding an argv as a RESP array and
// re-parsing it yields the original argv back (spec §8 property: framing
// round-trips byte for byte).
func TestEncodeParseRoundTrip(t *testing.T) {
	argv := [][]byte{[]byte("SET"), []byte("key"), []byte("value with spaces")}
	elems := make([]Value, len(argv))
	for i, a := range argv {
		elems[i] = BulkBytes(a)
	}
	encoded := Encode(Array(elems...))

	var p Parser
	p.Feed(encoded)
	cmd, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, cmd.Argv, len(argv))
	for i := range argv {
		assert.Equal(t, string(argv[i]), string(cmd.Argv[i]))
	}
}

package aof

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := Record{
		Timestamp: time.Unix(0, 1234567890),
		Op:        OpSet,
		Namespace: "default",
		Key:       "foo",
		Args:      [][]byte{[]byte("bar"), []byte("")},
	}
	line := Encode(rec)
	decoded, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, rec.Op, decoded.Op)
	assert.Equal(t, rec.Namespace, decoded.Namespace)
	assert.Equal(t, rec.Key, decoded.Key)
	assert.Equal(t, rec.Args, decoded.Args)
	assert.True(t, rec.Timestamp.Equal(decoded.Timestamp))
}

func TestDecodeMalformedLine(t *testing.T) {
	_, err := Decode("not-enough-fields")
	assert.Error(t, err)

	_, err = Decode("123|set|default|foo|not-valid-base64!!!")
	assert.Error(t, err)
}

func TestDecodeNoArgs(t *testing.T) {
	rec, err := Decode(Encode(Record{Timestamp: time.Unix(0, 1), Op: OpDel, Namespace: "ns", Key: "k"}))
	require.NoError(t, err)
	assert.Empty(t, rec.Args)
}

package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKeysAndValues(t *testing.T) {
	h := HashValue{
		"name": []byte("cachegrid"),
		"tier": []byte("standard"),
	}

	keys := h.Keys()
	vals := h.Values()
	assert.Len(t, keys, 2)
	assert.Len(t, vals, 2)

	for _, k := range keys {
		assert.Contains(t, h, k)
	}
}

func TestHashSizeBytes(t *testing.T) {
	h := HashValue{"f": []byte("v")}
	assert.True(t, h.SizeBytes() > int64(len("f")+len("v")))
}

func TestAsHashWrongType(t *testing.T) {
	_, err := AsHash(StringValue("not a hash"))
	require.Error(t, err)
}

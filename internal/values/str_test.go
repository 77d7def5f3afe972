package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringAppend(t *testing.T) {
	v := StringValue("hello")
	out, n := v.Append([]byte(" world"))
	assert.Equal(t, StringValue("hello world"), out)
	assert.Equal(t, 11, n)
}

func TestStringGetRange(t *testing.T) {
	v := StringValue("This is a string")

	assert.Equal(t, StringValue("This"), v.GetRange(0, 3))
	assert.Equal(t, StringValue("ing"), v.GetRange(-3, -1))
	assert.Equal(t, StringValue(v), v.GetRange(0, -1))
	assert.Equal(t, StringValue{}, StringValue{}.GetRange(0, -1))
}

func TestParseIntDefaultsToZero(t *testing.T) {
	n, err := ParseInt(StringValue{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestParseIntRejectsNonNumeric(t *testing.T) {
	_, err := ParseInt(StringValue("not-a-number"))
	require.Error(t, err)
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, StringValue("42"), FormatInt(42))
	assert.Equal(t, StringValue("-7"), FormatInt(-7))
}

func TestAsStringWrongType(t *testing.T) {
	_, err := AsString(HashValue{"f": []byte("v")})
	require.Error(t, err)

	s, err := AsString(nil)
	require.NoError(t, err)
	assert.Nil(t, s)
}

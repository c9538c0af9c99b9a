package hashid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	enc, err := New("test-salt", "ORD-")
	require.NoError(t, err)

	for _, id := range []uint{1, 2, 42, 100000} {
		number, err := enc.Encode(id)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(number, "ORD-"))
		assert.GreaterOrEqual(t, len(number), len("ORD-")+minLength)

		decoded, err := enc.Decode(number)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)

		decoded, err = enc.Decode(strings.ToLower(number))
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestDistinctSalts(t *testing.T) {
	a, err := New("salt-a", "ORD-")
	require.NoError(t, err)
	b, err := New("salt-b", "ORD-")
	require.NoError(t, err)

	na, _ := a.Encode(7)
	nb, _ := b.Encode(7)
	assert.NotEqual(t, na, nb)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	enc, err := New("test-salt", "ORD-")
	require.NoError(t, err)

	_, err = enc.Decode("ORD-!!!")
	assert.Error(t, err)
}

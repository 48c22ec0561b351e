package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitKeyRoundTrip(t *testing.T) {
	key := UnitKey{Building: "North", Floor: 3, Unit: "310A"}

	parsed, err := ParseUnitKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParseUnitKeyRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{"", "T", "T/2", "T/2/210/extra", "T/two/210"} {
		_, err := ParseUnitKey(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestCoalesceReturnsFirstNonZero(t *testing.T) {
	assert.Equal(t, 1280, Coalesce(0, 1280, 1920))
	assert.Equal(t, "set", Coalesce("", "set", "other"))
	assert.Equal(t, 0, Coalesce[int]())
}

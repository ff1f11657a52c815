package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierName(t *testing.T) {
	tier := func(v int) *int { return &v }

	assert.Equal(t, "Unknown", TierName(nil, ModeKZT))
	assert.Equal(t, "Death", TierName(tier(7), ModeKZT))

	// Tier 4 means different things on the two scales.
	assert.Equal(t, "Hard", TierName(tier(4), ModeKZT))
	assert.Equal(t, "Advanced", TierName(tier(4), ModeVNL))
	assert.Equal(t, "Advanced", TierName(tier(4), ModeCKZ))

	assert.Equal(t, "Impossible", TierName(tier(10), ModeVNL2))
	assert.Equal(t, "Unknown", TierName(tier(10), ModeKZT))
}

func TestTierFromCode(t *testing.T) {
	assert.Equal(t, 1, TierFromCode("very-easy"))
	assert.Equal(t, 4, TierFromCode("advanced"))
	assert.Equal(t, 10, TierFromCode("impossible"))
	assert.Equal(t, 0, TierFromCode("nope"))
	assert.Equal(t, 0, TierFromCode(""))
}

func TestModeExtended(t *testing.T) {
	assert.False(t, ModeKZT.Extended())
	assert.False(t, ModeVNL.Extended())
	assert.True(t, ModeCKZ.Extended())
	assert.True(t, ModeVNL2.Extended())
	assert.False(t, Mode("bogus").Valid())
}

package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogHasAllTiers(t *testing.T) {
	plans := DefaultCatalog()
	tiers := map[Tier]bool{}
	for _, p := range plans {
		tiers[p.Tier] = true
	}
	assert.True(t, tiers[TierStandard])
	assert.True(t, tiers[TierPremium])
	assert.True(t, tiers[TierTEE])
}

func TestCatalogGet(t *testing.T) {
	c := newCatalog(DefaultCatalog())
	p, ok := c.get("standard")
	require.True(t, ok)
	assert.Equal(t, TierStandard, p.Tier)

	_, ok = c.get("nonexistent")
	assert.False(t, ok)
}

func TestConfidentialPlanRequiresTEE(t *testing.T) {
	c := newCatalog(DefaultCatalog())
	p, ok := c.get("confidential")
	require.True(t, ok)
	assert.True(t, p.TEERequired)
	assert.Equal(t, TierTEE, p.Tier)
}

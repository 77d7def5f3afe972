package provisioning

// Tier names the service class a plan (and the node capacity backing it)
// belongs to (spec §4.8).
type Tier string

const (
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
	TierTEE      Tier = "tee"
)

// Plan is one entry of the static tiered-plan catalog (spec §4.8).
type Plan struct {
	ID             string
	Name           string
	Tier           Tier
	MaxMemoryMB    int64
	MaxKeys        int64
	MaxTTLSeconds  int64
	PricePerHour   int64 // smallest accounting unit, non-negative integer (spec §6)
	PricePerMonth  int64
	TEERequired    bool
	Features       []string
}

// DefaultCatalog returns the built-in plan set. Operators may supply their
// own via Config.Plans; this is only the out-of-the-box catalog.
func DefaultCatalog() []Plan {
	return []Plan{
		{
			ID: "free", Name: "Free", Tier: TierStandard,
			MaxMemoryMB: 32, MaxKeys: 10_000, MaxTTLSeconds: 86_400,
			PricePerHour: 0, PricePerMonth: 0,
			Features: []string{"shared-node"},
		},
		{
			ID: "standard", Name: "Standard", Tier: TierStandard,
			MaxMemoryMB: 256, MaxKeys: 1_000_000, MaxTTLSeconds: 604_800,
			PricePerHour: 5, PricePerMonth: 3_000,
			Features: []string{"replication-async"},
		},
		{
			ID: "premium", Name: "Premium", Tier: TierPremium,
			MaxMemoryMB: 2_048, MaxKeys: 50_000_000, MaxTTLSeconds: 2_592_000,
			PricePerHour: 40, PricePerMonth: 24_000,
			Features: []string{"replication-sync", "regional-routing"},
		},
		{
			ID: "confidential", Name: "Confidential", Tier: TierTEE,
			MaxMemoryMB: 512, MaxKeys: 5_000_000, MaxTTLSeconds: 604_800,
			PricePerHour: 80, PricePerMonth: 48_000,
			TEERequired: true,
			Features:    []string{"attestation", "replication-sync"},
		},
	}
}

// catalog indexes a plan slice by id for lookup.
type catalog struct {
	plans map[string]Plan
}

func newCatalog(plans []Plan) *catalog {
	c := &catalog{plans: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		c.plans[p.ID] = p
	}
	return c
}

func (c *catalog) get(id string) (Plan, bool) {
	p, ok := c.plans[id]
	return p, ok
}

func (c *catalog) all() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	return out
}

// Package tee wraps an Engine construction for tee-tier instances: it
// refuses to build one when no attestation blob is supplied, unless the
// hosting marble reports that it runs inside an enclave (spec §4.8, §6, §9 —
// "the cache core never validates its contents"). The blob itself is not
// stored on the engine.
package tee

import (
	"github.com/R3E-Network/cachegrid/infrastructure/errors"
	"github.com/R3E-Network/cachegrid/infrastructure/marble"
	"github.com/R3E-Network/cachegrid/internal/engine"
)

// Provider constructs tee-tier engines, setting each engine's TEEProvider
// tag to "marble".
type Provider struct {
	m *marble.Marble
}

// NewProvider wraps m (may be nil — simulation mode, attestation checks
// then rely solely on the caller-supplied blob).
func NewProvider(m *marble.Marble) *Provider {
	return &Provider{m: m}
}

// NewEngine builds an Engine tagged for the tee tier. attestation is the
// node's opaque blob accepted at registration/heartbeat time. An empty blob
// fails construction with AttestationFailed (spec §7) unless the provider's
// marble reports IsEnclave.
func (p *Provider) NewEngine(cfg engine.Config, attestation []byte) (*engine.Engine, error) {
	if len(attestation) == 0 && (p.m == nil || !p.m.IsEnclave()) {
		return nil, errors.AttestationFailed(errNoAttestation)
	}
	cfg.TEEProvider = "marble"
	return engine.New(cfg), nil
}

var errNoAttestation = attestationMissing("no attestation blob available for tee-tier instance")

type attestationMissing string

func (e attestationMissing) Error() string { return string(e) }

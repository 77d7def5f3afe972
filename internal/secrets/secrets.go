// Package secrets resolves the RESP AUTH password and node registration
// tokens from a chain of backends: environment, Marble-coordinator secrets,
// and optionally Azure Key Vault — mirroring config.EnvOrSecret's
// env/Marble fallback order but pluggable with a concrete cloud-backed
// source (spec.md doesn't name a source; SPEC_FULL's DOMAIN STACK supplies
// this as the real-SDK option).
package secrets

import (
	"context"

	"github.com/R3E-Network/cachegrid/infrastructure/config"
	"github.com/R3E-Network/cachegrid/infrastructure/marble"
)

// Source resolves a named secret, returning (value, found).
type Source interface {
	Resolve(ctx context.Context, name string) (string, bool)
}

// Chain tries each Source in order, returning the first hit.
type Chain struct {
	sources []Source
}

// NewChain builds a Chain trying sources in the given order.
func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

// Resolve returns the first match across the chain, or ("", false).
func (c *Chain) Resolve(ctx context.Context, name string) (string, bool) {
	for _, s := range c.sources {
		if v, ok := s.Resolve(ctx, name); ok {
			return v, ok
		}
	}
	return "", false
}

// EnvMarbleSource adapts config.EnvOrSecret (env var, falling back to a
// Marble coordinator secret) into a Source.
type EnvMarbleSource struct {
	Marble *marble.Marble
}

func (s EnvMarbleSource) Resolve(_ context.Context, name string) (string, bool) {
	v := config.EnvOrSecret(s.Marble, name, "")
	return v, v != ""
}

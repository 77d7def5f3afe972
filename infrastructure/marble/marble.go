// Package marble carries TEE attestation blobs for tee-tier instances.
//
// The cache core never inspects or validates attestation contents — it is an
// opaque pass-through accepted at node registration and refreshed on
// heartbeat (see provisioning.Node.Attestation). This package gives that
// opaque value a small, typed home plus the coordinator-style secret lookup
// config loaders expect.
package marble

import (
	"strings"
	"sync"
)

// Marble is an opaque TEE identity: an attestation blob plus whatever
// secrets a coordinator injected for the enclave it represents. The cache
// core only ever forwards it; it does not parse the blob.
type Marble struct {
	mu sync.RWMutex

	marbleType string
	uuid       string
	blob       []byte
	secrets    map[string][]byte
}

// Config configures a new Marble identity.
type Config struct {
	MarbleType string
	UUID       string
}

// New creates a Marble identity with no attestation blob yet; Refresh sets one.
func New(cfg Config) (*Marble, error) {
	return &Marble{
		marbleType: cfg.MarbleType,
		uuid:       cfg.UUID,
		secrets:    make(map[string][]byte),
	}, nil
}

// MarbleType returns the configured TEE service/tier tag.
func (m *Marble) MarbleType() string {
	if m == nil {
		return ""
	}
	return m.marbleType
}

// UUID returns the enclave instance identifier.
func (m *Marble) UUID() string {
	if m == nil {
		return ""
	}
	return m.uuid
}

// Report returns the raw attestation blob, or nil if none has been set.
// Named Report (rather than Blob) to match the attestation-hash helper's
// "try the report first" fallback order.
func (m *Marble) Report() []byte {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blob
}

// Refresh installs a new opaque attestation blob, e.g. on heartbeat.
func (m *Marble) Refresh(blob []byte) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = blob
}

// IsEnclave reports whether an attestation blob has actually been attached,
// i.e. this instance runs under a TEE rather than in simulation mode.
func (m *Marble) IsEnclave() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blob) > 0
}

// Secret returns a coordinator-injected secret by name.
func (m *Marble) Secret(name string) ([]byte, bool) {
	if m == nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.secrets[strings.TrimSpace(name)]
	return v, ok
}

// SetSecret installs a coordinator-injected secret. Used by tests and by the
// simulated coordinator in single-node deployments.
func (m *Marble) SetSecret(name string, value []byte) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[strings.TrimSpace(name)] = value
}

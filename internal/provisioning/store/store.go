package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/R3E-Network/cachegrid/internal/provisioning"
)

// Store persists provisioning node/instance metadata to Postgres via sqlx.
type Store struct {
	db *sqlx.DB
}

// Open connects to driverURL (a postgres:// DSN) and runs pending migrations.
func Open(driverURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", driverURL)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// New wraps an already-open sqlx.DB (used by tests against go-sqlmock).
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

type nodeRow struct {
	ID            string    `db:"id"`
	Address       string    `db:"address"`
	Endpoint      string    `db:"endpoint"`
	Region        string    `db:"region"`
	Tier          string    `db:"tier"`
	MaxMemoryMB   int64     `db:"max_memory_mb"`
	UsedMemoryMB  int64     `db:"used_memory_mb"`
	InstanceCount int       `db:"instance_count"`
	Attestation   []byte    `db:"attestation"`
	Status        string    `db:"status"`
	LastHeartbeat time.Time `db:"last_heartbeat"`
}

func fromNode(n provisioning.Node) nodeRow {
	return nodeRow{
		ID: n.ID, Address: n.Address, Endpoint: n.Endpoint, Region: n.Region,
		Tier: string(n.Tier), MaxMemoryMB: n.MaxMemoryMB, UsedMemoryMB: n.UsedMemoryMB,
		InstanceCount: n.InstanceCount, Attestation: n.Attestation,
		Status: string(n.Status), LastHeartbeat: n.LastHeartbeat,
	}
}

func (r nodeRow) toNode() provisioning.Node {
	return provisioning.Node{
		ID: r.ID, Address: r.Address, Endpoint: r.Endpoint, Region: r.Region,
		Tier: provisioning.Tier(r.Tier), MaxMemoryMB: r.MaxMemoryMB, UsedMemoryMB: r.UsedMemoryMB,
		InstanceCount: r.InstanceCount, Attestation: r.Attestation,
		Status: provisioning.NodeStatus(r.Status), LastHeartbeat: r.LastHeartbeat,
	}
}

// SaveNode upserts one node row.
func (s *Store) SaveNode(ctx context.Context, n provisioning.Node) error {
	row := fromNode(n)
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO provisioning_nodes (
			id, address, endpoint, region, tier, max_memory_mb, used_memory_mb,
			instance_count, attestation, status, last_heartbeat
		) VALUES (
			:id, :address, :endpoint, :region, :tier, :max_memory_mb, :used_memory_mb,
			:instance_count, :attestation, :status, :last_heartbeat
		)
		ON CONFLICT (id) DO UPDATE SET
			address = EXCLUDED.address,
			endpoint = EXCLUDED.endpoint,
			region = EXCLUDED.region,
			tier = EXCLUDED.tier,
			max_memory_mb = EXCLUDED.max_memory_mb,
			used_memory_mb = EXCLUDED.used_memory_mb,
			instance_count = EXCLUDED.instance_count,
			attestation = EXCLUDED.attestation,
			status = EXCLUDED.status,
			last_heartbeat = EXCLUDED.last_heartbeat
	`, row)
	return err
}

// LoadNodes returns every persisted node.
func (s *Store) LoadNodes(ctx context.Context) ([]provisioning.Node, error) {
	var rows []nodeRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM provisioning_nodes`); err != nil {
		return nil, err
	}
	out := make([]provisioning.Node, len(rows))
	for i, r := range rows {
		out[i] = r.toNode()
	}
	return out, nil
}

type instanceRow struct {
	ID        string    `db:"id"`
	Owner     string    `db:"owner"`
	PlanID    string    `db:"plan_id"`
	Namespace string    `db:"namespace"`
	NodeID    string    `db:"node_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func fromInstance(i provisioning.Instance) instanceRow {
	return instanceRow{
		ID: i.ID, Owner: i.Owner, PlanID: i.PlanID, Namespace: i.Namespace,
		NodeID: i.NodeID, Status: string(i.Status), CreatedAt: i.CreatedAt, ExpiresAt: i.ExpiresAt,
	}
}

func (r instanceRow) toInstance() provisioning.Instance {
	return provisioning.Instance{
		ID: r.ID, Owner: r.Owner, PlanID: r.PlanID, Namespace: r.Namespace,
		NodeID: r.NodeID, Status: provisioning.InstanceStatus(r.Status),
		CreatedAt: r.CreatedAt, ExpiresAt: r.ExpiresAt,
	}
}

// SaveInstance upserts one instance row.
func (s *Store) SaveInstance(ctx context.Context, inst provisioning.Instance) error {
	row := fromInstance(inst)
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO provisioning_instances (
			id, owner, plan_id, namespace, node_id, status, created_at, expires_at
		) VALUES (
			:id, :owner, :plan_id, :namespace, :node_id, :status, :created_at, :expires_at
		)
		ON CONFLICT (id) DO UPDATE SET
			owner = EXCLUDED.owner,
			plan_id = EXCLUDED.plan_id,
			namespace = EXCLUDED.namespace,
			node_id = EXCLUDED.node_id,
			status = EXCLUDED.status,
			expires_at = EXCLUDED.expires_at
	`, row)
	return err
}

// DeleteInstance removes a persisted instance row.
func (s *Store) DeleteInstance(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM provisioning_instances WHERE id = $1`, id)
	return err
}

// LoadInstances returns every persisted instance.
func (s *Store) LoadInstances(ctx context.Context) ([]provisioning.Instance, error) {
	var rows []instanceRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM provisioning_instances`); err != nil {
		return nil, err
	}
	out := make([]provisioning.Instance, len(rows))
	for i, r := range rows {
		out[i] = r.toInstance()
	}
	return out, nil
}

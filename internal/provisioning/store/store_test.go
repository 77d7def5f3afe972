package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/cachegrid/internal/provisioning"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestSaveNodeUpserts(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO provisioning_nodes").WillReturnResult(sqlmock.NewResult(0, 1))

	n := provisioning.Node{
		ID: "n1", Tier: provisioning.TierStandard, MaxMemoryMB: 100,
		Status: provisioning.NodeOnline, LastHeartbeat: time.Unix(0, 0),
	}
	require.NoError(t, s.SaveNode(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadNodesScansRows(t *testing.T) {
	s, mock := newMockStore(t)
	cols := []string{
		"id", "address", "endpoint", "region", "tier", "max_memory_mb", "used_memory_mb",
		"instance_count", "attestation", "status", "last_heartbeat",
	}
	mock.ExpectQuery("SELECT \\* FROM provisioning_nodes").WillReturnRows(
		sqlmock.NewRows(cols).AddRow("n1", "addr", "ep", "us-east", "standard", 100, 40, 2, []byte(nil), "online", time.Unix(0, 0)),
	)

	nodes, err := s.LoadNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "n1", nodes[0].ID)
	assert.Equal(t, provisioning.TierStandard, nodes[0].Tier)
	assert.Equal(t, int64(40), nodes[0].UsedMemoryMB)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveInstanceUpserts(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO provisioning_instances").WillReturnResult(sqlmock.NewResult(0, 1))

	inst := provisioning.Instance{
		ID: "i1", Owner: "owner-1", PlanID: "standard", Namespace: "ns-1",
		Status: provisioning.InstanceActive, CreatedAt: time.Unix(0, 0), ExpiresAt: time.Unix(1000, 0),
	}
	require.NoError(t, s.SaveInstance(context.Background(), inst))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteInstance(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM provisioning_instances").WithArgs("i1").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.DeleteInstance(context.Background(), "i1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadInstancesScansRows(t *testing.T) {
	s, mock := newMockStore(t)
	cols := []string{"id", "owner", "plan_id", "namespace", "node_id", "status", "created_at", "expires_at"}
	mock.ExpectQuery("SELECT \\* FROM provisioning_instances").WillReturnRows(
		sqlmock.NewRows(cols).AddRow("i1", "owner-1", "standard", "ns-1", "n1", "active", time.Unix(0, 0), time.Unix(1000, 0)),
	)

	instances, err := s.LoadInstances(context.Background())
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "i1", instances[0].ID)
	assert.Equal(t, provisioning.InstanceActive, instances[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

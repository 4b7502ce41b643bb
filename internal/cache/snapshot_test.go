package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pxilabs/pxi/internal/domain"
)

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Date:   "2026-03-10",
		Score:  54.0,
		Label:  "Neutral",
		Status: domain.StatusNeutral,
		Signal: domain.SignalState{
			Type:           domain.SignalReducedRisk,
			RiskAllocation: 0.65,
		},
		Stance:   domain.StanceRiskOn,
		Conflict: domain.ConflictNone,
	}
}

func TestSnapshotCache_StoreWritesDateAndLatestKeys(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewSnapshotCache(client)

	snap := testSnapshot()
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	mock.ExpectSet("pxi:snapshot:2026-03-10", payload, snapshotTTL).SetVal("OK")
	mock.ExpectSet("pxi:snapshot:latest", payload, snapshotTTL).SetVal("OK")

	require.NoError(t, c.Store(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotCache_LatestRoundTrip(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewSnapshotCache(client)

	snap := testSnapshot()
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	mock.ExpectGet("pxi:snapshot:latest").SetVal(string(payload))

	got, err := c.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.Score, got.Score)
	assert.Equal(t, snap.Signal.Type, got.Signal.Type)
}

func TestSnapshotCache_MissReturnsNil(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewSnapshotCache(client)

	mock.ExpectGet("pxi:snapshot:2026-03-09").RedisNil()

	got, err := c.At(context.Background(), "2026-03-09")
	require.NoError(t, err)
	assert.Nil(t, got)
}

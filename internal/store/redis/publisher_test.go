package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/rentals/internal/domain"
	"github.com/gosuda/rentals/internal/store"
	redisstore "github.com/gosuda/rentals/internal/store/redis"
)

func setupPublisher(t *testing.T) (*miniredis.Miniredis, *redisstore.Publisher) {
	t.Helper()

	mr := miniredis.RunT(t)
	p, err := redisstore.New(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return mr, p
}

func TestNew_PingFailure(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := redisstore.New(context.Background(), addr, "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.New: ping")
}

func TestNewSaveEvent(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("KST", 9*3600))
	ev := redisstore.NewSaveEvent("resources", map[domain.Kind]int{domain.KindTenant: 2}, 1, at)

	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, time.UTC, ev.SavedAt.Location())
	assert.True(t, ev.SavedAt.Equal(at))
	assert.Equal(t, "resources", ev.DataDir)
	assert.Equal(t, 2, ev.Counts[domain.KindTenant])
	assert.Equal(t, 1, ev.Orphans)

	other := redisstore.NewSaveEvent("resources", nil, 0, at)
	assert.NotEqual(t, ev.ID, other.ID)
}

func TestPublishSaved_StoresLastSave(t *testing.T) {
	t.Parallel()

	mr, p := setupPublisher(t)
	ctx := context.Background()

	ev := redisstore.NewSaveEvent("data", map[domain.Kind]int{domain.KindPayment: 3}, 0, time.Now())
	require.NoError(t, p.PublishSaved(ctx, ev))

	raw, err := mr.Get(redisstore.LastSaveKey)
	require.NoError(t, err)

	var stored map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, ev.ID.String(), stored["id"])
	assert.Equal(t, "data", stored["data_dir"])

	got, err := p.LastSave(ctx)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, 3, got.Counts[domain.KindPayment])
}

func TestLastSave_NotFound(t *testing.T) {
	t.Parallel()

	_, p := setupPublisher(t)

	_, err := p.LastSave(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLastSave_CorruptPayload(t *testing.T) {
	t.Parallel()

	mr, p := setupPublisher(t)
	require.NoError(t, mr.Set(redisstore.LastSaveKey, "{not json"))

	_, err := p.LastSave(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestSubscribe_ReceivesPublishedEvents(t *testing.T) {
	t.Parallel()

	mr, p := setupPublisher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, cleanup, err := p.Subscribe(ctx)
	require.NoError(t, err)
	defer cleanup()

	mr.Publish(redisstore.SavedChannel, "garbage")

	snap := store.NewSnapshot()
	snap.Tenants.Upsert(&domain.Tenant{Person: domain.Person{ID: "T1"}})
	snap.Orphans = []*domain.Payment{{ID: "P9"}}
	require.NoError(t, p.NotifySaved(ctx, "resources", snap))

	select {
	case ev := <-events:
		assert.Equal(t, "resources", ev.DataDir)
		assert.Equal(t, 1, ev.Counts[domain.KindTenant])
		assert.Equal(t, 0, ev.Counts[domain.KindHost])
		assert.Equal(t, 1, ev.Orphans)
	case <-ctx.Done():
		t.Fatal("timed out waiting for save event")
	}
}

func TestPublishSaved_ClosedClient(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	p := redisstore.NewWithClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	require.NoError(t, p.Close())

	err := p.PublishSaved(context.Background(), redisstore.NewSaveEvent("d", nil, 0, time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.Publisher.PublishSaved")
}

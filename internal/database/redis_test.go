package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client), mr
}

func TestRedis_LinkCache(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	_, ok, err := r.GetLink(ctx, "c1/invoices/INV-1.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.SetLink(ctx, "c1/invoices/INV-1.pdf", "https://signed", 30*time.Second))
	url, ok, err := r.GetLink(ctx, "c1/invoices/INV-1.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://signed", url)
	assert.Equal(t, 30*time.Second, mr.TTL("invoice:link:c1/invoices/INV-1.pdf"))

	mr.FastForward(31 * time.Second)
	_, ok, err = r.GetLink(ctx, "c1/invoices/INV-1.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_NumberReservation(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()
	clientA, clientB := uuid.New(), uuid.New()

	ok, err := r.Reserve(ctx, clientA, "INV-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Reserve(ctx, clientA, "INV-1")
	require.NoError(t, err)
	assert.False(t, ok, "second reservation of the same number must fail")

	ok, err = r.Reserve(ctx, clientB, "INV-1")
	require.NoError(t, err)
	assert.True(t, ok, "numbers are scoped per client")

	require.NoError(t, r.Release(ctx, clientA, "INV-1"))
	ok, err = r.Reserve(ctx, clientA, "INV-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedis_HealthCheck(t *testing.T) {
	r, mr := newTestRedis(t)
	require.NoError(t, r.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, r.HealthCheck(context.Background()))
}

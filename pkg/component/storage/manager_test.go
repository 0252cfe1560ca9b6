package storage

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/astramed/pkg/infra/pool"
)

type fakeClient struct {
	name    string
	pingErr error
	closed  atomic.Int32
	closeFn func()
}

func (f *fakeClient) Name() string                 { return f.name }
func (f *fakeClient) Ping(_ context.Context) error { return f.pingErr }
func (f *fakeClient) Close() error {
	f.closed.Add(1)
	if f.closeFn != nil {
		f.closeFn()
	}
	return nil
}

var _ Client = (*fakeClient)(nil)

func TestManager_Register(t *testing.T) {
	mgr := NewManager(nil)

	require.NoError(t, mgr.Register("milvus", &fakeClient{name: "milvus"}))
	assert.Equal(t, 1, mgr.Count())

	err := mgr.Register("milvus", &fakeClient{name: "milvus"})
	assert.ErrorIs(t, err, ErrClientAlreadyExists)

	assert.ErrorIs(t, mgr.Register("", &fakeClient{}), ErrInvalidConfig)
	assert.ErrorIs(t, mgr.Register("x", nil), ErrInvalidConfig)

	_, err = mgr.Get("redis")
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestManager_HealthCheckAll(t *testing.T) {
	hp, err := pool.NewPool("health", pool.HealthCheckPool, pool.HealthCheckPoolConfig())
	require.NoError(t, err)
	defer hp.Release()

	mgr := NewManager(hp)
	mgr.MustRegister("milvus", &fakeClient{name: "milvus"})
	mgr.MustRegister("redis", &fakeClient{name: "redis", pingErr: errors.New("connection refused")})

	statuses := mgr.HealthCheckAll(context.Background())
	require.Len(t, statuses, 2)
	assert.True(t, statuses["milvus"].Healthy)
	assert.False(t, statuses["redis"].Healthy)
	assert.Equal(t, "connection refused", statuses["redis"].ErrorString())
	assert.False(t, mgr.AllHealthy(context.Background()))

	single := mgr.HealthCheck(context.Background(), "missing")
	assert.False(t, single.Healthy)
}

func TestManager_CloseAllReverseOrder(t *testing.T) {
	mgr := NewManager(nil)
	var order []string
	a := &fakeClient{name: "a"}
	b := &fakeClient{name: "b"}
	a.closeFn = func() { order = append(order, "a") }
	b.closeFn = func() { order = append(order, "b") }
	mgr.MustRegister("a", a)
	mgr.MustRegister("b", b)

	require.NoError(t, mgr.CloseAll())
	assert.Equal(t, []string{"b", "a"}, order)
	assert.Equal(t, 0, mgr.Count())
	assert.Equal(t, []string{}, mgr.List())
}

package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"mentorlink/internal/engine"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConn struct {
	id string
}

func (c *testConn) ID() string             { return c.id }
func (c *testConn) Send(frame []byte) bool { return true }

func newRegistry(t *testing.T) *ActorRegistry {
	t.Helper()
	eng := engine.NewEngine(actor.NewActorSystem(), nil)
	t.Cleanup(eng.Stop)
	return NewActorRegistry(eng.Root(), eng.GetPresenceActor(), 5*time.Second)
}

func TestConnectThenDisconnect(t *testing.T) {
	registry := newRegistry(t)
	ctx := context.Background()
	conn := &testConn{id: "c1"}

	replaced, err := registry.Register(ctx, "u1", conn)
	require.NoError(t, err)
	assert.Nil(t, replaced)

	got, err := registry.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, conn, got)

	removed, err := registry.Unregister(ctx, "u1", conn)
	require.NoError(t, err)
	assert.True(t, removed)

	got, err = registry.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	online, err := registry.Online(ctx)
	require.NoError(t, err)
	assert.Empty(t, online)
}

func TestStaleDisconnectKeepsNewerConnection(t *testing.T) {
	registry := newRegistry(t)
	ctx := context.Background()
	old := &testConn{id: "old"}
	fresh := &testConn{id: "fresh"}

	_, _ = registry.Register(ctx, "u1", old)
	replaced, err := registry.Register(ctx, "u1", fresh)
	require.NoError(t, err)
	assert.Equal(t, old, replaced)

	removed, err := registry.Unregister(ctx, "u1", old)
	require.NoError(t, err)
	assert.False(t, removed)

	got, _ := registry.Lookup(ctx, "u1")
	assert.Equal(t, fresh, got)
}

func TestConcurrentRegistration(t *testing.T) {
	registry := newRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := &testConn{id: string(rune('A' + i%26))}
			account := []string{"a", "b", "c"}[i%3]
			_, err := registry.Register(ctx, account, conn)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	online, err := registry.Online(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, online)
}

func TestExpiredContext(t *testing.T) {
	registry := newRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctx, cancelDeadline := context.WithDeadline(ctx, time.Now().Add(-time.Second))
	defer cancelDeadline()

	_, err := registry.Lookup(ctx, "u1")
	assert.Error(t, err)
}

package actors

import (
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct{ id string }

func (c *fakeConn) ID() string             { return c.id }
func (c *fakeConn) Send(frame []byte) bool { return true }

func request(t *testing.T, system *actor.ActorSystem, pid *actor.PID, msg interface{}) interface{} {
	t.Helper()
	result, err := system.Root.RequestFuture(pid, msg, 5*time.Second).Result()
	require.NoError(t, err)
	return result
}

func TestPresenceLastConnectionWins(t *testing.T) {
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewPresenceActor(nil)
	}))

	first := &fakeConn{id: "c1"}
	second := &fakeConn{id: "c2"}

	res := request(t, system, pid, &RegisterConnMsg{AccountID: "u1", Conn: first}).(*RegisterResult)
	assert.Nil(t, res.Replaced)

	res = request(t, system, pid, &RegisterConnMsg{AccountID: "u1", Conn: second}).(*RegisterResult)
	assert.Equal(t, first, res.Replaced)

	// the old connection closing must not evict the new one
	removed := request(t, system, pid, &UnregisterConnMsg{AccountID: "u1", ConnID: "c1"})
	assert.Equal(t, false, removed)

	lookup := request(t, system, pid, &LookupConnMsg{AccountID: "u1"}).(*LookupResult)
	assert.Equal(t, second, lookup.Conn)

	removed = request(t, system, pid, &UnregisterConnMsg{AccountID: "u1", ConnID: "c2"})
	assert.Equal(t, true, removed)

	lookup = request(t, system, pid, &LookupConnMsg{AccountID: "u1"}).(*LookupResult)
	assert.Nil(t, lookup.Conn)
}

func TestPresenceListOnline(t *testing.T) {
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewPresenceActor(nil)
	}))

	request(t, system, pid, &RegisterConnMsg{AccountID: "b", Conn: &fakeConn{id: "1"}})
	request(t, system, pid, &RegisterConnMsg{AccountID: "a", Conn: &fakeConn{id: "2"}})

	online := request(t, system, pid, &ListOnlineMsg{})
	assert.Equal(t, []string{"a", "b"}, online)
}

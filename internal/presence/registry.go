// Package presence is the process-wide table of accounts holding a live
// realtime connection.
package presence

import (
	"context"
	"fmt"
	"time"

	"mentorlink/internal/engine/actors"
	"mentorlink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

type Conn = actors.Connection

// Registry maps an account to its single current connection. Registering a
// second connection for an account replaces the first.
type Registry interface {
	// Register returns the connection it displaced, if any.
	Register(ctx context.Context, accountID string, conn Conn) (Conn, error)
	// Unregister removes the entry only while it still belongs to conn.
	Unregister(ctx context.Context, accountID string, conn Conn) (bool, error)
	// Lookup returns nil when the account is offline.
	Lookup(ctx context.Context, accountID string) (Conn, error)
	Online(ctx context.Context) ([]string, error)
}

// ActorRegistry talks to the presence actor through request futures.
type ActorRegistry struct {
	root    *actor.RootContext
	pid     *actor.PID
	timeout time.Duration
}

func NewActorRegistry(root *actor.RootContext, pid *actor.PID, timeout time.Duration) *ActorRegistry {
	return &ActorRegistry{root: root, pid: pid, timeout: timeout}
}

func (r *ActorRegistry) Register(ctx context.Context, accountID string, conn Conn) (Conn, error) {
	res, err := request[*actors.RegisterResult](ctx, r, &actors.RegisterConnMsg{AccountID: accountID, Conn: conn})
	if err != nil {
		return nil, err
	}
	return res.Replaced, nil
}

func (r *ActorRegistry) Unregister(ctx context.Context, accountID string, conn Conn) (bool, error) {
	return request[bool](ctx, r, &actors.UnregisterConnMsg{AccountID: accountID, ConnID: conn.ID()})
}

func (r *ActorRegistry) Lookup(ctx context.Context, accountID string) (Conn, error) {
	res, err := request[*actors.LookupResult](ctx, r, &actors.LookupConnMsg{AccountID: accountID})
	if err != nil {
		return nil, err
	}
	return res.Conn, nil
}

func (r *ActorRegistry) Online(ctx context.Context) ([]string, error) {
	return request[[]string](ctx, r, &actors.ListOnlineMsg{})
}

// request bounds the actor round trip by both the configured timeout and ctx.
func request[T any](ctx context.Context, r *ActorRegistry, msg interface{}) (T, error) {
	var zero T
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return zero, utils.NewActorTimeoutError("presence", ctx.Err())
	}

	result, err := r.root.RequestFuture(r.pid, msg, timeout).Result()
	if err != nil {
		return zero, utils.NewActorTimeoutError("presence", err)
	}
	reply, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("presence: unexpected reply %T", result)
	}
	return reply, nil
}

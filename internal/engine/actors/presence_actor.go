package actors

import (
	"log/slog"
	"sort"

	"mentorlink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Connection is a live realtime connection as the presence table sees it.
// ID must be unique per connection, not per account.
type Connection interface {
	ID() string
	Send(frame []byte) bool
}

// Message types for PresenceActor
type (
	RegisterConnMsg struct {
		AccountID string
		Conn      Connection
	}

	// Removes the entry only if it still points at ConnID.
	UnregisterConnMsg struct {
		AccountID string
		ConnID    string
	}

	LookupConnMsg struct {
		AccountID string
	}

	ListOnlineMsg struct{}
)

type RegisterResult struct {
	Replaced Connection // previous connection of the account, if any
}

type LookupResult struct {
	Conn Connection
}

// PresenceActor owns the account -> connection table. Only the actor's
// goroutine touches the map.
type PresenceActor struct {
	online  map[string]Connection
	metrics *utils.MetricsCollector
}

func NewPresenceActor(metrics *utils.MetricsCollector) *PresenceActor {
	return &PresenceActor{
		online:  make(map[string]Connection),
		metrics: metrics,
	}
}

func (a *PresenceActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *RegisterConnMsg:
		a.handleRegister(context, msg)
	case *UnregisterConnMsg:
		a.handleUnregister(context, msg)
	case *LookupConnMsg:
		context.Respond(&LookupResult{Conn: a.online[msg.AccountID]})
	case *ListOnlineMsg:
		ids := make([]string, 0, len(a.online))
		for id := range a.online {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		context.Respond(ids)
	}
}

func (a *PresenceActor) handleRegister(context actor.Context, msg *RegisterConnMsg) {
	result := &RegisterResult{}
	if prev, ok := a.online[msg.AccountID]; ok && prev.ID() != msg.Conn.ID() {
		result.Replaced = prev
		slog.Debug("presence replaced", "account", msg.AccountID, "old", prev.ID(), "new", msg.Conn.ID())
	}
	a.online[msg.AccountID] = msg.Conn
	a.reportOnline()
	context.Respond(result)
}

func (a *PresenceActor) handleUnregister(context actor.Context, msg *UnregisterConnMsg) {
	current, ok := a.online[msg.AccountID]
	if !ok || current.ID() != msg.ConnID {
		// A newer connection owns the entry now.
		context.Respond(false)
		return
	}
	delete(a.online, msg.AccountID)
	a.reportOnline()
	context.Respond(true)
}

func (a *PresenceActor) reportOnline() {
	if a.metrics != nil {
		a.metrics.SetOnlineAccounts(len(a.online))
	}
}

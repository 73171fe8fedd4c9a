package engine

import (
	"mentorlink/internal/engine/actors"
	"mentorlink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine owns the long-lived actors of the process.
type Engine struct {
	system        *actor.ActorSystem
	presenceActor *actor.PID
}

func NewEngine(system *actor.ActorSystem, metrics *utils.MetricsCollector) *Engine {
	presenceProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewPresenceActor(metrics)
	})
	return &Engine{
		system:        system,
		presenceActor: system.Root.Spawn(presenceProps),
	}
}

// GetPresenceActor returns the PID of the presence actor
func (e *Engine) GetPresenceActor() *actor.PID {
	return e.presenceActor
}

func (e *Engine) Root() *actor.RootContext {
	return e.system.Root
}

// Stop halts the actors and waits for them to finish their mailboxes.
func (e *Engine) Stop() {
	_ = e.system.Root.StopFuture(e.presenceActor).Wait()
}

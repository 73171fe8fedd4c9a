package realtime

import (
	"context"
	"log/slog"

	"mentorlink/internal/api"
	"mentorlink/internal/messaging"
	"mentorlink/internal/presence"
	"mentorlink/internal/utils"
)

// Broadcaster reaches every local connection.
type Broadcaster interface {
	Broadcast(frame []byte, exceptConnID string)
}

// Relay carries events to other instances.
type Relay interface {
	Publish(ctx context.Context, env Envelope) error
}

// Dispatcher pushes events to whoever is online. Nothing is queued: an
// event for an offline account is dropped.
type Dispatcher struct {
	registry presence.Registry
	hub      Broadcaster
	relay    Relay
	metrics  *utils.MetricsCollector
	logger   *slog.Logger
}

func NewDispatcher(registry presence.Registry, hub Broadcaster, metrics *utils.MetricsCollector, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		hub:      hub,
		metrics:  metrics,
		logger:   logger.With("component", "dispatcher"),
	}
}

// UseRelay makes the dispatcher hand undeliverable events to other instances.
func (d *Dispatcher) UseRelay(relay Relay) {
	d.relay = relay
}

// SendTo delivers event to accountID if it is connected here, otherwise
// relays it when a relay is configured. An offline target is not an error.
func (d *Dispatcher) SendTo(ctx context.Context, accountID, event string, data interface{}) error {
	frame, err := Encode(event, data)
	if err != nil {
		return err
	}

	delivered, err := d.deliverLocal(ctx, accountID, frame)
	if err != nil {
		return err
	}
	switch {
	case delivered:
		d.record(event, "delivered")
	case d.relay != nil:
		if err := d.relay.Publish(ctx, Envelope{Target: accountID, Frame: frame}); err != nil {
			return err
		}
		d.record(event, "relayed")
	default:
		d.logger.Debug("recipient offline, event dropped", "event", event, "account", accountID)
		d.record(event, "dropped")
	}
	return nil
}

// BroadcastStatus tells every other connection that accountID went online or offline.
func (d *Dispatcher) BroadcastStatus(ctx context.Context, accountID string, online bool, exceptConnID string) error {
	status := StatusOffline
	if online {
		status = StatusOnline
	}
	frame, err := Encode(EventUserStatusChanged, StatusChanged{UserID: accountID, Status: status})
	if err != nil {
		return err
	}

	d.hub.Broadcast(frame, exceptConnID)
	d.record(EventUserStatusChanged, "delivered")
	if d.relay != nil {
		return d.relay.Publish(ctx, Envelope{Frame: frame})
	}
	return nil
}

// Deliver handles an envelope received from another instance. It is never re-relayed.
func (d *Dispatcher) Deliver(ctx context.Context, env Envelope) {
	if env.Target == "" {
		d.hub.Broadcast(env.Frame, "")
		return
	}
	if _, err := d.deliverLocal(ctx, env.Target, env.Frame); err != nil {
		d.logger.Warn("relayed delivery failed", "account", env.Target, "error", err)
	}
}

func (d *Dispatcher) deliverLocal(ctx context.Context, accountID string, frame []byte) (bool, error) {
	conn, err := d.registry.Lookup(ctx, accountID)
	if err != nil {
		return false, err
	}
	if conn == nil {
		return false, nil
	}
	if !conn.Send(frame) {
		d.logger.Warn("connection buffer full, event dropped", "account", accountID, "conn", conn.ID())
		return false, nil
	}
	return true, nil
}

func (d *Dispatcher) record(event, outcome string) {
	if d.metrics != nil {
		d.metrics.RecordEvent(event, outcome)
	}
}

// MessageHook pushes receive_message to the recipient after a send.
func (d *Dispatcher) MessageHook() messaging.SendHook {
	return messaging.SendHook{
		Name: "receive_message",
		Run: func(ctx context.Context, sent *messaging.SentMessage) error {
			return d.SendTo(ctx, sent.Message.RecipientID, EventReceiveMessage, api.NewSentMessageView(sent))
		},
	}
}

// ReadHook tells the original sender that their messages were read.
func (d *Dispatcher) ReadHook() messaging.ReadHook {
	return messaging.ReadHook{
		Name: "messages_marked_read",
		Run: func(ctx context.Context, receipt *messaging.ReadReceipt) error {
			return d.SendTo(ctx, receipt.SenderID, EventMessagesMarkedRead, MessagesMarkedRead{
				ReadBy:    receipt.ReaderID,
				Timestamp: receipt.At,
			})
		},
	}
}

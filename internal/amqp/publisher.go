package amqp

import (
	"context"
	"sync/atomic"
	"time"

	"weekum/internal/events"
	"weekum/internal/log"
)

// EventPublisher sends one message to the broker. *Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, msg *EventMessage) error
}

// Publisher is an events.Notifier that forwards ledger events to the broker
// from its own goroutine, so a slow or absent broker never stalls a ledger
// operation. Events that do not fit in the buffer are dropped and counted.
type Publisher struct {
	client  EventPublisher
	queue   chan events.Event
	logger  *log.Logger
	dropped atomic.Int64
}

const drainTimeout = 5 * time.Second

func NewPublisher(client EventPublisher, buffer int, logger *log.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Publisher{
		client: client,
		queue:  make(chan events.Event, buffer),
		logger: logger.WithComponent(log.ComponentAMQP),
	}
}

// Notify implements events.Notifier. It never blocks.
func (p *Publisher) Notify(ctx context.Context, ev events.Event) {
	select {
	case p.queue <- ev:
	default:
		p.dropped.Add(1)
		p.logger.WarnContext(ctx, "Event buffer full, dropping event",
			log.FieldEvent, ev.Type,
			"id", ev.ID)
	}
}

// Run publishes buffered events until ctx is done, then drains what is left.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("Event publisher started", log.FieldOperation, log.OpStartup)
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return nil
		case ev := <-p.queue:
			p.publish(ctx, ev)
		}
	}
}

func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	n := 0
	for {
		select {
		case ev := <-p.queue:
			p.publish(ctx, ev)
			n++
		default:
			p.logger.Info("Event publisher stopped",
				log.FieldOperation, log.OpShutdown,
				log.FieldCount, n)
			return
		}
	}
}

func (p *Publisher) publish(ctx context.Context, ev events.Event) {
	if err := p.client.Publish(ctx, NewEventMessage(ev)); err != nil {
		fields := log.NewFields().WithOperation(log.OpPublish).WithError(err).WithErrorType(log.ErrorTypeNetwork)
		fields[log.FieldEvent] = ev.Type.String()
		p.logger.ErrorContext(ctx, "Failed to publish event", fields.ToSlice()...)
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const DefaultTopic = "storefront-cart-activity"

// CartEvent is the message published for every cart change.
type CartEvent struct {
	SessionID  string    `json:"session_id"`
	Op         cart.Op   `json:"op"`
	ProductID  int64     `json:"product_id,omitempty"`
	Quantity   int       `json:"quantity"`
	ItemCount  int       `json:"item_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher ships cart changes to Kafka in the background.
// Enqueueing never blocks a cart operation: when the buffer is full the event is dropped.
type Publisher struct {
	writer    MessageWriter
	queue     chan CartEvent
	batchSize int
	timeout   time.Duration
	log       *zap.Logger
	now       func() time.Time

	closeOnce sync.Once
	done      chan struct{}
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewPublisher(w MessageWriter, bufferSize int, log *zap.Logger) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		writer:    w,
		queue:     make(chan CartEvent, bufferSize),
		batchSize: 100,
		timeout:   5 * time.Second,
		log:       log,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// For returns a cart subscriber that tags events with sessionID.
func (p *Publisher) For(sessionID string) cart.Subscriber {
	return cart.SubscriberFunc(func(c cart.Change) {
		p.Enqueue(CartEvent{
			SessionID:  sessionID,
			Op:         c.Op,
			ProductID:  c.ProductID,
			Quantity:   c.Quantity,
			ItemCount:  c.ItemCount,
			OccurredAt: p.now().UTC(),
		})
	})
}

// Enqueue reports false when the event was dropped.
func (p *Publisher) Enqueue(e CartEvent) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.queue <- e:
		return true
	default:
		p.log.Warn("cart event dropped, publish buffer full",
			zap.String("session_id", e.SessionID), zap.String("op", string(e.Op)))
		return false
	}
}

// Run writes queued events until ctx is done, then flushes what is left.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case e := <-p.queue:
			p.publish(p.drain(e))
		case <-ctx.Done():
			p.flush()
			return
		}
	}
}

// drain collects first plus whatever else is already queued, up to batchSize.
func (p *Publisher) drain(first CartEvent) []CartEvent {
	batch := []CartEvent{first}
	for len(batch) < p.batchSize {
		select {
		case e := <-p.queue:
			batch = append(batch, e)
		default:
			return batch
		}
	}
	return batch
}

func (p *Publisher) flush() {
	for {
		select {
		case e := <-p.queue:
			p.publish(p.drain(e))
		default:
			return
		}
	}
}

func (p *Publisher) publish(batch []CartEvent) {
	msgs := make([]kafka.Message, 0, len(batch))
	for _, e := range batch {
		value, err := json.Marshal(e)
		if err != nil {
			p.log.Error("failed to marshal cart event", zap.Error(err))
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.SessionID),
			Value: value,
			Time:  e.OccurredAt,
		})
	}
	if len(msgs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.log.Error("failed to publish cart events", zap.Int("count", len(msgs)), zap.Error(err))
	}
}

// Close stops accepting events and closes the writer. Call it after Run returned.
func (p *Publisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.writer.Close()
	})
	return err
}

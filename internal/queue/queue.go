// Package queue is the downstream delivery boundary: every normalized
// message is published to an at-least-once topic keyed by its transaction
// type (donation, refund, chargeback, recurring, payout). The in-memory
// implementation here is channel-backed and suitable for single-process use
// and tests; production deployments swap in a broker-backed Publisher.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/insightdelivered/audit-report-converter/internal/logger"
	"github.com/insightdelivered/audit-report-converter/internal/models"
)

// Topics published by the parser pipeline.
var Topics = []string{"donation", "refund", "chargeback", "recurring", "payout"}

// Delivery is one queued message plus its delivery bookkeeping.
type Delivery struct {
	ID       string
	Topic    string
	Message  models.Message
	Attempts int
}

// Handler processes one delivery. Returning an error requeues the delivery
// until MaxAttempts is reached.
type Handler func(ctx context.Context, d *Delivery) error

// Publisher is the interface the pipeline pushes messages through.
type Publisher interface {
	Publish(ctx context.Context, msg models.Message) error
	Close() error
}

// Queue is an in-memory Publisher with per-topic channels. Safe for
// concurrent use.
type Queue struct {
	mu          sync.RWMutex
	topics      map[string]chan *Delivery
	closeChan   chan struct{}
	wg          sync.WaitGroup
	closed      bool
	bufferSize  int
	maxAttempts int
}

// NewQueue creates an in-memory queue. bufferSize bounds each topic channel;
// Publish blocks when a topic is full.
func NewQueue(bufferSize int) *Queue {
	q := &Queue{
		topics:      make(map[string]chan *Delivery, len(Topics)),
		closeChan:   make(chan struct{}),
		bufferSize:  bufferSize,
		maxAttempts: 3,
	}
	for _, topic := range Topics {
		q.topics[topic] = make(chan *Delivery, bufferSize)
	}
	return q
}

// Publish routes a message to its topic with a fresh delivery id.
func (q *Queue) Publish(ctx context.Context, msg models.Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	topic := msg.QueueTopic()
	ch, ok := q.topics[topic]
	if !ok {
		return fmt.Errorf("unknown topic %q", topic)
	}

	d := &Delivery{
		ID:      uuid.New().String(),
		Topic:   topic,
		Message: msg,
	}

	select {
	case ch <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Consume starts a worker draining one topic through the handler. Failed
// deliveries are retried until maxAttempts, then dropped with an error log
// (at-least-once, not exactly-once: the handler must tolerate duplicates).
func (q *Queue) Consume(ctx context.Context, topic string, handler Handler) error {
	q.mu.RLock()
	ch, ok := q.topics[topic]
	closed := q.closed
	q.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown topic %q", topic)
	}
	if closed {
		return fmt.Errorf("queue is closed")
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-q.closeChan:
				return
			case d := <-ch:
				if d == nil {
					return
				}
				q.deliver(ctx, ch, d, handler)
			}
		}
	}()
	return nil
}

func (q *Queue) deliver(ctx context.Context, ch chan *Delivery, d *Delivery, handler Handler) {
	d.Attempts++
	err := handler(ctx, d)
	if err == nil {
		return
	}
	if d.Attempts >= q.maxAttempts {
		logger.L().Error().
			Str("delivery_id", d.ID).
			Str("topic", d.Topic).
			Int("attempts", d.Attempts).
			Err(err).
			Msg("dropping delivery after max attempts")
		return
	}
	select {
	case ch <- d:
	case <-ctx.Done():
	case <-q.closeChan:
	}
}

// Route fans a batch of messages through an in-memory queue and collects the
// deliveries by topic, preserving per-topic order. This is the CLI's
// per-topic output path; it also exercises the same Publish/Consume surface a
// broker-backed Publisher replaces.
func Route(ctx context.Context, messages []models.Message) (map[string][]models.Message, error) {
	q := NewQueue(len(messages) + 1)
	defer q.Close()

	var mu sync.Mutex
	var wg sync.WaitGroup
	byTopic := make(map[string][]models.Message, len(Topics))
	for _, topic := range Topics {
		err := q.Consume(ctx, topic, func(ctx context.Context, d *Delivery) error {
			mu.Lock()
			byTopic[d.Topic] = append(byTopic[d.Topic], d.Message)
			mu.Unlock()
			wg.Done()
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	for i := range messages {
		wg.Add(1)
		if err := q.Publish(ctx, messages[i]); err != nil {
			wg.Done()
			return nil, err
		}
	}
	wg.Wait()
	return byTopic, nil
}

// Len reports how many deliveries are waiting on a topic.
func (q *Queue) Len(topic string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.topics[topic])
}

// Close stops the queue and waits for consumers to exit.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

var _ Publisher = (*Queue)(nil)

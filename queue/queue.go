// Package queue is the bounded FIFO that carries records from any number of
// producers to the single consumer of an aggregator.
//
// The queue is never closed. The consumer stops when it reads the sentinel,
// and never because the queue happens to be empty.
package queue

import (
	"context"

	"github.com/morfien101/logorganizer/record"
)

// DefaultCapacity is used when a capacity of zero or less is requested.
const DefaultCapacity = 500

// item is either a record or the sentinel.
type item struct {
	rec  record.LogRecord
	stop bool
}

// Queue is a fixed capacity multi-producer single-consumer channel.
type Queue struct {
	items chan item
}

// New creates a queue that holds at most capacity items.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		items: make(chan item, capacity),
	}
}

// Put adds a record. It blocks while the queue is full.
func (q *Queue) Put(rec record.LogRecord) {
	q.items <- item{rec: rec}
}

// PutContext adds a record, blocking while the queue is full or until ctx is
// done.
func (q *Queue) PutContext(ctx context.Context, rec record.LogRecord) error {
	select {
	case q.items <- item{rec: rec}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PutSentinel queues the stop marker behind everything already queued. It
// blocks while the queue is full or until ctx is done. When there is room the
// marker is queued even if ctx is already done.
func (q *Queue) PutSentinel(ctx context.Context) error {
	select {
	case q.items <- item{stop: true}:
		return nil
	default:
	}
	select {
	case q.items <- item{stop: true}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get blocks until an item is available. ok is false when the item is the
// sentinel.
func (q *Queue) Get() (rec record.LogRecord, ok bool) {
	it := <-q.items
	if it.stop {
		return record.LogRecord{}, false
	}
	return it.rec, true
}

// Discard empties the queue without blocking and returns the number of
// records thrown away. Sentinels are not counted.
func (q *Queue) Discard() int {
	n := 0
	for {
		select {
		case it := <-q.items:
			if !it.stop {
				n++
			}
		default:
			return n
		}
	}
}

// Len is the number of items waiting.
func (q *Queue) Len() int {
	return len(q.items)
}

// Cap is the fixed capacity.
func (q *Queue) Cap() int {
	return cap(q.items)
}

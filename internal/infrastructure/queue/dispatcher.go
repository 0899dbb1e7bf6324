package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/swiftparcel/delivery-platform/internal/api/metrics"
	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes courier events to a fixed set of workers using consistent
// hashing on the order number, guaranteeing per-order event ordering.
type Dispatcher struct {
	workers []chan ports.CourierEventInput
	service ports.EventService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.EventService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.CourierEventInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.CourierEventInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its order number.
// It never blocks: when the shard's buffer is full the event is rejected and
// false is returned, so the HTTP handler can shed load instead of stalling.
func (d *Dispatcher) Enqueue(event ports.CourierEventInput) bool {
	i := d.shardIndex(event.OrderNumber)
	select {
	case d.workers[i] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(i)).Set(float64(len(d.workers[i])))
		return true
	default:
		metrics.EventsErrorsTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().
			Str("order_number", event.OrderNumber).
			Int("worker_id", i).
			Msg("event rejected, shard buffer full")
		return false
	}
}

// EnqueueBatch enqueues events in order and returns how many were accepted.
// It stops at the first rejection: accepting later events after dropping an
// earlier one would reorder the events of an order.
func (d *Dispatcher) EnqueueBatch(events []ports.CourierEventInput) int {
	for i, e := range events {
		if !d.Enqueue(e) {
			return i
		}
	}
	return len(events)
}

// shardIndex maps an order number deterministically to a worker index.
func (d *Dispatcher) shardIndex(orderNumber string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderNumber))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.CourierEventInput) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.service.Process(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("order_number", event.OrderNumber).
					Int("worker_id", id).
					Msg("event processing failed")
			}
			metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}

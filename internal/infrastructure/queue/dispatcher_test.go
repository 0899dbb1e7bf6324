package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

type recordingService struct {
	mu     sync.Mutex
	events []ports.CourierEventInput
}

func (s *recordingService) Process(_ context.Context, event ports.CourierEventInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingService) processed() []ports.CourierEventInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.CourierEventInput, len(s.events))
	copy(out, s.events)
	return out
}

func TestDispatcher_ProcessesEnqueuedEvents(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(2, svc, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	if ok := d.Enqueue(ports.CourierEventInput{OrderNumber: "SP-00000001", Status: "picked_up"}); !ok {
		t.Fatalf("enqueue rejected with empty buffers")
	}

	deadline := time.After(2 * time.Second)
	for len(svc.processed()) == 0 {
		select {
		case <-deadline:
			t.Fatalf("event never processed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDispatcher_SameOrderSameWorker(t *testing.T) {
	d := NewDispatcher(8, &recordingService{}, zerolog.Nop())

	first := d.shardIndex("SP-0000ABCD")
	for i := 0; i < 10; i++ {
		if d.shardIndex("SP-0000ABCD") != first {
			t.Fatalf("shard index not deterministic")
		}
	}
}

func TestDispatcher_FullShardRejectsInsteadOfBlocking(t *testing.T) {
	// Workers are never started, so the shard buffer can only drain by
	// rejecting. A blocking Enqueue would hang this test.
	d := NewDispatcher(1, &recordingService{}, zerolog.Nop())

	event := ports.CourierEventInput{OrderNumber: "SP-0000ABCD", Status: "picked_up"}
	for i := 0; i < channelBuffer; i++ {
		if !d.Enqueue(event) {
			t.Fatalf("enqueue %d rejected below capacity", i)
		}
	}

	done := make(chan bool, 1)
	go func() { done <- d.Enqueue(event) }()

	select {
	case ok := <-done:
		if ok {
			t.Fatalf("enqueue over capacity must be rejected")
		}
	case <-time.After(time.Second):
		t.Fatalf("enqueue blocked on a full shard")
	}
}

func TestDispatcher_BatchStopsAtFirstRejection(t *testing.T) {
	d := NewDispatcher(1, &recordingService{}, zerolog.Nop())

	events := make([]ports.CourierEventInput, channelBuffer+10)
	for i := range events {
		events[i] = ports.CourierEventInput{
			OrderNumber: fmt.Sprintf("SP-%08X", i),
			Status:      "picked_up",
		}
	}

	accepted := d.EnqueueBatch(events)
	if accepted != channelBuffer {
		t.Fatalf("expected %d accepted, got %d", channelBuffer, accepted)
	}
}

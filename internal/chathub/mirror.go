package chathub

import (
	"context"
	"time"

	"github.com/pion/logging"

	"roomrelay/backend/internal/storage"
)

const (
	mirrorQueueSize      = 1024
	mirrorPublishTimeout = 2 * time.Second
)

// eventMirror copies broadcasts to a Publisher on its own goroutine so a
// slow or unavailable broker never stalls the hub.
type eventMirror struct {
	pub   storage.Publisher
	queue chan storage.MirroredEvent
	log   logging.LeveledLogger
}

func newEventMirror(pub storage.Publisher, log logging.LeveledLogger) *eventMirror {
	return &eventMirror{
		pub:   pub,
		queue: make(chan storage.MirroredEvent, mirrorQueueSize),
		log:   log,
	}
}

// enqueue drops the event when the queue is full.
func (e *eventMirror) enqueue(ev storage.MirroredEvent) {
	select {
	case e.queue <- ev:
	default:
		e.log.Warnf("mirror queue full, dropping %s", ev.Event)
	}
}

func (e *eventMirror) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.queue:
			pctx, cancel := context.WithTimeout(ctx, mirrorPublishTimeout)
			if err := e.pub.PublishEvent(pctx, ev); err != nil {
				e.log.Errorf("mirror %s (room %q): %v", ev.Event, ev.Room, err)
			}
			cancel()
		}
	}
}
